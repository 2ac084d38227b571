package route

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-gateway/internal/domain"
)

func TestAlternatives_RankedAndDistinct(t *testing.T) {
	f := newFixture(t)
	// Deep but expensive versus shallow and cheap.
	f.pools.SetPool("AAA", "BBB", 1, domain.MustAmount("1000000"), 0.01)
	f.pools2.SetPool("AAA", "BBB", 1, domain.MustAmount("20000"), 0.0005)

	routes, err := f.opt.Alternatives(context.Background(), domain.RouteRequest{
		TokenIn: "AAA", TokenOut: "BBB", AmountIn: domain.MustAmount("1000"),
		ChainInID: 1, ChainOutID: 1,
	}, 3)
	require.NoError(t, err)

	// Only two distinct plans exist on a single chain with two pools.
	require.Len(t, routes, 2)
	assert.Equal(t, "sushiswap", routes[0].Steps[0].Protocol)
	assert.Equal(t, "uniswap_v3", routes[1].Steps[0].Protocol)
	assert.True(t, routes[0].ExpectedOutput.GreaterThan(routes[1].ExpectedOutput))
}

func TestAlternatives_AllFail(t *testing.T) {
	f := newFixture(t)

	routes, err := f.opt.Alternatives(context.Background(), domain.RouteRequest{
		TokenIn: "AAA", TokenOut: "BBB", AmountIn: domain.MustAmount("1"),
		ChainInID: 1, ChainOutID: 1,
	}, 3)
	assert.Nil(t, routes)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestAlternatives_DefaultLimit(t *testing.T) {
	f := newFixture(t)

	routes, err := f.opt.Alternatives(context.Background(), domain.RouteRequest{
		TokenIn: "USDC", TokenOut: "USDC", AmountIn: domain.MustAmount("1"),
		ChainInID: 1, ChainOutID: 137,
	}, 0)
	require.NoError(t, err)
	// Two bridges yield two plans; the cheaper one outputs more.
	require.Len(t, routes, 2)
	assert.Equal(t, "wormhole", routes[0].BridgeMethod)
}

func TestRank_TieBreakers(t *testing.T) {
	out := domain.MustAmount("10")
	routes := []*domain.TransferRoute{
		{ID: "slow", Strategy: domain.StrategyBestPrice, ExpectedOutput: out, TotalGasCostUSD: 1, EstimatedTime: 900},
		{ID: "pricey", Strategy: domain.StrategyBestPrice, ExpectedOutput: out, TotalGasCostUSD: 5, EstimatedTime: 10},
		{ID: "best", Strategy: domain.StrategyLowestFee, ExpectedOutput: domain.MustAmount("11"), TotalGasCostUSD: 50, EstimatedTime: 999},
		{ID: "fast", Strategy: domain.StrategyBestSpeed, ExpectedOutput: out, TotalGasCostUSD: 1, EstimatedTime: 60},
	}
	Rank(routes)

	var ids []string
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"best", "fast", "slow", "pricey"}, ids)
}

func TestSelectPool(t *testing.T) {
	deep := &domain.LiquidityInfo{Protocol: "deep", Liquidity: domain.MustAmount("1000000"), Fee: 0.01}
	cheap := &domain.LiquidityInfo{Protocol: "cheap", Liquidity: domain.MustAmount("1000"), Fee: 0.0001}
	mid := &domain.LiquidityInfo{Protocol: "mid", Liquidity: domain.MustAmount("500000"), Fee: 0.003}
	pools := []*domain.LiquidityInfo{deep, cheap, mid}
	amount := domain.MustAmount("100")

	assert.Equal(t, "deep", selectPool(pools, domain.StrategyMostLiquid, amount).Protocol)
	assert.Equal(t, "cheap", selectPool(pools, domain.StrategyLowestFee, amount).Protocol)
	assert.Equal(t, "mid", selectPool(pools, domain.StrategyLeastSlippage, amount).Protocol)
	assert.Equal(t, "deep", selectPool(pools, domain.StrategyBestPrice, amount).Protocol)
}

func TestSelectBridge(t *testing.T) {
	quotes := []*domain.BridgeQuote{
		{Bridge: "cheap", Fee: 0.0001, LatencySeconds: 900},
		{Bridge: "fast", Fee: 0.001, LatencySeconds: 30},
	}
	assert.Equal(t, "fast", selectBridge(quotes, domain.StrategyBestSpeed).Bridge)
	assert.Equal(t, "cheap", selectBridge(quotes, domain.StrategyLowestFee).Bridge)
	assert.Nil(t, selectBridge(nil, domain.StrategyBestSpeed))
}

func TestCompoundSlippage(t *testing.T) {
	swap := domain.RouteStep{Kind: domain.StepSwap, Slippage: 1}
	bridge := domain.RouteStep{Kind: domain.StepBridge}

	assert.InDelta(t, 1.99, compoundSlippage([]domain.RouteStep{swap, bridge, swap}, 1), 1e-9)
	assert.Equal(t, 0.7, compoundSlippage([]domain.RouteStep{bridge}, 0.7))
}
