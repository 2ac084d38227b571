package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-gateway/internal/config"
	"chain-gateway/internal/domain"
	"chain-gateway/internal/upstream/stub"
)

func TestGetVolumeData(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	v := h.svc.GetVolumeData(ctx, "ETH/USDC", 1, domain.Timeframe24h)
	require.NotNil(t, v)
	assert.Equal(t, 120_000_000.0, v.VolumeUSD)

	require.NotNil(t, h.svc.GetVolumeData(ctx, "ETH/USDC", 1, domain.Timeframe24h))
	assert.Equal(t, int64(1), h.market.Volume.Calls())

	assert.Nil(t, h.svc.GetVolumeData(ctx, "FOO/BAR", 1, domain.Timeframe24h))
}

func TestAnalyzeMarketActivity_Trending(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config, _ *stub.Market) {
		cfg.TrendingLimit = 3
	})

	a := h.svc.AnalyzeMarketActivity(context.Background(), 1)
	require.NotNil(t, a)
	assert.Equal(t, 450_000_000.0, a.TotalVolumeUSD24h)
	assert.Equal(t, int64(1_200_000), a.TxCount24h)

	require.Len(t, a.Trending, 3)
	assert.Equal(t, "ETH/USDC", a.Trending[0].Pair)
	assert.Equal(t, "WBTC/USDC", a.Trending[1].Pair)
	assert.Equal(t, "USDT/USDC", a.Trending[2].Pair)

	assert.Nil(t, h.svc.AnalyzeMarketActivity(context.Background(), domain.ChainFantom))
}

func TestGetMarketSnapshot(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.market.Bridge("axelar").Fail()
	h.svc.CheckHealth(ctx)

	snap := h.svc.GetMarketSnapshot(ctx)
	require.Len(t, snap.Chains, len(h.cfg.SnapshotChains))

	eth := snap.Chains[domain.ChainEthereum]
	require.NotNil(t, eth.GasPrice)
	assert.Equal(t, "20000000000", eth.GasPrice.Standard)
	assert.Equal(t, 450_000_000.0, eth.Volume24hUSD)
	assert.Len(t, eth.TrendingPairs, 5)
	assert.Equal(t, 3000.0, eth.NativePriceUSD)

	assert.Equal(t, 550.0, snap.Chains[domain.ChainBSC].NativePriceUSD)

	assert.Equal(t, map[string]domain.BridgeSnapshot{
		"axelar":   {Status: domain.StatusUnhealthy},
		"stargate": {Status: domain.StatusHealthy},
		"wormhole": {Status: domain.StatusHealthy},
	}, snap.Bridges)
	assert.Equal(t, h.clock.Now().UnixMilli(), snap.Timestamp)
}

func TestGetMarketSnapshot_DegradedChain(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config, _ *stub.Market) {
		cfg.SnapshotChains = []int64{domain.ChainEthereum, domain.ChainFantom}
	})

	snap := h.svc.GetMarketSnapshot(context.Background())
	require.Contains(t, snap.Chains, domain.ChainFantom)

	ftm := snap.Chains[domain.ChainFantom]
	assert.Nil(t, ftm.GasPrice)
	assert.Zero(t, ftm.Volume24hUSD)
	assert.Empty(t, ftm.TrendingPairs)
	assert.Zero(t, ftm.NativePriceUSD)
}
