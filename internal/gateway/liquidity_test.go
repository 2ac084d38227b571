package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-gateway/internal/domain"
)

func TestGetPools_DeepestFirstAndOrderInsensitiveCache(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	pools := h.svc.GetPools(ctx, "ETH", "USDC", 1)
	require.Len(t, pools, 3)
	assert.Equal(t, "curve", pools[0].Protocol)
	assert.True(t, pools[0].Liquidity.Equal(domain.MustAmount("8000000")))

	again := h.svc.GetPools(ctx, "usdc", "eth", 1)
	require.Len(t, again, 3)
	assert.Equal(t, int64(1), h.market.Curve.Calls())
}

func TestGetLiquidityInfo_UnknownPair(t *testing.T) {
	h := newHarness(t, nil)
	assert.Nil(t, h.svc.GetLiquidityInfo(context.Background(), "FOO", "BAR", 1))
}

func TestCheckLiquidityHealth(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	t.Run("healthy", func(t *testing.T) {
		got := h.svc.CheckLiquidityHealth(ctx, "ETH", "USDC", 1, domain.MustAmount("1000000"))
		assert.True(t, got.Healthy)
		assert.Nil(t, got.Deficit)
		assert.True(t, got.Available.Equal(domain.MustAmount("8000000")))
	})

	t.Run("exact deficit", func(t *testing.T) {
		got := h.svc.CheckLiquidityHealth(ctx, "ETH", "USDC", 1, domain.MustAmount("10000000.000000000000000001"))
		assert.False(t, got.Healthy)
		require.NotNil(t, got.Deficit)
		assert.Equal(t, "2000000.000000000000000001", got.Deficit.String())
	})

	t.Run("no pool", func(t *testing.T) {
		got := h.svc.CheckLiquidityHealth(ctx, "FOO", "BAR", 1, domain.MustAmount("5"))
		assert.False(t, got.Healthy)
		assert.True(t, got.Available.IsZero())
		require.NotNil(t, got.Deficit)
		assert.Equal(t, "5", got.Deficit.String())
	})
}

func TestAnalyzeLiquidityDepth(t *testing.T) {
	h := newHarness(t, nil)

	points := h.svc.AnalyzeLiquidityDepth(context.Background(), "ETH", "USDC", 1, []domain.Amount{
		domain.MustAmount("80000"),
		domain.MustAmount("480000"),
		domain.MustAmount("1600000"),
	})
	require.Len(t, points, 3)

	assert.InDelta(t, 1, points[0].SlippagePct, 1e-9)
	assert.Equal(t, 0.5, points[0].PriceImpactPct)
	assert.InDelta(t, 6, points[1].SlippagePct, 1e-9)
	assert.Equal(t, 2.0, points[1].PriceImpactPct)
	assert.InDelta(t, 20, points[2].SlippagePct, 1e-9)
	assert.Equal(t, 5.0, points[2].PriceImpactPct)
	for _, p := range points {
		assert.True(t, p.Liquidity.Equal(domain.MustAmount("8000000")))
	}

	assert.Empty(t, h.svc.AnalyzeLiquidityDepth(context.Background(), "FOO", "BAR", 1, []domain.Amount{domain.MustAmount("1")}))
}
