package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-gateway/internal/domain"
)

func TestGetGasPrices_Cached(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	feed := h.svc.GetGasPrices(ctx, 1)
	require.NotNil(t, feed)
	assert.Equal(t, "20000000000", feed.Standard)
	assert.Equal(t, "50000000000", feed.Instant)

	require.NotNil(t, h.svc.GetGasPrices(ctx, 1))
	assert.Equal(t, int64(1), h.market.Gas.Calls())

	assert.Nil(t, h.svc.GetGasPrices(ctx, domain.ChainFantom))
}

func TestGetEstimatedGasCost(t *testing.T) {
	h := newHarness(t, nil)

	est, err := h.svc.GetEstimatedGasCost(context.Background(), 1, 21000, domain.GasStandard)
	require.NoError(t, err)

	assert.Equal(t, int64(1), est.ChainID)
	assert.Equal(t, domain.GasStandard, est.Tier)
	assert.Equal(t, "20000000000", est.GasPrice)
	assert.Equal(t, "420000000000000", est.TotalCost)
	assert.Equal(t, 3000.0, est.NativePriceUSD)
	assert.InDelta(t, 1.26, est.CostUSD, 1e-9)
	assert.Equal(t, h.clock.Now().UnixMilli(), est.Timestamp)
}

func TestGetEstimatedGasCost_Tiers(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	fast, err := h.svc.GetEstimatedGasCost(ctx, 137, 100000, domain.GasFast)
	require.NoError(t, err)
	assert.Equal(t, "3000000000000000", fast.TotalCost)
	assert.InDelta(t, 0.0021, fast.CostUSD, 1e-9)

	instant, err := h.svc.GetEstimatedGasCost(ctx, 137, 100000, domain.GasInstant)
	require.NoError(t, err)
	assert.Greater(t, instant.CostUSD, fast.CostUSD)
}

func TestGetEstimatedGasCost_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported chain", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.svc.GetEstimatedGasCost(ctx, 999, 21000, domain.GasStandard)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("zero gas limit", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.svc.GetEstimatedGasCost(ctx, 1, 0, domain.GasStandard)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("no gas feed", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.svc.GetEstimatedGasCost(ctx, domain.ChainFantom, 21000, domain.GasStandard)
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("no native price", func(t *testing.T) {
		h := newHarness(t, nil)
		for _, s := range h.market.PriceSources() {
			s.Fail()
		}
		_, err := h.svc.GetEstimatedGasCost(ctx, 1, 21000, domain.GasStandard)
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func TestCompareGasAcrossChains_OmitsFailures(t *testing.T) {
	h := newHarness(t, nil)

	got := h.svc.CompareGasAcrossChains(context.Background(),
		[]int64{domain.ChainEthereum, domain.ChainPolygon, domain.ChainFantom, 999}, 21000)

	require.Len(t, got, 2)
	assert.Contains(t, got, domain.ChainEthereum)
	assert.Contains(t, got, domain.ChainPolygon)
	for id, est := range got {
		assert.Equal(t, id, est.ChainID)
		assert.Equal(t, domain.GasStandard, est.Tier)
	}
	assert.Greater(t, got[domain.ChainEthereum].CostUSD, got[domain.ChainPolygon].CostUSD)
}
