package provider

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chain-gateway/internal/domain"
)

// GasAdapter reads per-tier gas prices from the first source supporting a chain.
type GasAdapter struct {
	base
	sources []GasSource
}

// NewGasAdapter creates a GasAdapter. Sources are tried in order.
func NewGasAdapter(sources []GasSource, timeout time.Duration, logger *zap.SugaredLogger) *GasAdapter {
	return &GasAdapter{
		base:    newBase("gas", timeout, logger),
		sources: sources,
	}
}

// GetGasPrices returns the feed for chainID, or nil if no source answers.
func (a *GasAdapter) GetGasPrices(ctx context.Context, chainID int64) *domain.GasPriceFeed {
	for _, src := range a.sources {
		if !src.Supports(chainID) {
			continue
		}
		feed := call(ctx, &a.base, src.Name(), func(ctx context.Context) (*domain.GasPriceFeed, error) {
			return src.GasPrices(ctx, chainID)
		})
		if feed == nil {
			continue
		}
		if feed.EstimatedTime == (domain.GasTimes{}) {
			feed.EstimatedTime = domain.DefaultGasTimes
		}
		return feed
	}
	return nil
}

// GetGasPricesForChains fetches chains concurrently. Chains without a feed are omitted.
func (a *GasAdapter) GetGasPricesForChains(ctx context.Context, chainIDs []int64) map[int64]*domain.GasPriceFeed {
	var (
		mu  sync.Mutex
		out = make(map[int64]*domain.GasPriceFeed, len(chainIDs))
		g   errgroup.Group
	)
	for _, id := range chainIDs {
		g.Go(func() error {
			if feed := a.GetGasPrices(ctx, id); feed != nil {
				mu.Lock()
				out[id] = feed
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// EstimateGasCost returns gasLimit times the standard tier price for chainID.
func (a *GasAdapter) EstimateGasCost(ctx context.Context, chainID int64, gasLimit uint64) (string, bool) {
	feed := a.GetGasPrices(ctx, chainID)
	if feed == nil {
		return "", false
	}
	cost, err := GasCost(feed.Standard, gasLimit)
	if err != nil {
		a.logger.Warnw("invalid gas price", "chain", chainID, "price", feed.Standard, "error", err)
		return "", false
	}
	return cost, true
}

// GasCost multiplies a decimal gas price by gasLimit in 256-bit integer arithmetic.
func GasCost(price string, gasLimit uint64) (string, error) {
	p, err := uint256.FromDecimal(price)
	if err != nil {
		return "", fmt.Errorf("parse gas price %q: %w", price, err)
	}
	total, overflow := new(uint256.Int).MulOverflow(p, uint256.NewInt(gasLimit))
	if overflow {
		return "", fmt.Errorf("gas cost overflow: %s * %s", price, strconv.FormatUint(gasLimit, 10))
	}
	return total.Dec(), nil
}

// GasCostUSD converts a cost in the chain's smallest fee unit to USD using
// the native asset price.
func GasCostUSD(cost string, chain domain.Chain, nativePriceUSD float64) (float64, error) {
	c, err := uint256.FromDecimal(cost)
	if err != nil {
		return 0, fmt.Errorf("parse gas cost %q: %w", cost, err)
	}
	native := decimal.NewFromBigInt(c.ToBig(), -chain.NativeDecimals)
	return native.Mul(decimal.NewFromFloat(nativePriceUSD)).InexactFloat64(), nil
}
