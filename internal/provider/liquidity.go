package provider

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chain-gateway/internal/domain"
)

// LiquidityAdapter reads pools for a pair from every registered DEX protocol.
type LiquidityAdapter struct {
	base
	sources []PoolSource
}

// NewLiquidityAdapter creates a LiquidityAdapter over the given pool sources.
func NewLiquidityAdapter(sources []PoolSource, timeout time.Duration, logger *zap.SugaredLogger) *LiquidityAdapter {
	return &LiquidityAdapter{
		base:    newBase("liquidity", timeout, logger),
		sources: sources,
	}
}

// GetPools queries all protocols concurrently and returns the pools that
// answered, sorted by liquidity descending.
func (a *LiquidityAdapter) GetPools(ctx context.Context, tokenA, tokenB string, chainID int64) []*domain.LiquidityInfo {
	results := make([]*domain.LiquidityInfo, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			results[i] = call(ctx, &a.base, src.Name(), func(ctx context.Context) (*domain.LiquidityInfo, error) {
				return src.Pool(ctx, tokenA, tokenB, chainID)
			})
			return nil
		})
	}
	_ = g.Wait()

	pools := make([]*domain.LiquidityInfo, 0, len(results))
	for i, p := range results {
		if p == nil || !p.Liquidity.IsPositive() {
			continue
		}
		if p.Protocol == "" {
			p.Protocol = strings.ToLower(a.sources[i].Name())
		}
		pools = append(pools, p)
	}
	sort.SliceStable(pools, func(i, j int) bool {
		return pools[i].Liquidity.GreaterThan(pools[j].Liquidity)
	})
	return pools
}

// GetLiquidity returns the deepest pool for the pair, or nil.
func (a *LiquidityAdapter) GetLiquidity(ctx context.Context, tokenA, tokenB string, chainID int64) *domain.LiquidityInfo {
	pools := a.GetPools(ctx, tokenA, tokenB, chainID)
	if len(pools) == 0 {
		return nil
	}
	return pools[0]
}

// FindBestPool returns the pool with the highest liquidity/(1+fee) score, or nil.
func (a *LiquidityAdapter) FindBestPool(ctx context.Context, tokenA, tokenB string, chainID int64) *domain.LiquidityInfo {
	return BestScoredPool(a.GetPools(ctx, tokenA, tokenB, chainID))
}

// BestScoredPool picks the pool with the highest Score. Ties keep the earlier pool.
func BestScoredPool(pools []*domain.LiquidityInfo) *domain.LiquidityInfo {
	var best *domain.LiquidityInfo
	for _, p := range pools {
		if best == nil || p.Score() > best.Score() {
			best = p
		}
	}
	return best
}
