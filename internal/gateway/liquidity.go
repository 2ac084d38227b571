package gateway

import (
	"context"
	"strings"

	"chain-gateway/internal/cache"
	"chain-gateway/internal/domain"
)

// poolList is the cached form of a pair's pools.
type poolList []*domain.LiquidityInfo

// GetPools returns the pools for a pair, deepest first, cached per pair and
// chain regardless of token order.
func (s *Service) GetPools(ctx context.Context, tokenA, tokenB string, chainID int64) []*domain.LiquidityInfo {
	a, b := strings.ToUpper(tokenA), strings.ToUpper(tokenB)
	if b < a {
		a, b = b, a
	}
	pools, _ := cache.Fetch(ctx, s.loader, cache.Liquidity, cache.Key("pools", a, b, chainID),
		func(ctx context.Context) (*poolList, error) {
			list := poolList(s.liquidity.GetPools(ctx, tokenA, tokenB, chainID))
			if len(list) == 0 {
				return nil, nil
			}
			return &list, nil
		})
	if pools == nil {
		return nil
	}
	return *pools
}

// GetLiquidityInfo returns the deepest pool for the pair, or nil.
func (s *Service) GetLiquidityInfo(ctx context.Context, tokenA, tokenB string, chainID int64) *domain.LiquidityInfo {
	pools := s.GetPools(ctx, tokenA, tokenB, chainID)
	if len(pools) == 0 {
		return nil
	}
	return pools[0]
}

// CheckLiquidityHealth compares the deepest pool against minLiquidity. The
// deficit is exact decimal arithmetic. A pair without any pool reports zero
// available liquidity.
func (s *Service) CheckLiquidityHealth(ctx context.Context, tokenA, tokenB string, chainID int64, minLiquidity domain.Amount) *domain.LiquidityHealth {
	available := domain.Amount{}
	if info := s.GetLiquidityInfo(ctx, tokenA, tokenB, chainID); info != nil {
		available = info.Liquidity
	}

	health := &domain.LiquidityHealth{
		Healthy:   available.GreaterThanOrEqual(minLiquidity),
		Available: available,
	}
	if !health.Healthy {
		deficit := minLiquidity.Sub(available)
		health.Deficit = &deficit
	}
	return health
}

// AnalyzeLiquidityDepth estimates slippage for each trade size as
// amount / liquidity × 100 against the deepest pool. Empty when the pair
// has no pool.
func (s *Service) AnalyzeLiquidityDepth(ctx context.Context, tokenA, tokenB string, chainID int64, amounts []domain.Amount) []domain.DepthPoint {
	info := s.GetLiquidityInfo(ctx, tokenA, tokenB, chainID)
	if info == nil || !info.Liquidity.IsPositive() {
		return nil
	}

	points := make([]domain.DepthPoint, 0, len(amounts))
	for _, amt := range amounts {
		ratio := amt.Div(info.Liquidity)
		points = append(points, domain.DepthPoint{
			Amount:         amt,
			SlippagePct:    ratio.Shift(2).InexactFloat64(),
			PriceImpactPct: domain.PriceImpactTier(ratio.InexactFloat64()),
			Liquidity:      info.Liquidity,
		})
	}
	return points
}
