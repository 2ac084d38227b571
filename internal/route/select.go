package route

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"chain-gateway/internal/domain"
	"chain-gateway/internal/provider"
)

func newRouteID() string {
	return "route_" + uuid.NewString()
}

// selectPool picks a pool according to strategy. pools must be non-empty.
func selectPool(pools []*domain.LiquidityInfo, strategy domain.Strategy, amount decimal.Decimal) *domain.LiquidityInfo {
	switch strategy {
	case domain.StrategyMostLiquid:
		best := pools[0]
		for _, p := range pools[1:] {
			if p.Liquidity.GreaterThan(best.Liquidity) {
				best = p
			}
		}
		return best

	case domain.StrategyLowestFee:
		best := pools[0]
		for _, p := range pools[1:] {
			if p.Fee < best.Fee || (p.Fee == best.Fee && p.Liquidity.GreaterThan(best.Liquidity)) {
				best = p
			}
		}
		return best

	case domain.StrategyLeastSlippage:
		cost := func(p *domain.LiquidityInfo) float64 {
			return p.Fee + amount.Div(p.Liquidity).InexactFloat64()
		}
		best := pools[0]
		for _, p := range pools[1:] {
			if cost(p) < cost(best) {
				best = p
			}
		}
		return best

	default:
		return provider.BestScoredPool(pools)
	}
}

// selectBridge picks a quote from fee-ordered quotes according to strategy.
// best_price, most_liquid and least_slippage defer to the aggregator's best.
func selectBridge(quotes []*domain.BridgeQuote, strategy domain.Strategy) *domain.BridgeQuote {
	if len(quotes) == 0 {
		return nil
	}
	if strategy != domain.StrategyBestSpeed {
		return quotes[0]
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.LatencySeconds < best.LatencySeconds {
			best = q
		}
	}
	return best
}
