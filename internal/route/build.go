package route

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"chain-gateway/internal/domain"
	"chain-gateway/internal/provider"
)

var hundred = decimal.NewFromInt(100)

func (o *Optimizer) singleChain(ctx context.Context, req domain.RouteRequest, strategy domain.Strategy) (*domain.TransferRoute, error) {
	step, err := o.swapStep(ctx, req.TokenIn, req.TokenOut, req.AmountIn, req.ChainInID, req.Slippage, strategy)
	if err != nil {
		return nil, err
	}
	r := o.newRoute(req, strategy, []domain.RouteStep{*step}, domain.BridgeNone)
	r.TotalSlippage = req.Slippage
	r.EstimatedTime = int(o.routing.SingleChainTime.Seconds())
	if err := o.finish(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (o *Optimizer) crossChain(ctx context.Context, req domain.RouteRequest, strategy domain.Strategy) (*domain.TransferRoute, error) {
	asset := o.routing.BridgeAsset
	amount := req.AmountIn
	var steps []domain.RouteStep

	if !strings.EqualFold(req.TokenIn, asset) {
		step, err := o.swapStep(ctx, req.TokenIn, asset, amount, req.ChainInID, req.Slippage, strategy)
		if err != nil {
			return nil, fmt.Errorf("source swap: %w", err)
		}
		steps = append(steps, *step)
		amount = step.To.Amount
	}

	quote, err := o.bridgeQuote(ctx, asset, req.ChainInID, req.ChainOutID, amount, req.Slippage, strategy)
	if err != nil {
		return nil, err
	}
	bridged := amount.Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(quote.Fee)))
	steps = append(steps, domain.RouteStep{
		Kind:        domain.StepBridge,
		From:        domain.Endpoint{Token: asset, Amount: amount, ChainID: req.ChainInID},
		To:          domain.Endpoint{Token: asset, Amount: bridged, ChainID: req.ChainOutID},
		Protocol:    quote.Bridge,
		Fee:         quote.Fee,
		GasEstimate: quote.GasEstimate,
		Liquidity:   quote.Liquidity,
	})
	amount = bridged

	if !strings.EqualFold(req.TokenOut, asset) {
		step, err := o.swapStep(ctx, asset, req.TokenOut, amount, req.ChainOutID, req.Slippage, strategy)
		if err != nil {
			return nil, fmt.Errorf("destination swap: %w", err)
		}
		steps = append(steps, *step)
	}

	r := o.newRoute(req, strategy, steps, quote.Bridge)
	r.TotalSlippage = compoundSlippage(steps, req.Slippage)
	r.EstimatedTime = int(o.routing.CrossChainBaseTime.Seconds()) + quote.LatencySeconds
	if err := o.finish(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (o *Optimizer) bridgeQuote(ctx context.Context, asset string, from, to int64, amount decimal.Decimal, slippage float64, strategy domain.Strategy) (*domain.BridgeQuote, error) {
	var q *domain.BridgeQuote
	switch strategy {
	case domain.StrategyBestSpeed, domain.StrategyLowestFee:
		q = selectBridge(o.bridges.GetBridgeQuotes(ctx, asset, from, to, amount), strategy)
	default:
		best, err := o.bridges.GetBestBridge(ctx, asset, from, to, amount, slippage)
		if err == nil {
			q = best
		}
	}
	if q == nil {
		return nil, fmt.Errorf("%s %d->%d: %w", asset, from, to, ErrNoBridge)
	}
	return q, nil
}

// swapStep prices a swap against the pool chosen by strategy. Output is
// bounded by pool liquidity: min(amount, liquidity) * rate * (1 - fee).
func (o *Optimizer) swapStep(ctx context.Context, tokenIn, tokenOut string, amount decimal.Decimal, chainID int64, slippage float64, strategy domain.Strategy) (*domain.RouteStep, error) {
	pools := o.pools.GetPools(ctx, tokenIn, tokenOut, chainID)
	if len(pools) == 0 {
		return nil, fmt.Errorf("%s/%s on chain %d: %w", tokenIn, tokenOut, chainID, ErrNoLiquidity)
	}
	pool := selectPool(pools, strategy, amount)

	filled := decimal.Min(amount, pool.Liquidity)
	out := filled.
		Mul(o.rate(ctx, tokenIn, tokenOut, chainID)).
		Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(pool.Fee)))

	return &domain.RouteStep{
		Kind:           domain.StepSwap,
		From:           domain.Endpoint{Token: tokenIn, Amount: amount, ChainID: chainID},
		To:             domain.Endpoint{Token: tokenOut, Amount: out, ChainID: chainID},
		Protocol:       pool.Protocol,
		Fee:            pool.Fee,
		Slippage:       slippage,
		PriceImpactPct: amount.Div(pool.Liquidity).Mul(hundred).InexactFloat64(),
		GasEstimate:    o.routing.SwapGasLimit,
		Liquidity:      pool.Liquidity,
	}, nil
}

// compoundSlippage combines swap step tolerances: (1 - prod(1 - s/100)) * 100.
// A bridge-only route keeps the requested tolerance.
func compoundSlippage(steps []domain.RouteStep, requested float64) float64 {
	keep := 1.0
	swaps := 0
	for _, s := range steps {
		if s.Kind != domain.StepSwap {
			continue
		}
		keep *= 1 - s.Slippage/100
		swaps++
	}
	if swaps == 0 {
		return requested
	}
	return (1 - keep) * 100
}

func (o *Optimizer) newRoute(req domain.RouteRequest, strategy domain.Strategy, steps []domain.RouteStep, bridge string) *domain.TransferRoute {
	last := steps[len(steps)-1]
	return &domain.TransferRoute{
		ID:       o.newID(),
		Strategy: strategy,
		Source: domain.Endpoint{
			Token:   req.TokenIn,
			Amount:  req.AmountIn,
			ChainID: req.ChainInID,
		},
		Destination: domain.Endpoint{
			Token:   req.TokenOut,
			Amount:  last.To.Amount,
			ChainID: req.ChainOutID,
		},
		Steps:          steps,
		ExpectedOutput: last.To.Amount,
		BridgeMethod:   bridge,
		RiskLevel:      domain.RiskLevelForSteps(len(steps)),
		Timestamp:      o.now().UnixMilli(),
	}
}

// finish fills the derived aggregates: minimum output, liquidity adequacy
// and gas cost on the source chain.
func (o *Optimizer) finish(ctx context.Context, r *domain.TransferRoute) error {
	keep := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(r.TotalSlippage).Div(hundred))
	if keep.IsNegative() {
		keep = decimal.Zero
	}
	r.MinOutput = r.ExpectedOutput.Mul(keep)

	r.LiquidityAdequate = true
	for _, s := range r.Steps {
		if s.Kind == domain.StepSwap && s.Liquidity.LessThan(s.From.Amount.Mul(o.coverage)) {
			r.LiquidityAdequate = false
		}
	}

	chainID := r.Source.ChainID
	chain, ok := domain.LookupChain(chainID)
	if !ok {
		return fmt.Errorf("chain %d: %w", chainID, ErrNoGasPrice)
	}
	feed := o.gas.GetGasPrices(ctx, chainID)
	if feed == nil {
		return fmt.Errorf("chain %d: %w", chainID, ErrNoGasPrice)
	}
	var units uint64
	for _, s := range r.Steps {
		units += s.GasEstimate
	}
	cost, err := provider.GasCost(feed.Standard, units)
	if err != nil {
		return fmt.Errorf("chain %d: %w", chainID, err)
	}
	native := o.prices.GetTokenPrice(ctx, chain.NativeSymbol, chainID)
	if native == nil {
		return fmt.Errorf("native %s on chain %d: %w", chain.NativeSymbol, chainID, ErrNoPrice)
	}
	usd, err := provider.GasCostUSD(cost, chain, native.Price)
	if err != nil {
		return err
	}
	r.TotalGasCost = cost
	r.TotalGasCostUSD = usd
	return nil
}
