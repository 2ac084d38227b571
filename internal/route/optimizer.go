// Package route builds transfer routes: single-chain swaps and up to three
// step cross-chain plans through a canonical bridge asset.
package route

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"chain-gateway/internal/config"
	"chain-gateway/internal/domain"
	"chain-gateway/internal/logging"
	"chain-gateway/internal/observability"
)

// PriceReader resolves a token's USD price.
type PriceReader interface {
	GetTokenPrice(ctx context.Context, token string, chainID int64) *domain.TokenPrice
}

// PoolReader lists pools for a pair, deepest first.
type PoolReader interface {
	GetPools(ctx context.Context, tokenA, tokenB string, chainID int64) []*domain.LiquidityInfo
}

// GasReader reads per-tier gas prices.
type GasReader interface {
	GetGasPrices(ctx context.Context, chainID int64) *domain.GasPriceFeed
}

// BridgeQuoter quotes bridges for a transfer.
type BridgeQuoter interface {
	GetBridgeQuotes(ctx context.Context, asset string, fromChain, toChain int64, amount domain.Amount) []*domain.BridgeQuote
	GetBestBridge(ctx context.Context, asset string, fromChain, toChain int64, amount domain.Amount, maxSlippagePct float64) (*domain.BridgeQuote, error)
}

// Options configures an Optimizer.
type Options struct {
	Routing           config.Routing
	LiquidityCoverage float64 // pool depth required per unit swapped
	Logger            *zap.SugaredLogger
	Now               func() time.Time
	NewID             func() string
}

// Optimizer constructs routes from live market data.
type Optimizer struct {
	prices  PriceReader
	pools   PoolReader
	gas     GasReader
	bridges BridgeQuoter

	routing  config.Routing
	coverage decimal.Decimal
	logger   *zap.SugaredLogger
	now      func() time.Time
	newID    func() string
}

// NewOptimizer creates an Optimizer.
func NewOptimizer(prices PriceReader, pools PoolReader, gas GasReader, bridges BridgeQuoter, opts Options) *Optimizer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = newRouteID
	}
	if opts.LiquidityCoverage <= 0 {
		opts.LiquidityCoverage = 1
	}
	return &Optimizer{
		prices:   prices,
		pools:    pools,
		gas:      gas,
		bridges:  bridges,
		routing:  opts.Routing,
		coverage: decimal.NewFromFloat(opts.LiquidityCoverage),
		logger:   logging.OrNop(opts.Logger).Named("route"),
		now:      opts.Now,
		newID:    opts.NewID,
	}
}

// Optimize builds the route for req under strategy. Same-chain requests
// yield a single swap; cross-chain requests bridge through the canonical
// asset with optional swaps on either side.
func (o *Optimizer) Optimize(ctx context.Context, req domain.RouteRequest, strategy domain.Strategy) (*domain.TransferRoute, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Slippage == 0 {
		req.Slippage = o.routing.DefaultSlippagePct
	}

	var (
		r   *domain.TransferRoute
		err error
	)
	if req.CrossChain() {
		r, err = o.crossChain(ctx, req, strategy)
	} else {
		r, err = o.singleChain(ctx, req, strategy)
	}
	observability.RecordRouteBuilt(string(strategy), err)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Quote estimates the output amount from the ratio of the two token prices.
// Unlike Optimize it builds no route.
func (o *Optimizer) Quote(ctx context.Context, req domain.RouteRequest) (*domain.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	in := o.prices.GetTokenPrice(ctx, req.TokenIn, req.ChainInID)
	if in == nil {
		return nil, fmt.Errorf("%s on chain %d: %w", req.TokenIn, req.ChainInID, ErrNoPrice)
	}
	out := o.prices.GetTokenPrice(ctx, req.TokenOut, req.ChainOutID)
	if out == nil {
		return nil, fmt.Errorf("%s on chain %d: %w", req.TokenOut, req.ChainOutID, ErrNoPrice)
	}

	rate := in.Price / out.Price
	return &domain.Quote{
		TokenIn:    req.TokenIn,
		TokenOut:   req.TokenOut,
		ChainInID:  req.ChainInID,
		ChainOutID: req.ChainOutID,
		AmountIn:   req.AmountIn,
		AmountOut:  req.AmountIn.Mul(decimal.NewFromFloat(rate)),
		Rate:       rate,
		PriceIn:    in.Price,
		PriceOut:   out.Price,
		Timestamp:  o.now().UnixMilli(),
	}, nil
}

// rate returns priceIn/priceOut, or 1 when either price is unavailable.
func (o *Optimizer) rate(ctx context.Context, tokenIn, tokenOut string, chainID int64) decimal.Decimal {
	if strings.EqualFold(tokenIn, tokenOut) {
		return decimal.NewFromInt(1)
	}
	in := o.prices.GetTokenPrice(ctx, tokenIn, chainID)
	out := o.prices.GetTokenPrice(ctx, tokenOut, chainID)
	if in == nil || out == nil || out.Price <= 0 {
		o.logger.Debugw("price ratio unavailable, using 1", "tokenIn", tokenIn, "tokenOut", tokenOut, "chain", chainID)
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(in.Price).Div(decimal.NewFromFloat(out.Price))
}
