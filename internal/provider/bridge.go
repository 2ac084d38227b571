package provider

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chain-gateway/internal/domain"
)

// BridgeAggregator collects quotes from bridge protocols and picks the best.
type BridgeAggregator struct {
	base
	sources []BridgeSource
}

// NewBridgeAggregator creates a BridgeAggregator over the given bridges.
func NewBridgeAggregator(sources []BridgeSource, timeout time.Duration, logger *zap.SugaredLogger) *BridgeAggregator {
	return &BridgeAggregator{
		base:    newBase("bridge", timeout, logger),
		sources: sources,
	}
}

// Bridges returns the registered bridge names.
func (a *BridgeAggregator) Bridges() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}

// Source returns the registered bridge with the given name.
func (a *BridgeAggregator) Source(name string) (BridgeSource, bool) {
	for _, s := range a.sources {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// GetBridgeQuotes queries all bridges concurrently. The result is ordered by
// fee ascending, then latency ascending.
func (a *BridgeAggregator) GetBridgeQuotes(ctx context.Context, asset string, fromChain, toChain int64, amount domain.Amount) []*domain.BridgeQuote {
	results := make([]*domain.BridgeQuote, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			results[i] = call(ctx, &a.base, src.Name(), func(ctx context.Context) (*domain.BridgeQuote, error) {
				return src.Quote(ctx, asset, fromChain, toChain, amount)
			})
			return nil
		})
	}
	_ = g.Wait()

	quotes := make([]*domain.BridgeQuote, 0, len(results))
	for i, q := range results {
		if q == nil {
			continue
		}
		if q.Bridge == "" {
			q.Bridge = a.sources[i].Name()
		}
		// Fees are fractions of the amount; anything outside [0, 1) would
		// break the cross-chain arithmetic downstream.
		if !(q.Fee >= 0 && q.Fee < 1) {
			a.logger.Warnw("invalid bridge fee", "source", q.Bridge, "fee", q.Fee)
			continue
		}
		quotes = append(quotes, q)
	}
	sort.SliceStable(quotes, func(i, j int) bool {
		if quotes[i].Fee != quotes[j].Fee {
			return quotes[i].Fee < quotes[j].Fee
		}
		return quotes[i].LatencySeconds < quotes[j].LatencySeconds
	})
	return quotes
}

// GetBestBridge returns the cheapest quote whose fee, as a percentage, fits
// within maxSlippagePct (no limit when <= 0). Errors wrap domain.ErrNoData
// when no bridge serves the transfer.
func (a *BridgeAggregator) GetBestBridge(ctx context.Context, asset string, fromChain, toChain int64, amount domain.Amount, maxSlippagePct float64) (*domain.BridgeQuote, error) {
	for _, q := range a.GetBridgeQuotes(ctx, asset, fromChain, toChain, amount) {
		if maxSlippagePct > 0 && q.Fee*100 > maxSlippagePct {
			continue
		}
		return q, nil
	}
	return nil, fmt.Errorf("bridge %s %d->%d: %w", asset, fromChain, toChain, domain.ErrNoData)
}
