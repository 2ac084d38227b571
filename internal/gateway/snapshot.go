package gateway

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"chain-gateway/internal/domain"
)

// GetMarketSnapshot assembles gas, 24h volume, trending pairs and native
// price for each configured snapshot chain, plus the last known status of
// every monitored bridge. Chains whose sources are down appear with the
// fields that could be read.
func (s *Service) GetMarketSnapshot(ctx context.Context) *domain.MarketSnapshot {
	snap := &domain.MarketSnapshot{
		Chains:    make(map[int64]domain.ChainSnapshot, len(s.cfg.SnapshotChains)),
		Bridges:   make(map[string]domain.BridgeSnapshot),
		Timestamp: s.nowMs(),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, id := range s.cfg.SnapshotChains {
		g.Go(func() error {
			cs := domain.ChainSnapshot{GasPrice: s.GetGasPrices(ctx, id)}
			if activity := s.AnalyzeMarketActivity(ctx, id); activity != nil {
				cs.Volume24hUSD = activity.TotalVolumeUSD24h
				cs.TrendingPairs = activity.Trending
			}
			if symbol := domain.NativeSymbol(id); symbol != "" {
				if p := s.GetTokenPrice(ctx, symbol, id); p != nil {
					cs.NativePriceUSD = p.Price
				}
			}
			mu.Lock()
			snap.Chains[id] = cs
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, name := range s.health.bridgeNames() {
		snap.Bridges[name] = domain.BridgeSnapshot{Status: s.health.bridgeStatus(name)}
	}
	return snap
}
