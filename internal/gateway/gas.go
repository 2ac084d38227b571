package gateway

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"chain-gateway/internal/cache"
	"chain-gateway/internal/domain"
	"chain-gateway/internal/provider"
)

// GetGasPrices returns the cached gas feed for a chain, or nil.
func (s *Service) GetGasPrices(ctx context.Context, chainID int64) *domain.GasPriceFeed {
	feed, _ := cache.Fetch(ctx, s.loader, cache.Gas, cache.Key("gas", chainID),
		func(ctx context.Context) (*domain.GasPriceFeed, error) {
			return s.gas.GetGasPrices(ctx, chainID), nil
		})
	return feed
}

// GetEstimatedGasCost prices gasLimit at a tier. The USD figure uses the
// chain's native asset price from GetTokenPrice, which only reads the cache
// and the price adapter, so estimation never re-enters itself.
func (s *Service) GetEstimatedGasCost(ctx context.Context, chainID int64, gasLimit uint64, tier domain.GasTier) (*domain.GasEstimate, error) {
	chain, ok := domain.LookupChain(chainID)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported chain %d", ErrInvalidRequest, chainID)
	}
	if gasLimit == 0 {
		return nil, fmt.Errorf("%w: gas limit must be positive", ErrInvalidRequest)
	}

	feed := s.GetGasPrices(ctx, chainID)
	if feed == nil {
		return nil, fmt.Errorf("gas prices for chain %d: %w", chainID, ErrNoData)
	}
	price := feed.Price(tier)

	cost, err := provider.GasCost(price, gasLimit)
	if err != nil {
		return nil, fmt.Errorf("gas cost on chain %d: %w", chainID, err)
	}

	native := s.GetTokenPrice(ctx, chain.NativeSymbol, chainID)
	if native == nil {
		return nil, fmt.Errorf("%s price on chain %d: %w", chain.NativeSymbol, chainID, ErrNoData)
	}
	usd, err := provider.GasCostUSD(cost, chain, native.Price)
	if err != nil {
		return nil, fmt.Errorf("gas cost usd on chain %d: %w", chainID, err)
	}

	return &domain.GasEstimate{
		ChainID:        chainID,
		Tier:           tier,
		GasLimit:       gasLimit,
		GasPrice:       price,
		TotalCost:      cost,
		NativePriceUSD: native.Price,
		CostUSD:        usd,
		Timestamp:      s.nowMs(),
	}, nil
}

// CompareGasAcrossChains estimates gasLimit at the standard tier on every
// chain concurrently, omitting chains that cannot be estimated.
func (s *Service) CompareGasAcrossChains(ctx context.Context, chainIDs []int64, gasLimit uint64) map[int64]*domain.GasEstimate {
	var (
		mu  sync.Mutex
		out = make(map[int64]*domain.GasEstimate, len(chainIDs))
		g   errgroup.Group
	)
	for _, id := range chainIDs {
		g.Go(func() error {
			est, err := s.GetEstimatedGasCost(ctx, id, gasLimit, domain.GasStandard)
			if err != nil {
				s.logger.Debugw("gas comparison skipped chain", "chain", id, "error", err)
				return nil
			}
			mu.Lock()
			out[id] = est
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
