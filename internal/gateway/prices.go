package gateway

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"chain-gateway/internal/cache"
	"chain-gateway/internal/domain"
	"chain-gateway/internal/observability"
	"chain-gateway/internal/storage"
)

// journalTimeout bounds a journal write made on behalf of a request.
const journalTimeout = 2 * time.Second

// GetTokenPrice returns the cached price or fetches it through the price
// adapter's fallback order. Nil when every source failed.
func (s *Service) GetTokenPrice(ctx context.Context, token string, chainID int64) *domain.TokenPrice {
	p, _ := cache.Fetch(ctx, s.loader, cache.Prices, cache.Key("price", token, chainID),
		func(ctx context.Context) (*domain.TokenPrice, error) {
			p := s.prices.GetPrice(ctx, token, chainID, "")
			if p != nil {
				s.recordObservations(ctx, p)
			}
			return p, nil
		})
	return p
}

// GetPricesForTokens resolves prices concurrently. Tokens that fail to
// resolve are absent from the result.
func (s *Service) GetPricesForTokens(ctx context.Context, tokens []string, chainID int64) map[string]*domain.TokenPrice {
	var (
		mu  sync.Mutex
		out = make(map[string]*domain.TokenPrice, len(tokens))
		g   errgroup.Group
	)
	for _, token := range tokens {
		g.Go(func() error {
			if p := s.GetTokenPrice(ctx, token, chainID); p != nil {
				mu.Lock()
				out[token] = p
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// GetAggregatedPrice reads every configured source concurrently and
// reconciles the successful readings into a confidence-weighted mean. A mean
// absolute deviation above the configured threshold raises a price_deviation
// warning; it never fails the call. Nil when no source answered.
func (s *Service) GetAggregatedPrice(ctx context.Context, token string, chainID int64) *domain.TokenPrice {
	sources := s.prices.Sources()
	readings := make([]*domain.TokenPrice, len(sources))

	var g errgroup.Group
	for i, name := range sources {
		g.Go(func() error {
			readings[i] = s.prices.GetPrice(ctx, token, chainID, name)
			return nil
		})
	}
	_ = g.Wait()

	var valid []*domain.TokenPrice
	for _, r := range readings {
		if r != nil {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	mean := weightedMean(valid)
	dev := meanAbsDeviationPct(valid, mean)
	observability.RecordPriceDeviation(dev)

	alertID := fmt.Sprintf("price_deviation_%s_%d", strings.ToUpper(token), chainID)
	if dev > s.cfg.Thresholds.PriceDeviationAlertPct {
		s.hub.RaiseAlert(domain.SeverityWarning, alertID,
			fmt.Sprintf("Price deviation of %.2f%% for %s on chain %d", dev, token, chainID))
	} else {
		s.hub.ClearAlert(alertID, fmt.Sprintf("Price sources for %s on chain %d agree again", token, chainID))
	}

	agg := &domain.TokenPrice{
		Token:      valid[0].Token,
		ChainID:    chainID,
		Price:      mean,
		Source:     domain.SourceAggregated,
		Confidence: clamp01(1 - dev/100),
		Timestamp:  s.nowMs(),
	}
	s.recordObservations(ctx, agg)
	return agg
}

// GetHistoricalPrice prices a token at a past instant through the first
// source that supports history.
func (s *Service) GetHistoricalPrice(ctx context.Context, token string, chainID int64, at time.Time) *domain.TokenPrice {
	return s.prices.GetHistoricalPrice(ctx, token, chainID, at.UnixMilli())
}

// GetPriceHistory returns the journaled observations of a token within
// [from, to], oldest first.
func (s *Service) GetPriceHistory(ctx context.Context, token string, chainID int64, from, to time.Time) ([]*domain.PriceObservation, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: history range ends before it starts", ErrInvalidRequest)
	}
	start := time.Now()
	obs, err := s.observations.GetByTimeRange(ctx, token, chainID, from.UnixMilli(), to.UnixMilli())
	observability.RecordDBQuery("observations", "get_by_time_range", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("read price history: %w", err)
	}
	return obs, nil
}

// recordObservations journals price readings. Failures are logged only.
func (s *Service) recordObservations(ctx context.Context, prices ...*domain.TokenPrice) {
	obs := make([]*domain.PriceObservation, 0, len(prices))
	for _, p := range prices {
		obs = append(obs, domain.NewPriceObservation(p))
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	start := time.Now()
	err := s.observations.InsertBulk(ctx, obs)
	observability.RecordDBQuery("observations", "insert_bulk", time.Since(start).Seconds(), err)
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		s.logger.Debugw("price observation already recorded", "token", prices[0].Token, "chain", prices[0].ChainID)
	case err != nil:
		s.logger.Warnw("record price observations failed", "token", prices[0].Token, "chain", prices[0].ChainID, "error", err)
	}
}

// weightedMean computes Σ(price·confidence)/Σconfidence, falling back to
// the plain mean when every confidence is zero.
func weightedMean(prices []*domain.TokenPrice) float64 {
	var sum, weights, plain float64
	for _, p := range prices {
		sum += p.Price * p.Confidence
		weights += p.Confidence
		plain += p.Price
	}
	if weights <= 0 {
		return plain / float64(len(prices))
	}
	return sum / weights
}

// meanAbsDeviationPct is the mean of |price - mean| / mean × 100.
func meanAbsDeviationPct(prices []*domain.TokenPrice, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	var total float64
	for _, p := range prices {
		total += math.Abs(p.Price-mean) / mean * 100
	}
	return total / float64(len(prices))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
