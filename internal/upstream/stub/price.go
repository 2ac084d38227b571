package stub

import (
	"context"

	"chain-gateway/internal/domain"
)

// PriceSource is a named price feed backed by a map.
type PriceSource struct {
	control
	name       string
	confidence float64
	prices     map[string]float64
	history    map[string]float64
}

// NewPriceSource creates an empty price source reporting the given confidence.
func NewPriceSource(name string, confidence float64) *PriceSource {
	return &PriceSource{
		name:       name,
		confidence: confidence,
		prices:     make(map[string]float64),
		history:    make(map[string]float64),
	}
}

// Name returns the source name.
func (s *PriceSource) Name() string { return s.name }

// SetPrice sets the current USD price of token on chainID.
func (s *PriceSource) SetPrice(token string, chainID int64, price float64) {
	s.mu.Lock()
	s.prices[tokenKey(token, chainID)] = price
	s.mu.Unlock()
}

// SetHistoricalPrice sets the price returned for any historical lookup of token.
func (s *PriceSource) SetHistoricalPrice(token string, chainID int64, price float64) {
	s.mu.Lock()
	s.history[tokenKey(token, chainID)] = price
	s.mu.Unlock()
}

// Price returns the stored price.
func (s *PriceSource) Price(ctx context.Context, token string, chainID int64) (*domain.TokenPrice, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	p, ok := s.prices[tokenKey(token, chainID)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &domain.TokenPrice{
		Token:      token,
		ChainID:    chainID,
		Price:      p,
		Source:     s.name,
		Confidence: s.confidence,
		Timestamp:  nowMs(),
	}, nil
}

// HistoricalPrice returns the stored historical price stamped with timestampMs.
func (s *PriceSource) HistoricalPrice(ctx context.Context, token string, chainID int64, timestampMs int64) (*domain.TokenPrice, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	p, ok := s.history[tokenKey(token, chainID)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &domain.TokenPrice{
		Token:      token,
		ChainID:    chainID,
		Price:      p,
		Source:     s.name,
		Confidence: s.confidence,
		Timestamp:  timestampMs,
	}, nil
}
