package stub

import (
	"context"

	"chain-gateway/internal/domain"
)

// GasSource serves fixed per-tier gas prices.
type GasSource struct {
	control
	name  string
	feeds map[int64]domain.GasPriceFeed
}

// NewGasSource creates an empty gas source.
func NewGasSource(name string) *GasSource {
	return &GasSource{
		name:  name,
		feeds: make(map[int64]domain.GasPriceFeed),
	}
}

// Name returns the source name.
func (s *GasSource) Name() string { return s.name }

// SetPrices sets the tier prices for chainID, in the chain's smallest fee unit.
func (s *GasSource) SetPrices(chainID int64, standard, fast, instant string) {
	s.mu.Lock()
	s.feeds[chainID] = domain.GasPriceFeed{
		ChainID:       chainID,
		Standard:      standard,
		Fast:          fast,
		Instant:       instant,
		EstimatedTime: domain.DefaultGasTimes,
	}
	s.mu.Unlock()
}

// Supports reports whether prices are registered for chainID.
func (s *GasSource) Supports(chainID int64) bool {
	s.mu.RLock()
	_, ok := s.feeds[chainID]
	s.mu.RUnlock()
	return ok
}

// GasPrices returns a copy of the stored feed.
func (s *GasSource) GasPrices(ctx context.Context, chainID int64) (*domain.GasPriceFeed, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	f, ok := s.feeds[chainID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	f.Timestamp = nowMs()
	return &f, nil
}
