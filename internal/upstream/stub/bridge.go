package stub

import (
	"context"

	"chain-gateway/internal/domain"
)

// BridgeSource quotes a fixed fee and latency for every chain pair.
type BridgeSource struct {
	control
	name      string
	fee       float64
	latency   int
	gas       uint64
	liquidity domain.Amount
}

// NewBridgeSource creates a bridge quoting fee (fraction) and latency (seconds).
func NewBridgeSource(name string, fee float64, latency int, gas uint64, liquidity domain.Amount) *BridgeSource {
	return &BridgeSource{
		name:      name,
		fee:       fee,
		latency:   latency,
		gas:       gas,
		liquidity: liquidity,
	}
}

// Name returns the bridge name.
func (s *BridgeSource) Name() string { return s.name }

// SetFee changes the quoted fee.
func (s *BridgeSource) SetFee(fee float64) {
	s.mu.Lock()
	s.fee = fee
	s.mu.Unlock()
}

// Quote returns the fixed quote. Same-chain transfers are not served.
func (s *BridgeSource) Quote(ctx context.Context, asset string, fromChain, toChain int64, amount domain.Amount) (*domain.BridgeQuote, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if fromChain == toChain {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if amount.GreaterThan(s.liquidity) {
		return nil, ErrNotFound
	}
	return &domain.BridgeQuote{
		Bridge:         s.name,
		Asset:          asset,
		FromChainID:    fromChain,
		ToChainID:      toChain,
		Fee:            s.fee,
		LatencySeconds: s.latency,
		GasEstimate:    s.gas,
		Liquidity:      s.liquidity,
	}, nil
}
