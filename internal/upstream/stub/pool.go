package stub

import (
	"context"

	"chain-gateway/internal/domain"
)

// PoolSource is one DEX protocol's pools backed by a map.
type PoolSource struct {
	control
	name  string
	pools map[string]domain.LiquidityInfo
}

// NewPoolSource creates an empty pool source for protocol name.
func NewPoolSource(name string) *PoolSource {
	return &PoolSource{
		name:  name,
		pools: make(map[string]domain.LiquidityInfo),
	}
}

// Name returns the protocol name.
func (s *PoolSource) Name() string { return s.name }

// SetPool registers a pool. Lookups match the pair in either order.
func (s *PoolSource) SetPool(tokenA, tokenB string, chainID int64, liquidity domain.Amount, fee float64) {
	s.mu.Lock()
	s.pools[pairKey(tokenA, tokenB, chainID)] = domain.LiquidityInfo{
		PoolAddress: "0x" + s.name + "-" + pairKey(tokenA, tokenB, chainID),
		TokenA:      tokenA,
		TokenB:      tokenB,
		ChainID:     chainID,
		Liquidity:   liquidity,
		Fee:         fee,
		Protocol:    s.name,
	}
	s.mu.Unlock()
}

// RemovePool deletes a pool.
func (s *PoolSource) RemovePool(tokenA, tokenB string, chainID int64) {
	s.mu.Lock()
	delete(s.pools, pairKey(tokenA, tokenB, chainID))
	s.mu.Unlock()
}

// Pool returns a copy of the stored pool.
func (s *PoolSource) Pool(ctx context.Context, tokenA, tokenB string, chainID int64) (*domain.LiquidityInfo, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	p, ok := s.pools[pairKey(tokenA, tokenB, chainID)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	p.Timestamp = nowMs()
	return &p, nil
}
