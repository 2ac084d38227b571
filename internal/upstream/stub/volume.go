package stub

import (
	"context"
	"fmt"

	"chain-gateway/internal/domain"
)

// VolumeSource serves fixed pair and chain volumes.
type VolumeSource struct {
	control
	name   string
	pairs  map[string]domain.VolumeData
	chains map[int64]domain.ChainVolume
}

// NewVolumeSource creates an empty volume source.
func NewVolumeSource(name string) *VolumeSource {
	return &VolumeSource{
		name:   name,
		pairs:  make(map[string]domain.VolumeData),
		chains: make(map[int64]domain.ChainVolume),
	}
}

// Name returns the source name.
func (s *VolumeSource) Name() string { return s.name }

func volumeKey(pair string, chainID int64, tf domain.Timeframe) string {
	return fmt.Sprintf("%s|%s", tokenKey(pair, chainID), tf)
}

// SetVolume sets the volume for pair over timeframe tf.
func (s *VolumeSource) SetVolume(pair string, chainID int64, tf domain.Timeframe, volume domain.Amount, volumeUSD float64, trades int64) {
	s.mu.Lock()
	s.pairs[volumeKey(pair, chainID, tf)] = domain.VolumeData{
		Pair:      pair,
		ChainID:   chainID,
		Timeframe: tf,
		Volume:    volume,
		VolumeUSD: volumeUSD,
		Trades:    trades,
	}
	s.mu.Unlock()
}

// SetChainVolume sets chain-wide 24h activity.
func (s *VolumeSource) SetChainVolume(cv domain.ChainVolume) {
	s.mu.Lock()
	s.chains[cv.ChainID] = cv
	s.mu.Unlock()
}

// Volume returns the stored pair volume.
func (s *VolumeSource) Volume(ctx context.Context, pair string, chainID int64, tf domain.Timeframe) (*domain.VolumeData, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	v, ok := s.pairs[volumeKey(pair, chainID, tf)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	v.Timestamp = nowMs()
	return &v, nil
}

// ChainVolume returns the stored chain activity.
func (s *VolumeSource) ChainVolume(ctx context.Context, chainID int64) (*domain.ChainVolume, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	cv, ok := s.chains[chainID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	cv.TopPairs = append([]domain.PairVolume(nil), cv.TopPairs...)
	cv.Timestamp = nowMs()
	return &cv, nil
}
