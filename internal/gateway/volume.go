package gateway

import (
	"context"

	"chain-gateway/internal/cache"
	"chain-gateway/internal/domain"
	"chain-gateway/internal/provider"
)

// trendingLimit is the size of the trending list when not configured.
const trendingLimit = 5

// GetVolumeData returns the cached volume of a pair over tf, or nil.
func (s *Service) GetVolumeData(ctx context.Context, pair string, chainID int64, tf domain.Timeframe) *domain.VolumeData {
	v, _ := cache.Fetch(ctx, s.loader, cache.Volume, cache.Key("volume", pair, chainID, string(tf)),
		func(ctx context.Context) (*domain.VolumeData, error) {
			return s.volume.GetVolume(ctx, pair, chainID, tf), nil
		})
	return v
}

// getChainVolume returns the cached chain-wide 24h volume, or nil.
func (s *Service) getChainVolume(ctx context.Context, chainID int64) *domain.ChainVolume {
	v, _ := cache.Fetch(ctx, s.loader, cache.Volume, cache.Key("chain_volume", chainID),
		func(ctx context.Context) (*domain.ChainVolume, error) {
			return s.volume.GetChainVolume(ctx, chainID), nil
		})
	return v
}

// AnalyzeMarketActivity summarises a chain's 24h volume with the top pairs
// by USD volume as the trending list. Nil when no volume source answered.
func (s *Service) AnalyzeMarketActivity(ctx context.Context, chainID int64) *domain.MarketActivity {
	cv := s.getChainVolume(ctx, chainID)
	if cv == nil {
		return nil
	}

	limit := s.cfg.TrendingLimit
	if limit <= 0 {
		limit = trendingLimit
	}
	return &domain.MarketActivity{
		ChainID:           chainID,
		TotalVolumeUSD24h: cv.TotalVolumeUSD24h,
		TxCount24h:        cv.TxCount24h,
		Trending:          provider.TopPairs(cv.TopPairs, limit),
		Timestamp:         s.nowMs(),
	}
}
