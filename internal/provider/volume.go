package provider

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"chain-gateway/internal/domain"
)

// VolumeAdapter reads trading volume from the first source that answers.
type VolumeAdapter struct {
	base
	sources []VolumeSource
}

// NewVolumeAdapter creates a VolumeAdapter. Sources are tried in order.
func NewVolumeAdapter(sources []VolumeSource, timeout time.Duration, logger *zap.SugaredLogger) *VolumeAdapter {
	return &VolumeAdapter{
		base:    newBase("volume", timeout, logger),
		sources: sources,
	}
}

// GetVolume returns the pair volume for the timeframe, or nil.
func (a *VolumeAdapter) GetVolume(ctx context.Context, pair string, chainID int64, tf domain.Timeframe) *domain.VolumeData {
	for _, src := range a.sources {
		v := call(ctx, &a.base, src.Name(), func(ctx context.Context) (*domain.VolumeData, error) {
			return src.Volume(ctx, pair, chainID, tf)
		})
		if v != nil {
			return v
		}
	}
	return nil
}

// GetChainVolume returns chain-wide 24h activity, or nil.
func (a *VolumeAdapter) GetChainVolume(ctx context.Context, chainID int64) *domain.ChainVolume {
	for _, src := range a.sources {
		v := call(ctx, &a.base, src.Name(), func(ctx context.Context) (*domain.ChainVolume, error) {
			return src.ChainVolume(ctx, chainID)
		})
		if v != nil {
			if v.ChainName == "" {
				if c, ok := domain.LookupChain(chainID); ok {
					v.ChainName = c.Name
				}
			}
			return v
		}
	}
	return nil
}

// GetTrendingPairs returns up to limit pairs ordered by USD volume descending.
func (a *VolumeAdapter) GetTrendingPairs(ctx context.Context, chainID int64, limit int) []domain.PairVolume {
	cv := a.GetChainVolume(ctx, chainID)
	if cv == nil {
		return nil
	}
	return TopPairs(cv.TopPairs, limit)
}

// TopPairs sorts a copy of pairs by USD volume descending and truncates to limit.
func TopPairs(pairs []domain.PairVolume, limit int) []domain.PairVolume {
	out := append([]domain.PairVolume(nil), pairs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VolumeUSD > out[j].VolumeUSD
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
