package provider

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chain-gateway/internal/domain"
)

// PriceAdapter resolves token prices across named sources with fallback.
type PriceAdapter struct {
	base
	sources map[string]PriceSource
	order   []string
}

// NewPriceAdapter creates a PriceAdapter. order lists source names in
// fallback order; names without a registered source are skipped.
func NewPriceAdapter(sources []PriceSource, order []string, timeout time.Duration, logger *zap.SugaredLogger) *PriceAdapter {
	m := make(map[string]PriceSource, len(sources))
	for _, s := range sources {
		m[strings.ToLower(s.Name())] = s
	}
	var resolved []string
	for _, name := range order {
		name = strings.ToLower(name)
		if _, ok := m[name]; ok {
			resolved = append(resolved, name)
		}
	}
	return &PriceAdapter{
		base:    newBase("price", timeout, logger),
		sources: m,
		order:   resolved,
	}
}

// Sources returns source names in fallback order.
func (a *PriceAdapter) Sources() []string {
	return append([]string(nil), a.order...)
}

// GetPrice returns the price from source, or from the first source in
// fallback order that answers when source is empty. nil if none answers.
func (a *PriceAdapter) GetPrice(ctx context.Context, token string, chainID int64, source string) *domain.TokenPrice {
	if source != "" {
		return a.fromSource(ctx, token, chainID, strings.ToLower(source))
	}
	for _, name := range a.order {
		if p := a.fromSource(ctx, token, chainID, name); p != nil {
			return p
		}
	}
	return nil
}

func (a *PriceAdapter) fromSource(ctx context.Context, token string, chainID int64, name string) *domain.TokenPrice {
	src, ok := a.sources[name]
	if !ok {
		return nil
	}
	p := call(ctx, &a.base, name, func(ctx context.Context) (*domain.TokenPrice, error) {
		return src.Price(ctx, token, chainID)
	})
	if p == nil || !validPrice(p.Price) {
		return nil
	}
	if p.Source == "" {
		p.Source = name
	}
	return p
}

// GetPrices resolves tokens concurrently. Tokens without a price are omitted.
func (a *PriceAdapter) GetPrices(ctx context.Context, tokens []string, chainID int64) map[string]*domain.TokenPrice {
	var (
		mu  sync.Mutex
		out = make(map[string]*domain.TokenPrice, len(tokens))
		g   errgroup.Group
	)
	for _, token := range tokens {
		g.Go(func() error {
			if p := a.GetPrice(ctx, token, chainID, ""); p != nil {
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

// GetHistoricalPrice returns the price at timestampMs from the first source
// that supports history.
func (a *PriceAdapter) GetHistoricalPrice(ctx context.Context, token string, chainID int64, timestampMs int64) *domain.TokenPrice {
	for _, name := range a.order {
		hs, ok := a.sources[name].(HistoricalPriceSource)
		if !ok {
			continue
		}
		p := call(ctx, &a.base, name, func(ctx context.Context) (*domain.TokenPrice, error) {
			return hs.HistoricalPrice(ctx, token, chainID, timestampMs)
		})
		if p != nil && validPrice(p.Price) {
			return p
		}
	}
	return nil
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
