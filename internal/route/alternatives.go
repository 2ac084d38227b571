package route

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"chain-gateway/internal/domain"
)

// Alternatives builds a route under every strategy concurrently and returns
// up to limit distinct routes ranked by expected output (desc), then gas USD
// (asc), then estimated time (asc). Individual strategy failures are
// tolerated; an error is returned only when every strategy fails.
func (o *Optimizer) Alternatives(ctx context.Context, req domain.RouteRequest, limit int) ([]*domain.TransferRoute, error) {
	if limit <= 0 {
		limit = o.routing.AlternativesLimit
	}

	var (
		mu     sync.Mutex
		routes []*domain.TransferRoute
		errs   []error
		g      errgroup.Group
	)
	for _, strategy := range domain.AllStrategies {
		g.Go(func() error {
			r, err := o.Optimize(ctx, req, strategy)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.logger.Debugw("strategy failed", "strategy", strategy, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", strategy, err))
				return nil
			}
			routes = append(routes, r)
			return nil
		})
	}
	_ = g.Wait()

	if len(routes) == 0 {
		return nil, errors.Join(errs...)
	}

	Rank(routes)
	routes = Distinct(routes)
	if len(routes) > limit {
		routes = routes[:limit]
	}
	return routes, nil
}

// Rank sorts routes best first. Ties on every key fall back to strategy
// order for determinism.
func Rank(routes []*domain.TransferRoute) {
	order := make(map[domain.Strategy]int, len(domain.AllStrategies))
	for i, s := range domain.AllStrategies {
		order[s] = i
	}
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if c := a.ExpectedOutput.Cmp(b.ExpectedOutput); c != 0 {
			return c > 0
		}
		if a.TotalGasCostUSD != b.TotalGasCostUSD {
			return a.TotalGasCostUSD < b.TotalGasCostUSD
		}
		if a.EstimatedTime != b.EstimatedTime {
			return a.EstimatedTime < b.EstimatedTime
		}
		return order[a.Strategy] < order[b.Strategy]
	})
}

// Signature identifies a route's plan: the protocol of every step.
func Signature(r *domain.TransferRoute) string {
	parts := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		parts[i] = fmt.Sprintf("%s:%s:%d", s.Kind, strings.ToLower(s.Protocol), s.From.ChainID)
	}
	return strings.Join(parts, ">")
}

// Distinct drops routes whose plan repeats an earlier route's, preserving order.
func Distinct(routes []*domain.TransferRoute) []*domain.TransferRoute {
	seen := make(map[string]bool, len(routes))
	out := routes[:0]
	for _, r := range routes {
		sig := Signature(r)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, r)
	}
	return out
}
