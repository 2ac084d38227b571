package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"chain-gateway/internal/address"
	"chain-gateway/internal/cache"
	"chain-gateway/internal/domain"
	"chain-gateway/internal/idhash"
	"chain-gateway/internal/observability"
	"chain-gateway/internal/route"
	"chain-gateway/internal/storage"
)

// GetQuote returns the price-ratio estimate for req without building a route.
func (s *Service) GetQuote(ctx context.Context, req domain.RouteRequest) (*domain.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return s.optimizer.Quote(ctx, req)
}

// GetOptimalRoute builds the best-price route for req with its quote and
// ranked alternatives, and audits it. A route that fails the audit is
// rejected with *SecurityRejectionError. Approved responses are cached per
// request fingerprint and announced as route_generated events.
func (s *Service) GetOptimalRoute(ctx context.Context, req domain.RouteRequest) (*domain.QuoteResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return cache.Fetch(ctx, s.loader, cache.Routes, idhash.RouteRequestKey(req),
		func(ctx context.Context) (*domain.QuoteResponse, error) {
			return s.buildQuoteResponse(ctx, req)
		})
}

func (s *Service) buildQuoteResponse(ctx context.Context, req domain.RouteRequest) (*domain.QuoteResponse, error) {
	quote, err := s.optimizer.Quote(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}

	optimal, err := s.optimizer.Optimize(ctx, req, domain.StrategyBestPrice)
	if err != nil {
		return nil, fmt.Errorf("optimal route: %w", err)
	}

	audit := s.validator.Validate(optimal)
	s.journalAudit(ctx, optimal, audit)
	if !audit.IsApproved {
		s.logger.Infow("route rejected", "route", optimal.ID, "score", audit.RiskScore, "flags", audit.RiskFlags)
		return nil, &SecurityRejectionError{Audit: audit}
	}

	alternatives := s.alternatives(ctx, req, optimal)

	s.hub.Emit(domain.Event{
		Type: domain.EventRouteGenerated,
		Data: map[string]any{
			"routeId":        optimal.ID,
			"tokenIn":        req.TokenIn,
			"tokenOut":       req.TokenOut,
			"chainInId":      req.ChainInID,
			"chainOutId":     req.ChainOutID,
			"amountIn":       req.AmountIn.String(),
			"expectedOutput": optimal.ExpectedOutput.String(),
			"bridgeMethod":   optimal.BridgeMethod,
			"alternatives":   len(alternatives),
		},
	})

	return &domain.QuoteResponse{
		Quote:        quote,
		Route:        optimal,
		Alternatives: alternatives,
		Risks:        audit.RiskFlags,
		Audit:        audit,
		Timestamp:    s.nowMs(),
	}, nil
}

// alternatives returns up to the configured number of ranked routes that
// differ from optimal. Failure to build any is not an error.
func (s *Service) alternatives(ctx context.Context, req domain.RouteRequest, optimal *domain.TransferRoute) []*domain.TransferRoute {
	limit := s.cfg.Routing.AlternativesLimit
	routes, err := s.optimizer.Alternatives(ctx, req, limit+1)
	if err != nil {
		s.logger.Debugw("no alternatives", "error", err)
		return []*domain.TransferRoute{}
	}

	sig := route.Signature(optimal)
	out := make([]*domain.TransferRoute, 0, limit)
	for _, r := range routes {
		if route.Signature(r) == sig {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out
}

// GetRouteRecommendation wraps GetOptimalRoute with an operation kind, a
// rationale and the gas cost saved against the best alternative.
func (s *Service) GetRouteRecommendation(ctx context.Context, req domain.RouteRequest) (*domain.Recommendation, error) {
	resp, err := s.GetOptimalRoute(ctx, req)
	if err != nil {
		return nil, err
	}

	op := domain.OperationSwap
	if req.CrossChain() {
		op = domain.OperationBridge
	}
	return &domain.Recommendation{
		Operation:      op,
		OptimalRoute:   resp.Route,
		Alternatives:   resp.Alternatives,
		Rationale:      rationale(resp.Route),
		EstimatedTime:  resp.Route.EstimatedTime,
		CostSavings:    costSavings(resp.Route, resp.Alternatives),
		RiskAssessment: resp.Audit,
	}, nil
}

func rationale(r *domain.TransferRoute) string {
	return fmt.Sprintf("Recommended route uses %s bridge with %.2f%% slippage and %.2f USD gas cost. Estimated time: %ds.",
		r.BridgeMethod, r.TotalSlippage, r.TotalGasCostUSD, r.EstimatedTime)
}

// costSavings compares gas USD with the best alternative. Zero when there is
// no alternative or it costs nothing.
func costSavings(optimal *domain.TransferRoute, alternatives []*domain.TransferRoute) domain.CostSavings {
	if len(alternatives) == 0 || alternatives[0].TotalGasCostUSD <= 0 {
		return domain.CostSavings{}
	}
	alt := alternatives[0].TotalGasCostUSD
	saved := alt - optimal.TotalGasCostUSD
	return domain.CostSavings{
		Percent:   saved / alt * 100,
		AmountUSD: saved,
	}
}

// ValidateRoute audits a caller-supplied route. The audit reads only the
// route and the in-memory oracle health.
func (s *Service) ValidateRoute(r *domain.TransferRoute) *domain.SecurityAudit {
	return s.validator.Validate(r)
}

// GetRouteAudit returns the journaled audit of a route built by this gateway.
func (s *Service) GetRouteAudit(ctx context.Context, routeID string) (*domain.RouteAuditRecord, error) {
	start := time.Now()
	rec, err := s.audits.GetByRouteID(ctx, routeID)
	observability.RecordDBQuery("audits", "get_by_route_id", time.Since(start).Seconds(), err)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("audit for route %s: %w", routeID, ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("read route audit: %w", err)
	}
	return rec, nil
}

// RecentAudits returns up to limit journaled audits, newest first.
func (s *Service) RecentAudits(ctx context.Context, limit int) ([]*domain.RouteAuditRecord, error) {
	start := time.Now()
	recs, err := s.audits.GetRecent(ctx, limit)
	observability.RecordDBQuery("audits", "get_recent", time.Since(start).Seconds(), err)
	if errors.Is(err, storage.ErrInvalidInput) {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("read recent audits: %w", err)
	}
	return recs, nil
}

func (s *Service) journalAudit(ctx context.Context, r *domain.TransferRoute, a *domain.SecurityAudit) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	start := time.Now()
	err := s.audits.Insert(ctx, domain.NewRouteAuditRecord(r, a))
	observability.RecordDBQuery("audits", "insert", time.Since(start).Seconds(), err)
	if err != nil {
		s.logger.Warnw("journal route audit failed", "route", r.ID, "error", err)
	}
}

// ValidateOperation checks caller parameters and reports every problem
// found. Invalid input is a result, never an error.
func (s *Service) ValidateOperation(ctx context.Context, kind domain.OperationKind, params domain.OperationParams) *domain.OperationValidation {
	errs := []string{}

	if !kind.IsValid() {
		errs = append(errs, fmt.Sprintf("Unknown operation %q", kind))
	}
	if _, err := address.ParsePositiveAmount(params.Amount); err != nil {
		errs = append(errs, "Invalid amount")
	}
	if err := address.Validate(params.ChainID, params.Recipient); err != nil {
		errs = append(errs, "Invalid recipient address")
	}
	if params.Slippage < 0 {
		errs = append(errs, "Slippage must not be negative")
	}
	if params.Slippage > s.cfg.Thresholds.MaxOperationSlippage {
		errs = append(errs, fmt.Sprintf("Slippage too high (>%g%%)", s.cfg.Thresholds.MaxOperationSlippage))
	}
	if params.GasPrice != "" {
		if msg := s.checkGasPrice(ctx, params.ChainID, params.GasPrice); msg != "" {
			errs = append(errs, msg)
		}
	}

	return &domain.OperationValidation{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// checkGasPrice compares a proposed gas price with the network's instant
// tier. Without a current feed the price is accepted.
func (s *Service) checkGasPrice(ctx context.Context, chainID int64, proposed string) string {
	gp, err := decimal.NewFromString(proposed)
	if err != nil || gp.IsNegative() {
		return "Invalid gas price"
	}
	feed := s.GetGasPrices(ctx, chainID)
	if feed == nil {
		return ""
	}
	instant, err := decimal.NewFromString(feed.Instant)
	if err != nil {
		return ""
	}
	ceiling := instant.Mul(decimal.NewFromFloat(s.cfg.Thresholds.GasPriceCeilingFactor))
	if gp.GreaterThan(ceiling) {
		return "Gas price significantly higher than current network"
	}
	return ""
}
