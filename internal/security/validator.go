// Package security audits transfer routes against a fixed checklist.
package security

import (
	"strings"
	"time"

	"chain-gateway/internal/config"
	"chain-gateway/internal/domain"
	"chain-gateway/internal/observability"
)

// Risk flags, one per failed check, in check order.
const (
	FlagHighSlippage          = "High slippage"
	FlagInsufficientLiquidity = "Insufficient liquidity"
	FlagHighGas               = "High gas costs"
	FlagBridgeNotVerified     = "Bridge not verified"
	FlagOracleUnhealthy       = "Oracle unhealthy"
	FlagUnverifiedContract    = "Unverified contract"
)

// OracleHealth reports whether enough price oracles are currently healthy.
type OracleHealth interface {
	OraclesHealthy() bool
}

// Options configures a Validator.
type Options struct {
	Thresholds        config.Thresholds
	AuditedBridges    []string
	VerifiedProtocols []string
	Oracles           OracleHealth // nil means always healthy
	Now               func() time.Time
}

// Validator scores routes. It never fetches market data: every check reads
// fields already on the route or the in-memory oracle health signal.
type Validator struct {
	thresholds config.Thresholds
	bridges    map[string]bool
	protocols  map[string]bool
	oracles    OracleHealth
	now        func() time.Time
}

// NewValidator creates a Validator.
func NewValidator(opts Options) *Validator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Validator{
		thresholds: opts.Thresholds,
		bridges:    lowerSet(opts.AuditedBridges),
		protocols:  lowerSet(opts.VerifiedProtocols),
		oracles:    opts.Oracles,
		now:        opts.Now,
	}
}

func lowerSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = true
	}
	return set
}

// Validate runs every check and derives the score and approval.
// A route over an unaudited bridge is never approved.
func (v *Validator) Validate(r *domain.TransferRoute) *domain.SecurityAudit {
	checks := domain.SecurityChecks{
		SlippageWithinThreshold: r.TotalSlippage <= v.thresholds.MaxSlippagePct,
		LiquidityAdequate:       r.LiquidityAdequate,
		GasCostAcceptable:       r.TotalGasCostUSD <= v.thresholds.MaxGasCostUSD,
		BridgeSecure:            v.BridgeAudited(r.BridgeMethod),
		OracleHealthy:           v.oracles == nil || v.oracles.OraclesHealthy(),
		ContractVerified:        v.contractsVerified(r),
	}

	ordered := []struct {
		passed bool
		flag   string
	}{
		{checks.SlippageWithinThreshold, FlagHighSlippage},
		{checks.LiquidityAdequate, FlagInsufficientLiquidity},
		{checks.GasCostAcceptable, FlagHighGas},
		{checks.BridgeSecure, FlagBridgeNotVerified},
		{checks.OracleHealthy, FlagOracleUnhealthy},
		{checks.ContractVerified, FlagUnverifiedContract},
	}

	flags := []string{}
	for _, c := range ordered {
		if !c.passed {
			flags = append(flags, c.flag)
		}
	}

	score := len(flags) * v.thresholds.RiskWeight
	approved := score <= v.thresholds.MaxApprovedRisk && checks.BridgeSecure
	observability.RecordAudit(score, approved)

	return &domain.SecurityAudit{
		RouteID:    r.ID,
		Checks:     checks,
		RiskFlags:  flags,
		RiskScore:  score,
		IsApproved: approved,
		Timestamp:  v.now().UnixMilli(),
	}
}

// BridgeAudited reports whether bridge is on the audited list. Same-chain
// routes carry domain.BridgeNone and pass.
func (v *Validator) BridgeAudited(bridge string) bool {
	b := strings.ToLower(strings.TrimSpace(bridge))
	return b == domain.BridgeNone || v.bridges[b]
}

func (v *Validator) contractsVerified(r *domain.TransferRoute) bool {
	for _, p := range r.SwapProtocols() {
		if !v.protocols[strings.ToLower(p)] {
			return false
		}
	}
	return true
}
