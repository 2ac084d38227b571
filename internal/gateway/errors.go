package gateway

import (
	"errors"
	"fmt"
	"strings"

	"chain-gateway/internal/domain"
)

// ErrNoData is returned when no source could supply a required input.
// It is domain.ErrNoData, so route errors match it too.
var ErrNoData = domain.ErrNoData

// ErrInvalidRequest wraps caller input errors.
var ErrInvalidRequest = errors.New("invalid request")

// SecurityRejectionError reports a route that failed the security gate.
// The rejected route is never returned to the caller.
type SecurityRejectionError struct {
	Audit *domain.SecurityAudit
}

func (e *SecurityRejectionError) Error() string {
	return fmt.Sprintf("route failed security checks: %s (risk score %d)",
		strings.Join(e.Audit.RiskFlags, ", "), e.Audit.RiskScore)
}
