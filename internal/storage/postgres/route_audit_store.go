package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chain-gateway/internal/domain"
	"chain-gateway/internal/storage"
)

// RouteAuditStore implements storage.RouteAuditStore using PostgreSQL.
type RouteAuditStore struct {
	pool *Pool
}

// NewRouteAuditStore creates a new RouteAuditStore.
func NewRouteAuditStore(pool *Pool) *RouteAuditStore {
	return &RouteAuditStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RouteAuditStore = (*RouteAuditStore)(nil)

const routeAuditColumns = `
	route_id, token_in, token_out, chain_in_id, chain_out_id, amount_in, expected_output,
	bridge_method, strategy, risk_level, risk_score, approved, risk_flags, created_at
`

// Insert adds a new audit record. Returns ErrDuplicateKey if route_id exists.
func (s *RouteAuditStore) Insert(ctx context.Context, r *domain.RouteAuditRecord) error {
	if r == nil || r.RouteID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO route_audits (` + routeAuditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	flags := r.RiskFlags
	if flags == nil {
		flags = []string{}
	}

	_, err := s.pool.Exec(ctx, query,
		r.RouteID,
		r.TokenIn,
		r.TokenOut,
		r.ChainInID,
		r.ChainOutID,
		r.AmountIn,
		r.ExpectedOutput,
		r.BridgeMethod,
		r.Strategy,
		r.RiskLevel,
		r.RiskScore,
		r.Approved,
		flags,
		r.CreatedAt,
	)
	if err != nil {
		return journalError("insert route audit", err)
	}
	return nil
}

// GetByRouteID retrieves the audit of a route. Returns ErrNotFound if not exists.
func (s *RouteAuditStore) GetByRouteID(ctx context.Context, routeID string) (*domain.RouteAuditRecord, error) {
	query := `SELECT ` + routeAuditColumns + ` FROM route_audits WHERE route_id = $1`

	r, err := scanRouteAudit(s.pool.QueryRow(ctx, query, routeID))
	if err != nil {
		return nil, journalError("get route audit", err)
	}
	return r, nil
}

// GetRecent retrieves up to limit records ordered by created_at DESC.
func (s *RouteAuditStore) GetRecent(ctx context.Context, limit int) ([]*domain.RouteAuditRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT ` + routeAuditColumns + `
		FROM route_audits
		ORDER BY created_at DESC, recorded_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent route audits: %w", err)
	}
	defer rows.Close()

	var records []*domain.RouteAuditRecord
	for rows.Next() {
		r, err := scanRouteAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan route audit row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate route audit rows: %w", err)
	}

	return records, nil
}

// scanRouteAudit scans a single row into a RouteAuditRecord.
func scanRouteAudit(row pgx.Row) (*domain.RouteAuditRecord, error) {
	var r domain.RouteAuditRecord

	err := row.Scan(
		&r.RouteID,
		&r.TokenIn,
		&r.TokenOut,
		&r.ChainInID,
		&r.ChainOutID,
		&r.AmountIn,
		&r.ExpectedOutput,
		&r.BridgeMethod,
		&r.Strategy,
		&r.RiskLevel,
		&r.RiskScore,
		&r.Approved,
		&r.RiskFlags,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
