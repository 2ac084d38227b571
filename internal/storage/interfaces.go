// Package storage defines the append-only journals kept by the gateway.
package storage

import (
	"context"
	"errors"

	"chain-gateway/internal/domain"
)

// Journal errors shared by every backend.
var (
	// ErrNotFound means no record carries the requested key.
	ErrNotFound = errors.New("journal: record not found")

	// ErrDuplicateKey means the key is already journaled. Records are never
	// overwritten.
	ErrDuplicateKey = errors.New("journal: duplicate key")

	// ErrInvalidInput means the record or query failed validation before
	// reaching the backend.
	ErrInvalidInput = errors.New("journal: invalid input")
)

// RouteAuditStore provides access to route_audits storage.
type RouteAuditStore interface {
	// Insert adds a new audit record. Returns ErrDuplicateKey if route_id exists.
	Insert(ctx context.Context, r *domain.RouteAuditRecord) error

	// GetByRouteID retrieves the audit of a route. Returns ErrNotFound if not exists.
	GetByRouteID(ctx context.Context, routeID string) (*domain.RouteAuditRecord, error)

	// GetRecent retrieves up to limit records, newest first.
	GetRecent(ctx context.Context, limit int) ([]*domain.RouteAuditRecord, error)
}

// PriceObservationStore provides access to price_observations storage.
type PriceObservationStore interface {
	// InsertBulk adds multiple observations. Fails entire batch on duplicate
	// (token, chain_id, source, timestamp_ms).
	InsertBulk(ctx context.Context, obs []*domain.PriceObservation) error

	// GetByTimeRange retrieves observations of a token on a chain within
	// [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, token string, chainID int64, start, end int64) ([]*domain.PriceObservation, error)
}
