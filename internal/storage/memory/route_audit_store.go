package memory

import (
	"context"
	"sort"
	"sync"

	"chain-gateway/internal/domain"
	"chain-gateway/internal/storage"
)

// RouteAuditStore is an in-memory implementation of storage.RouteAuditStore.
type RouteAuditStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.RouteAuditRecord // keyed by route_id
	order []string                            // insertion order
}

// NewRouteAuditStore creates a new in-memory route audit store.
func NewRouteAuditStore() *RouteAuditStore {
	return &RouteAuditStore{
		data: make(map[string]*domain.RouteAuditRecord),
	}
}

var _ storage.RouteAuditStore = (*RouteAuditStore)(nil)

// Insert adds a new audit record. Returns ErrDuplicateKey if route_id exists.
func (s *RouteAuditStore) Insert(_ context.Context, r *domain.RouteAuditRecord) error {
	if r == nil || r.RouteID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RouteID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RouteID] = copyAudit(r)
	s.order = append(s.order, r.RouteID)
	return nil
}

// GetByRouteID retrieves the audit of a route. Returns ErrNotFound if not exists.
func (s *RouteAuditStore) GetByRouteID(_ context.Context, routeID string) (*domain.RouteAuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[routeID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyAudit(r), nil
}

// GetRecent retrieves up to limit records ordered by created_at DESC.
// Records with equal timestamps keep reverse insertion order.
func (s *RouteAuditStore) GetRecent(_ context.Context, limit int) ([]*domain.RouteAuditRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RouteAuditRecord, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		result = append(result, copyAudit(s.data[s.order[i]]))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt > result[j].CreatedAt
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func copyAudit(r *domain.RouteAuditRecord) *domain.RouteAuditRecord {
	c := *r
	c.RiskFlags = append([]string(nil), r.RiskFlags...)
	return &c
}
