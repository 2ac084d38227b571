package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-gateway/internal/domain"
	"chain-gateway/internal/storage"
	"chain-gateway/internal/storage/postgres"
)

func newAudit(id string, createdAt int64) *domain.RouteAuditRecord {
	return &domain.RouteAuditRecord{
		RouteID:        id,
		TokenIn:        "ETH",
		TokenOut:       "USDC",
		ChainInID:      1,
		ChainOutID:     137,
		AmountIn:       "1.5",
		ExpectedOutput: "2991.0",
		BridgeMethod:   "stargate",
		Strategy:       "best_price",
		RiskLevel:      "medium",
		RiskScore:      20,
		Approved:       true,
		RiskFlags:      []string{"High gas costs"},
		CreatedAt:      createdAt,
	}
}

func TestRouteAuditStore_InsertAndGet(t *testing.T) {
	pool := newTestPool(t)

	store := postgres.NewRouteAuditStore(pool)
	ctx := context.Background()

	want := newAudit("route_1", 1700000000000)
	require.NoError(t, store.Insert(ctx, want))

	got, err := store.GetByRouteID(ctx, "route_1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRouteAuditStore_EmptyFlags(t *testing.T) {
	pool := newTestPool(t)

	store := postgres.NewRouteAuditStore(pool)
	ctx := context.Background()

	r := newAudit("route_clean", 1000)
	r.RiskFlags = nil
	require.NoError(t, store.Insert(ctx, r))

	got, err := store.GetByRouteID(ctx, "route_clean")
	require.NoError(t, err)
	assert.Empty(t, got.RiskFlags)
}

func TestRouteAuditStore_DuplicateKey(t *testing.T) {
	pool := newTestPool(t)

	store := postgres.NewRouteAuditStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newAudit("route_1", 1000)))

	err := store.Insert(ctx, newAudit("route_1", 2000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRouteAuditStore_NotFound(t *testing.T) {
	pool := newTestPool(t)

	store := postgres.NewRouteAuditStore(pool)

	_, err := store.GetByRouteID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRouteAuditStore_GetRecent(t *testing.T) {
	pool := newTestPool(t)

	store := postgres.NewRouteAuditStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newAudit("a", 1000)))
	require.NoError(t, store.Insert(ctx, newAudit("b", 3000)))
	require.NoError(t, store.Insert(ctx, newAudit("c", 2000)))

	recent, err := store.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].RouteID)
	assert.Equal(t, "c", recent[1].RouteID)

	_, err = store.GetRecent(ctx, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
