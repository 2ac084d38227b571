package memory

import (
	"context"
	"errors"
	"testing"

	"chain-gateway/internal/domain"
	"chain-gateway/internal/storage"
)

func auditRecord(id string, createdAt int64) *domain.RouteAuditRecord {
	return &domain.RouteAuditRecord{
		RouteID:        id,
		TokenIn:        "ETH",
		TokenOut:       "USDC",
		ChainInID:      1,
		ChainOutID:     137,
		AmountIn:       "1",
		ExpectedOutput: "1994",
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
	store := NewRouteAuditStore()
	ctx := context.Background()

	if err := store.Insert(ctx, auditRecord("route_1", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByRouteID(ctx, "route_1")
	if err != nil {
		t.Fatalf("GetByRouteID failed: %v", err)
	}
	if got.BridgeMethod != "stargate" {
		t.Errorf("Expected bridge stargate, got %s", got.BridgeMethod)
	}
	if len(got.RiskFlags) != 1 || got.RiskFlags[0] != "High gas costs" {
		t.Errorf("Unexpected risk flags: %v", got.RiskFlags)
	}

	// Returned copies do not alias stored state
	got.RiskFlags[0] = "mutated"
	again, _ := store.GetByRouteID(ctx, "route_1")
	if again.RiskFlags[0] != "High gas costs" {
		t.Errorf("Stored record was mutated through returned copy")
	}
}

func TestRouteAuditStore_DuplicateKey(t *testing.T) {
	store := NewRouteAuditStore()
	ctx := context.Background()

	if err := store.Insert(ctx, auditRecord("route_1", 1000)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, auditRecord("route_1", 2000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRouteAuditStore_NotFound(t *testing.T) {
	store := NewRouteAuditStore()

	_, err := store.GetByRouteID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRouteAuditStore_GetRecent(t *testing.T) {
	store := NewRouteAuditStore()
	ctx := context.Background()

	for i, ts := range []int64{1000, 3000, 2000, 3000} {
		id := []string{"a", "b", "c", "d"}[i]
		if err := store.Insert(ctx, auditRecord(id, ts)); err != nil {
			t.Fatalf("Insert %s failed: %v", id, err)
		}
	}

	recent, err := store.GetRecent(ctx, 3)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(recent))
	}

	// Newest first; ties resolved by latest insert
	want := []string{"d", "b", "c"}
	for i, r := range recent {
		if r.RouteID != want[i] {
			t.Errorf("recent[%d] = %s, want %s", i, r.RouteID, want[i])
		}
	}
}

func TestRouteAuditStore_InvalidInput(t *testing.T) {
	store := NewRouteAuditStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.RouteAuditRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty route id, got %v", err)
	}
	if _, err := store.GetRecent(ctx, 0); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero limit, got %v", err)
	}
}
