package memory

import (
	"context"
	"errors"
	"testing"

	"chain-gateway/internal/domain"
	"chain-gateway/internal/storage"
)

func TestPriceObservationStore_InsertBulkAndGet(t *testing.T) {
	store := NewPriceObservationStore()
	ctx := context.Background()

	obs := []*domain.PriceObservation{
		{Token: "ETH", ChainID: 1, Source: "aggregated", TimestampMs: 2000, Price: 2010, Confidence: 0.98},
		{Token: "eth", ChainID: 1, Source: "aggregated", TimestampMs: 1000, Price: 2000, Confidence: 0.97},
		{Token: "ETH", ChainID: 137, Source: "aggregated", TimestampMs: 1500, Price: 2005, Confidence: 0.9},
	}

	if err := store.InsertBulk(ctx, obs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "eth", 1, 0, 5000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 observations, got %d", len(result))
	}
	if result[0].TimestampMs != 1000 || result[1].TimestampMs != 2000 {
		t.Errorf("Expected ascending timestamps, got %d, %d", result[0].TimestampMs, result[1].TimestampMs)
	}
	if result[0].Token != "ETH" {
		t.Errorf("Expected normalized token ETH, got %s", result[0].Token)
	}
}

func TestPriceObservationStore_DuplicateKey(t *testing.T) {
	store := NewPriceObservationStore()
	ctx := context.Background()

	obs := []*domain.PriceObservation{
		{Token: "ETH", ChainID: 1, Source: "chainlink", TimestampMs: 1000, Price: 2000},
	}

	if err := store.InsertBulk(ctx, obs); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, obs)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPriceObservationStore_IntraBatchDuplicate(t *testing.T) {
	store := NewPriceObservationStore()
	ctx := context.Background()

	obs := []*domain.PriceObservation{
		{Token: "ETH", ChainID: 1, Source: "chainlink", TimestampMs: 1000, Price: 2000},
		{Token: "ETH", ChainID: 1, Source: "chainlink", TimestampMs: 2000, Price: 2001},
		{Token: "ETH", ChainID: 1, Source: "chainlink", TimestampMs: 1000, Price: 2002}, // duplicate key
	}

	err := store.InsertBulk(ctx, obs)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	// Nothing from the failed batch is visible
	result, _ := store.GetByTimeRange(ctx, "ETH", 1, 0, 5000)
	if len(result) != 0 {
		t.Errorf("Expected 0 observations after failed batch, got %d", len(result))
	}
}

func TestPriceObservationStore_SameTimestampDifferentSource(t *testing.T) {
	store := NewPriceObservationStore()
	ctx := context.Background()

	obs := []*domain.PriceObservation{
		{Token: "ETH", ChainID: 1, Source: "chainlink", TimestampMs: 1000, Price: 2000},
		{Token: "ETH", ChainID: 1, Source: "coingecko", TimestampMs: 1000, Price: 2001},
	}

	if err := store.InsertBulk(ctx, obs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
}

func TestPriceObservationStore_TimeRangeInclusive(t *testing.T) {
	store := NewPriceObservationStore()
	ctx := context.Background()

	var obs []*domain.PriceObservation
	for ts := int64(1000); ts <= 5000; ts += 1000 {
		obs = append(obs, &domain.PriceObservation{Token: "SOL", ChainID: 101, Source: "aggregated", TimestampMs: ts, Price: 150})
	}
	if err := store.InsertBulk(ctx, obs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "SOL", 101, 2000, 4000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 3 {
		t.Errorf("Expected 3 observations in [2000, 4000], got %d", len(result))
	}
}

func TestPriceObservationStore_InvalidInput(t *testing.T) {
	store := NewPriceObservationStore()

	err := store.InsertBulk(context.Background(), []*domain.PriceObservation{{ChainID: 1}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
