package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"chain-gateway/internal/domain"
	"chain-gateway/internal/storage"
)

// observationKey is the unique key for price observations.
type observationKey struct {
	token       string
	chainID     int64
	source      string
	timestampMs int64
}

// seriesKey groups observations of one token on one chain.
type seriesKey struct {
	token   string
	chainID int64
}

// PriceObservationStore is an in-memory implementation of storage.PriceObservationStore.
type PriceObservationStore struct {
	mu     sync.RWMutex
	keys   map[observationKey]struct{}
	series map[seriesKey][]*domain.PriceObservation
}

// NewPriceObservationStore creates a new in-memory price observation store.
func NewPriceObservationStore() *PriceObservationStore {
	return &PriceObservationStore{
		keys:   make(map[observationKey]struct{}),
		series: make(map[seriesKey][]*domain.PriceObservation),
	}
}

var _ storage.PriceObservationStore = (*PriceObservationStore)(nil)

// InsertBulk adds multiple observations atomically. Fails entire batch on any duplicate.
func (s *PriceObservationStore) InsertBulk(_ context.Context, obs []*domain.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check all keys first (atomic: all-or-nothing)
	batch := make(map[observationKey]struct{}, len(obs))
	for _, o := range obs {
		if o == nil || o.Token == "" {
			return storage.ErrInvalidInput
		}
		k := keyOf(o)
		if _, exists := s.keys[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[k]; exists {
			return storage.ErrDuplicateKey
		}
		batch[k] = struct{}{}
	}

	for _, o := range obs {
		c := *o
		c.Token = strings.ToUpper(c.Token)
		s.keys[keyOf(&c)] = struct{}{}
		sk := seriesKey{c.Token, c.ChainID}
		s.series[sk] = append(s.series[sk], &c)
	}
	return nil
}

// GetByTimeRange retrieves observations within [start, end] (inclusive), ordered by timestamp ASC.
func (s *PriceObservationStore) GetByTimeRange(_ context.Context, token string, chainID int64, start, end int64) ([]*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceObservation
	for _, o := range s.series[seriesKey{strings.ToUpper(token), chainID}] {
		if o.TimestampMs >= start && o.TimestampMs <= end {
			c := *o
			result = append(result, &c)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

func keyOf(o *domain.PriceObservation) observationKey {
	return observationKey{
		token:       strings.ToUpper(o.Token),
		chainID:     o.ChainID,
		source:      o.Source,
		timestampMs: o.TimestampMs,
	}
}
