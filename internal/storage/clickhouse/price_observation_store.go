package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"chain-gateway/internal/domain"
	"chain-gateway/internal/storage"
)

// PriceObservationStore implements storage.PriceObservationStore using ClickHouse.
type PriceObservationStore struct {
	conn *Conn
}

// NewPriceObservationStore creates a new PriceObservationStore.
func NewPriceObservationStore(conn *Conn) *PriceObservationStore {
	return &PriceObservationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceObservationStore = (*PriceObservationStore)(nil)

// InsertBulk adds multiple observations. Fails entire batch on duplicate
// (token, chain_id, source, timestamp_ms). MergeTree does not enforce keys,
// so duplicates are checked before the batch is sent.
func (s *PriceObservationStore) InsertBulk(ctx context.Context, obs []*domain.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}

	type key struct {
		token       string
		chainID     int64
		source      string
		timestampMs int64
	}
	seen := make(map[key]struct{}, len(obs))
	for _, o := range obs {
		if o == nil || o.Token == "" {
			return storage.ErrInvalidInput
		}
		k := key{strings.ToUpper(o.Token), o.ChainID, o.Source, o.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for k := range seen {
		exists, err := s.exists(ctx, k.token, k.chainID, k.source, k.timestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_observations (
			token, chain_id, source, timestamp_ms, price, confidence
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range obs {
		err = batch.Append(
			strings.ToUpper(o.Token), o.ChainID, o.Source,
			uint64(o.TimestampMs), o.Price, o.Confidence,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves observations within [start, end] (inclusive), ordered by timestamp ASC.
func (s *PriceObservationStore) GetByTimeRange(ctx context.Context, token string, chainID int64, start, end int64) ([]*domain.PriceObservation, error) {
	query := `
		SELECT token, chain_id, source, timestamp_ms, price, confidence
		FROM price_observations
		WHERE token = ? AND chain_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, source ASC
	`

	if start < 0 {
		start = 0
	}
	if end < start {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, query, strings.ToUpper(token), chainID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPriceObservations(rows)
}

func (s *PriceObservationStore) exists(ctx context.Context, token string, chainID int64, source string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM price_observations
		WHERE token = ? AND chain_id = ? AND source = ? AND timestamp_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, token, chainID, source, uint64(timestampMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanPriceObservations(rows chRows) ([]*domain.PriceObservation, error) {
	var obs []*domain.PriceObservation

	for rows.Next() {
		var o domain.PriceObservation
		var timestampMs uint64

		err := rows.Scan(
			&o.Token, &o.ChainID, &o.Source,
			&timestampMs, &o.Price, &o.Confidence,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price observation row: %w", err)
		}

		o.TimestampMs = int64(timestampMs)
		obs = append(obs, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price observation rows: %w", err)
	}

	return obs, nil
}
