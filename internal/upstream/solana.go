package upstream

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"chain-gateway/internal/domain"
	"chain-gateway/internal/solana"
)

// Solana reads priority fees from a Solana JSON-RPC node. Gas prices are
// reported in micro-lamports per compute unit.
type Solana struct {
	rpc *solana.HTTPClient
}

// NewSolana creates a Solana fee reader for a JSON-RPC endpoint.
func NewSolana(endpoint string, opts ...solana.ClientOption) *Solana {
	return &Solana{rpc: solana.NewHTTPClient(endpoint, opts...)}
}

// Name returns "solana-rpc".
func (s *Solana) Name() string { return "solana-rpc" }

// Supports reports whether chainID is Solana.
func (s *Solana) Supports(chainID int64) bool {
	return chainID == domain.ChainSolana
}

// GasPrices maps recent prioritization fees to tiers: the 50th, 75th and
// 95th percentiles become standard, fast and instant.
func (s *Solana) GasPrices(ctx context.Context, chainID int64) (*domain.GasPriceFeed, error) {
	if !s.Supports(chainID) {
		return nil, fmt.Errorf("solana fees: unsupported chain %d", chainID)
	}

	fees, err := s.rpc.GetRecentPrioritizationFees(ctx)
	if err != nil {
		return nil, fmt.Errorf("getRecentPrioritizationFees: %w", err)
	}
	if len(fees) == 0 {
		return nil, fmt.Errorf("getRecentPrioritizationFees: empty result")
	}

	values := make([]uint64, len(fees))
	for i, f := range fees {
		values[i] = f.PrioritizationFee
	}
	slices.Sort(values)

	return &domain.GasPriceFeed{
		ChainID:       chainID,
		Standard:      strconv.FormatUint(percentile(values, 50), 10),
		Fast:          strconv.FormatUint(percentile(values, 75), 10),
		Instant:       strconv.FormatUint(percentile(values, 95), 10),
		EstimatedTime: domain.DefaultGasTimes,
		Timestamp:     time.Now().UnixMilli(),
	}, nil
}

// percentile uses nearest-rank on sorted values.
func percentile(sorted []uint64, p int) uint64 {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// Probe calls getHealth.
func (s *Solana) Probe(ctx context.Context) error {
	if err := s.rpc.GetHealth(ctx); err != nil {
		return fmt.Errorf("getHealth: %w", err)
	}
	return nil
}
