package upstream

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"chain-gateway/internal/domain"
)

// GasPricer is the subset of *ethclient.Client used to read the fee market.
type GasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
}

// EVMGas derives gas tiers from each chain's node suggestions:
// standard = gas price, fast = price + tip, instant = price + 2 * tip.
type EVMGas struct {
	clients map[int64]GasPricer
}

// NewEVMGas creates an EVM gas source over the given chain clients.
func NewEVMGas(clients map[int64]GasPricer) *EVMGas {
	return &EVMGas{clients: clients}
}

// Name returns "evm-rpc".
func (g *EVMGas) Name() string { return "evm-rpc" }

// Supports reports whether a client is configured for chainID.
func (g *EVMGas) Supports(chainID int64) bool {
	_, ok := g.clients[chainID]
	return ok
}

// GasPrices reads the suggested price and priority tip. Chains without
// EIP-1559 report a zero tip, collapsing all tiers to the base price.
func (g *EVMGas) GasPrices(ctx context.Context, chainID int64) (*domain.GasPriceFeed, error) {
	client, ok := g.clients[chainID]
	if !ok {
		return nil, fmt.Errorf("evm gas: no rpc for chain %d", chainID)
	}

	price, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price chain %d: %w", chainID, err)
	}
	tip, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		tip = new(big.Int)
	}

	fast := new(big.Int).Add(price, tip)
	instant := new(big.Int).Add(fast, tip)

	return &domain.GasPriceFeed{
		ChainID:       chainID,
		Standard:      price.String(),
		Fast:          fast.String(),
		Instant:       instant.String(),
		EstimatedTime: domain.DefaultGasTimes,
		Timestamp:     time.Now().UnixMilli(),
	}, nil
}
