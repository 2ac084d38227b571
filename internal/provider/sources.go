// Package provider implements the read-only data adapters of the gateway.
//
// Each adapter wraps one or more upstream sources. A failing upstream call is
// logged, counted and reported to the caller as an absent result, never as an
// error: callers fall back or degrade instead of failing.
package provider

import (
	"context"

	"chain-gateway/internal/domain"
)

// PriceSource is a single named price feed (oracle, DEX spot, market index).
type PriceSource interface {
	Name() string
	Price(ctx context.Context, token string, chainID int64) (*domain.TokenPrice, error)
}

// HistoricalPriceSource can price a token at a past instant.
type HistoricalPriceSource interface {
	HistoricalPrice(ctx context.Context, token string, chainID int64, timestampMs int64) (*domain.TokenPrice, error)
}

// PoolSource reads a single DEX protocol's pool for a pair.
type PoolSource interface {
	Name() string
	Pool(ctx context.Context, tokenA, tokenB string, chainID int64) (*domain.LiquidityInfo, error)
}

// GasSource reads current gas prices for the chains it supports.
type GasSource interface {
	Name() string
	Supports(chainID int64) bool
	GasPrices(ctx context.Context, chainID int64) (*domain.GasPriceFeed, error)
}

// VolumeSource reads pair and chain trading volume.
type VolumeSource interface {
	Name() string
	Volume(ctx context.Context, pair string, chainID int64, tf domain.Timeframe) (*domain.VolumeData, error)
	ChainVolume(ctx context.Context, chainID int64) (*domain.ChainVolume, error)
}

// BridgeSource quotes one bridge protocol.
type BridgeSource interface {
	Name() string
	Quote(ctx context.Context, asset string, fromChain, toChain int64, amount domain.Amount) (*domain.BridgeQuote, error)
}

// Prober is implemented by upstreams that can report their own liveness.
type Prober interface {
	Probe(ctx context.Context) error
}
