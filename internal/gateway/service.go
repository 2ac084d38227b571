// Package gateway is the multi-chain market-data service: cached lookups
// over the provider adapters, multi-source price reconciliation, route
// construction behind a security gate, and dependency health tracking.
//
// A Service is constructed once and shared; every method is safe for
// concurrent use. The only shared mutable state is the cache, the health
// maps and the alert registry held by the notification hub.
package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chain-gateway/internal/cache"
	"chain-gateway/internal/config"
	"chain-gateway/internal/domain"
	"chain-gateway/internal/logging"
	"chain-gateway/internal/notify"
	"chain-gateway/internal/provider"
	"chain-gateway/internal/route"
	"chain-gateway/internal/security"
	"chain-gateway/internal/storage"
	"chain-gateway/internal/storage/memory"
)

// PriceProvider reads token prices from named sources.
type PriceProvider interface {
	Sources() []string
	GetPrice(ctx context.Context, token string, chainID int64, source string) *domain.TokenPrice
	GetHistoricalPrice(ctx context.Context, token string, chainID int64, timestampMs int64) *domain.TokenPrice
}

// LiquidityProvider lists pools for a pair, deepest first.
type LiquidityProvider interface {
	GetPools(ctx context.Context, tokenA, tokenB string, chainID int64) []*domain.LiquidityInfo
}

// GasProvider reads per-tier gas prices.
type GasProvider interface {
	GetGasPrices(ctx context.Context, chainID int64) *domain.GasPriceFeed
}

// VolumeProvider reads pair and chain volume.
type VolumeProvider interface {
	GetVolume(ctx context.Context, pair string, chainID int64, tf domain.Timeframe) *domain.VolumeData
	GetChainVolume(ctx context.Context, chainID int64) *domain.ChainVolume
}

// Deps are the collaborators of a Service. Prices, Liquidity, Gas, Volume
// and Bridges are required; the rest are optional.
type Deps struct {
	Prices    PriceProvider
	Liquidity LiquidityProvider
	Gas       GasProvider
	Volume    VolumeProvider
	Bridges   route.BridgeQuoter

	// Probes used by the health loop, keyed by monitored name.
	OracleProbes map[string]provider.Prober
	BridgeProbes map[string]provider.Prober

	Remote       cache.RemoteTier            // nil: in-process cache only
	Hub          *notify.Hub                 // nil: a private hub is created
	Audits       storage.RouteAuditStore     // nil: in-memory journal
	Observations storage.PriceObservationStore // nil: in-memory journal
}

// Options are non-collaborator settings.
type Options struct {
	Logger *zap.SugaredLogger
	Now    func() time.Time
	NewID  func() string // route ids, for tests
}

// Service implements the gateway operations.
type Service struct {
	cfg *config.Config

	prices    PriceProvider
	liquidity LiquidityProvider
	gas       GasProvider
	volume    VolumeProvider
	bridges   route.BridgeQuoter

	loader    *cache.Loader
	optimizer *route.Optimizer
	validator *security.Validator
	hub       *notify.Hub

	audits       storage.RouteAuditStore
	observations storage.PriceObservationStore

	health *healthMonitor

	logger  *zap.SugaredLogger
	now     func() time.Time
	started time.Time
}

// New wires a Service. The route optimizer reads prices, pools and gas
// through the service's own cached lookups; the security validator reads
// oracle health from the service's health map.
func New(cfg *config.Config, deps Deps, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := logging.OrNop(opts.Logger).Named("gateway")

	hub := deps.Hub
	if hub == nil {
		hub = notify.NewHub(logger)
	}
	audits := deps.Audits
	if audits == nil {
		audits = memory.NewRouteAuditStore()
	}
	observations := deps.Observations
	if observations == nil {
		observations = memory.NewPriceObservationStore()
	}

	s := &Service{
		cfg:          cfg,
		prices:       deps.Prices,
		liquidity:    deps.Liquidity,
		gas:          deps.Gas,
		volume:       deps.Volume,
		bridges:      deps.Bridges,
		loader:       cache.NewLoader(cache.New(cfg.TTL, cache.WithClock(opts.Now)), deps.Remote, logger),
		hub:          hub,
		audits:       audits,
		observations: observations,
		logger:       logger,
		now:          opts.Now,
		started:      opts.Now(),
	}

	s.health = newHealthMonitor(cfg, deps.OracleProbes, deps.BridgeProbes, hub, logger, opts.Now)

	s.optimizer = route.NewOptimizer(s, s, s, deps.Bridges, route.Options{
		Routing:           cfg.Routing,
		LiquidityCoverage: cfg.Thresholds.LiquidityCoverage,
		Logger:            opts.Logger,
		Now:               opts.Now,
		NewID:             opts.NewID,
	})
	s.validator = security.NewValidator(security.Options{
		Thresholds:        cfg.Thresholds,
		AuditedBridges:    cfg.AuditedBridges,
		VerifiedProtocols: cfg.VerifiedProtocols,
		Oracles:           s.health,
		Now:               opts.Now,
	})

	return s
}

// Hub returns the notification hub alerts and events are published on.
func (s *Service) Hub() *notify.Hub {
	return s.hub
}

// CacheStats returns overall cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.loader.Cache().Stats()
}

func (s *Service) nowMs() int64 {
	return s.now().UnixMilli()
}
