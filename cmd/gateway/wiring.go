package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"chain-gateway/internal/cache"
	"chain-gateway/internal/config"
	"chain-gateway/internal/domain"
	"chain-gateway/internal/gateway"
	"chain-gateway/internal/notify"
	"chain-gateway/internal/provider"
	"chain-gateway/internal/solana"
	"chain-gateway/internal/storage/clickhouse"
	"chain-gateway/internal/storage/migrations"
	"chain-gateway/internal/storage/postgres"
	"chain-gateway/internal/upstream"
	"chain-gateway/internal/upstream/stub"
)

// Sink queue sizes.
const (
	wsSinkBuffer    = 64
	kafkaSinkBuffer = 256
)

// DEX protocols read through the subgraph endpoint.
var subgraphProtocols = []string{"uniswap_v3", "sushiswap", "curve"}

// app holds the wired collaborators and their cleanup.
type app struct {
	deps        gateway.Deps
	alertStream http.Handler
	closers     []func()
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse wiring order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// wire builds upstream adapters, the notification hub with its sinks, the
// shared cache tier and the journal stores. On error everything wired so far
// is released.
func wire(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	if cfg.UseStub {
		wireStub(a, cfg, logger)
	} else if err = wireLive(ctx, a, cfg, logger); err != nil {
		return nil, err
	}

	hub := notify.NewHub(logger)
	a.deps.Hub = hub

	ws := notify.NewWebSocketBroadcaster(logger)
	a.onClose(ws.Close)
	hub.AddSink(ws, wsSinkBuffer)
	a.alertStream = ws.Handler()

	if len(cfg.Endpoints.KafkaBrokers) > 0 {
		sink := notify.NewKafkaSink(notify.KafkaConfig{
			Brokers: cfg.Endpoints.KafkaBrokers,
			Topic:   cfg.Endpoints.KafkaTopic,
		})
		a.onClose(func() { _ = sink.Close() })
		hub.AddSink(sink, kafkaSinkBuffer)
		logger.Infow("kafka event sink enabled", "topic", cfg.Endpoints.KafkaTopic)
	}
	// Registered after the sinks so the hub drains before they close.
	a.onClose(hub.Close)

	if cfg.Endpoints.RedisAddr != "" {
		tier, err := cache.NewRedisTier(ctx, cfg.Endpoints.RedisAddr, cfg.Endpoints.RedisPassword, cfg.Endpoints.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.onClose(func() { _ = tier.Close() })
		a.deps.Remote = tier
		logger.Infow("redis cache tier enabled", "addr", cfg.Endpoints.RedisAddr)
	}

	if err = wireStores(ctx, a, cfg, logger); err != nil {
		return nil, err
	}
	return a, nil
}

// wireStores connects the audit and observation journals. Without a DSN the
// gateway falls back to in-memory journals.
func wireStores(ctx context.Context, a *app, cfg *config.Config, logger *zap.SugaredLogger) error {
	if dsn := cfg.Endpoints.PostgresDSN; dsn != "" {
		pool, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		a.onClose(pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
		a.deps.Audits = postgres.NewRouteAuditStore(pool)
		logger.Info("route audits journaled to postgres")
	}

	if dsn := cfg.Endpoints.ClickHouseDSN; dsn != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
		if err != nil {
			return fmt.Errorf("clickhouse migrations: %w", err)
		}
		a.onClose(func() { _ = conn.Close() })
		a.deps.Observations = clickhouse.NewPriceObservationStore(conn)
		logger.Info("price observations journaled to clickhouse")
	}
	return nil
}

// wireStub serves every adapter from one seeded in-memory market.
func wireStub(a *app, cfg *config.Config, logger *zap.SugaredLogger) {
	m := stub.NewMarket()
	a.deps.OracleProbes = map[string]provider.Prober{}
	a.deps.BridgeProbes = map[string]provider.Prober{}

	var (
		prices  []provider.PriceSource
		pools   []provider.PoolSource
		bridges []provider.BridgeSource
	)
	for _, s := range m.PriceSources() {
		prices = append(prices, s)
		a.deps.OracleProbes[s.Name()] = s
	}
	for _, s := range m.PoolSources() {
		pools = append(pools, s)
	}
	for _, b := range m.Bridges {
		bridges = append(bridges, b)
		a.deps.BridgeProbes[b.Name()] = b
	}

	timeout := cfg.ProviderTimeout
	a.deps.Prices = provider.NewPriceAdapter(prices, cfg.PriceSources, timeout, logger)
	a.deps.Liquidity = provider.NewLiquidityAdapter(pools, timeout, logger)
	a.deps.Gas = provider.NewGasAdapter([]provider.GasSource{m.Gas}, timeout, logger)
	a.deps.Volume = provider.NewVolumeAdapter([]provider.VolumeSource{m.Volume}, timeout, logger)
	a.deps.Bridges = provider.NewBridgeAggregator(bridges, timeout, logger)
	logger.Warn("serving from stub upstreams")
}

// wireLive connects the real upstream clients configured in cfg.Endpoints.
func wireLive(ctx context.Context, a *app, cfg *config.Config, logger *zap.SugaredLogger) error {
	e := cfg.Endpoints
	timeout := cfg.ProviderTimeout
	opts := []upstream.ClientOption{upstream.WithTimeout(timeout)}

	a.deps.OracleProbes = map[string]provider.Prober{}
	a.deps.BridgeProbes = map[string]provider.Prober{}

	callers := make(map[int64]ethereum.ContractCaller, len(e.EVMRPC))
	gasClients := make(map[int64]upstream.GasPricer, len(e.EVMRPC))
	for chainID, url := range e.EVMRPC {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			return fmt.Errorf("dial rpc for chain %d: %w", chainID, err)
		}
		a.onClose(client.Close)
		callers[chainID] = client
		gasClients[chainID] = client
	}

	var (
		prices  []provider.PriceSource
		pools   []provider.PoolSource
		volumes []provider.VolumeSource
		gas     []provider.GasSource
		bridges []provider.BridgeSource
	)

	if len(callers) > 0 {
		cl := upstream.NewChainlink(callers, nil)
		prices = append(prices, cl)
		a.deps.OracleProbes[cl.Name()] = cl
		gas = append(gas, upstream.NewEVMGas(gasClients))
	}

	if e.SubgraphURL != "" {
		for _, protocol := range subgraphProtocols {
			sg := upstream.NewSubgraph(e.SubgraphURL, protocol, opts...)
			pools = append(pools, sg)
			if protocol == "uniswap_v3" {
				feed := sg.PriceFeed(domain.SourceUniswap)
				prices = append(prices, feed)
				a.deps.OracleProbes[feed.Name()] = feed
				volumes = append(volumes, sg)
			}
		}
	}

	if e.CoinGeckoURL != "" {
		cg := upstream.NewCoinGecko(e.CoinGeckoURL, opts...)
		prices = append(prices, cg)
		a.deps.OracleProbes[cg.Name()] = cg
	}

	if e.SolanaRPC != "" {
		gas = append(gas, upstream.NewSolana(e.SolanaRPC, solana.WithTimeout(timeout)))
	}

	if e.BridgeAPIURL != "" {
		for _, name := range cfg.MonitoredBridges {
			b := upstream.NewBridgeAPI(e.BridgeAPIURL, name, opts...)
			bridges = append(bridges, b)
			a.deps.BridgeProbes[name] = b
		}
	} else {
		logger.Warn("no bridge API configured, cross-chain routes are unavailable")
	}

	if len(prices) == 0 {
		return fmt.Errorf("no price source configured: set GATEWAY_EVM_RPC, GATEWAY_SUBGRAPH_URL or GATEWAY_COINGECKO_URL")
	}

	a.deps.Prices = provider.NewPriceAdapter(prices, cfg.PriceSources, timeout, logger)
	a.deps.Liquidity = provider.NewLiquidityAdapter(pools, timeout, logger)
	a.deps.Gas = provider.NewGasAdapter(gas, timeout, logger)
	a.deps.Volume = provider.NewVolumeAdapter(volumes, timeout, logger)
	a.deps.Bridges = provider.NewBridgeAggregator(bridges, timeout, logger)

	logger.Infow("live upstreams wired",
		"price_sources", len(prices),
		"pool_sources", len(pools),
		"gas_sources", len(gas),
		"bridges", len(bridges),
	)
	return nil
}
