// Package config holds gateway tunables and service endpoints.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CacheTTLs are the default time-to-live values per cache category.
type CacheTTLs struct {
	Prices    time.Duration
	Liquidity time.Duration
	Gas       time.Duration
	Volume    time.Duration
	Routes    time.Duration
}

// Thresholds are the numeric limits applied by aggregation, routing and security.
type Thresholds struct {
	PriceDeviationAlertPct float64 // aggregated price deviation that raises an alert
	MaxSlippagePct         float64 // security check ceiling
	MaxGasCostUSD          float64 // security check ceiling
	RiskWeight             int     // points per failed check
	MaxApprovedRisk        int     // highest approvable score
	MaxOperationSlippage   float64 // operation validation ceiling
	GasPriceCeilingFactor  float64 // operation gas price limit as multiple of instant
	LiquidityCoverage      float64 // pool depth required per unit traded
}

// Routing holds route construction parameters.
type Routing struct {
	BridgeAsset        string
	SwapGasLimit       uint64
	SingleChainTime    time.Duration
	CrossChainBaseTime time.Duration
	DefaultSlippagePct float64
	AlternativesLimit  int
}

// Endpoints are upstream and infrastructure addresses. Empty values disable the component.
type Endpoints struct {
	EVMRPC        map[int64]string // chain id -> JSON-RPC URL
	SolanaRPC     string
	CoinGeckoURL  string
	SubgraphURL   string
	BridgeAPIURL  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KafkaBrokers  []string
	KafkaTopic    string
	PostgresDSN   string
	ClickHouseDSN string
}

// Config is the full gateway configuration.
type Config struct {
	HTTPAddr string
	LogLevel string
	UseStub  bool

	TTL        CacheTTLs
	Thresholds Thresholds
	Routing    Routing

	PriceSources      []string // fallback order
	AuditedBridges    []string
	VerifiedProtocols []string
	MonitoredOracles  []string
	MonitoredBridges  []string
	SnapshotChains    []int64
	TrendingLimit     int

	ProviderTimeout     time.Duration
	HealthCheckInterval time.Duration

	Endpoints Endpoints
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
		TTL: CacheTTLs{
			Prices:    60 * time.Second,
			Liquidity: 30 * time.Second,
			Gas:       15 * time.Second,
			Volume:    300 * time.Second,
			Routes:    120 * time.Second,
		},
		Thresholds: Thresholds{
			PriceDeviationAlertPct: 5,
			MaxSlippagePct:         10,
			MaxGasCostUSD:          100,
			RiskWeight:             20,
			MaxApprovedRisk:        30,
			MaxOperationSlippage:   50,
			GasPriceCeilingFactor:  2,
			LiquidityCoverage:      2,
		},
		Routing: Routing{
			BridgeAsset:        "USDC",
			SwapGasLimit:       150000,
			SingleChainTime:    30 * time.Second,
			CrossChainBaseTime: 300 * time.Second,
			DefaultSlippagePct: 0.5,
			AlternativesLimit:  3,
		},
		PriceSources:      []string{"chainlink", "uniswap", "coingecko"},
		AuditedBridges:    []string{"stargate", "axelar", "wormhole", "layerzero"},
		VerifiedProtocols: []string{"uniswap_v2", "uniswap_v3", "sushiswap", "curve", "balancer", "pancakeswap", "quickswap", "traderjoe", "raydium", "orca"},
		MonitoredOracles:  []string{"chainlink", "uniswap", "coingecko"},
		MonitoredBridges:  []string{"stargate", "axelar", "wormhole"},
		SnapshotChains:    []int64{1, 137, 56},
		TrendingLimit:     5,

		ProviderTimeout:     5 * time.Second,
		HealthCheckInterval: 60 * time.Second,

		Endpoints: Endpoints{
			EVMRPC:       map[int64]string{},
			CoinGeckoURL: "https://api.coingecko.com/api/v3",
			KafkaTopic:   "gateway-events",
		},
	}
}

// Load reads envFile (if present) into the environment and overlays
// GATEWAY_* variables on Default. A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()

	cfg.HTTPAddr = getEnv("GATEWAY_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = getEnv("GATEWAY_LOG_LEVEL", cfg.LogLevel)
	cfg.UseStub = getEnvAsBool("GATEWAY_USE_STUB", cfg.UseStub)

	cfg.TTL.Prices = getEnvAsDuration("GATEWAY_TTL_PRICES", cfg.TTL.Prices)
	cfg.TTL.Liquidity = getEnvAsDuration("GATEWAY_TTL_LIQUIDITY", cfg.TTL.Liquidity)
	cfg.TTL.Gas = getEnvAsDuration("GATEWAY_TTL_GAS", cfg.TTL.Gas)
	cfg.TTL.Volume = getEnvAsDuration("GATEWAY_TTL_VOLUME", cfg.TTL.Volume)
	cfg.TTL.Routes = getEnvAsDuration("GATEWAY_TTL_ROUTES", cfg.TTL.Routes)

	t := &cfg.Thresholds
	t.PriceDeviationAlertPct = getEnvAsFloat("GATEWAY_PRICE_DEVIATION_ALERT_PCT", t.PriceDeviationAlertPct)
	t.MaxSlippagePct = getEnvAsFloat("GATEWAY_MAX_SLIPPAGE_PCT", t.MaxSlippagePct)
	t.MaxGasCostUSD = getEnvAsFloat("GATEWAY_MAX_GAS_COST_USD", t.MaxGasCostUSD)
	t.RiskWeight = getEnvAsInt("GATEWAY_RISK_WEIGHT", t.RiskWeight)
	t.MaxApprovedRisk = getEnvAsInt("GATEWAY_MAX_APPROVED_RISK", t.MaxApprovedRisk)
	t.LiquidityCoverage = getEnvAsFloat("GATEWAY_LIQUIDITY_COVERAGE", t.LiquidityCoverage)

	cfg.Routing.BridgeAsset = getEnv("GATEWAY_BRIDGE_ASSET", cfg.Routing.BridgeAsset)
	cfg.Routing.AlternativesLimit = getEnvAsInt("GATEWAY_ALTERNATIVES_LIMIT", cfg.Routing.AlternativesLimit)

	cfg.PriceSources = getEnvAsSlice("GATEWAY_PRICE_SOURCES", cfg.PriceSources, ",")
	cfg.AuditedBridges = getEnvAsSlice("GATEWAY_AUDITED_BRIDGES", cfg.AuditedBridges, ",")
	cfg.VerifiedProtocols = getEnvAsSlice("GATEWAY_VERIFIED_PROTOCOLS", cfg.VerifiedProtocols, ",")
	cfg.MonitoredOracles = getEnvAsSlice("GATEWAY_MONITORED_ORACLES", cfg.MonitoredOracles, ",")
	cfg.MonitoredBridges = getEnvAsSlice("GATEWAY_MONITORED_BRIDGES", cfg.MonitoredBridges, ",")

	chains, err := getEnvAsChainIDs("GATEWAY_SNAPSHOT_CHAINS", cfg.SnapshotChains)
	if err != nil {
		return nil, err
	}
	cfg.SnapshotChains = chains

	cfg.ProviderTimeout = getEnvAsDuration("GATEWAY_PROVIDER_TIMEOUT", cfg.ProviderTimeout)
	cfg.HealthCheckInterval = getEnvAsDuration("GATEWAY_HEALTH_INTERVAL", cfg.HealthCheckInterval)

	e := &cfg.Endpoints
	rpcs, err := parseChainURLs(getEnv("GATEWAY_EVM_RPC", ""))
	if err != nil {
		return nil, err
	}
	e.EVMRPC = rpcs
	e.SolanaRPC = getEnv("SOLANA_RPC_ENDPOINT", e.SolanaRPC)
	e.CoinGeckoURL = getEnv("GATEWAY_COINGECKO_URL", e.CoinGeckoURL)
	e.SubgraphURL = getEnv("GATEWAY_SUBGRAPH_URL", e.SubgraphURL)
	e.BridgeAPIURL = getEnv("GATEWAY_BRIDGE_API_URL", e.BridgeAPIURL)
	e.RedisAddr = getEnv("REDIS_ADDR", e.RedisAddr)
	e.RedisPassword = getEnv("REDIS_PASSWORD", e.RedisPassword)
	e.RedisDB = getEnvAsInt("REDIS_DB", e.RedisDB)
	e.KafkaBrokers = getEnvAsSlice("KAFKA_BROKERS", e.KafkaBrokers, ",")
	e.KafkaTopic = getEnv("KAFKA_TOPIC", e.KafkaTopic)
	e.PostgresDSN = getEnv("POSTGRES_DSN", e.PostgresDSN)
	e.ClickHouseDSN = getEnv("CLICKHOUSE_DSN", e.ClickHouseDSN)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	if c.Thresholds.RiskWeight <= 0 {
		return fmt.Errorf("risk weight must be positive")
	}
	if c.Thresholds.MaxApprovedRisk < 0 {
		return fmt.Errorf("max approved risk must not be negative")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive")
	}
	if c.HealthCheckInterval <= 0 {
		return fmt.Errorf("health check interval must be positive")
	}
	if len(c.PriceSources) == 0 {
		return fmt.Errorf("at least one price source is required")
	}
	if c.Routing.BridgeAsset == "" {
		return fmt.Errorf("bridge asset is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string, sep string) []string {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(valStr, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsChainIDs(key string, defaultVal []int64) ([]int64, error) {
	parts := getEnvAsSlice(key, nil, ",")
	if len(parts) == 0 {
		return defaultVal, nil
	}
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid chain id %q", key, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseChainURLs parses "1=https://a,137=https://b".
func parseChainURLs(s string) (map[int64]string, error) {
	out := make(map[int64]string)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, url, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid chain endpoint %q, want <chainId>=<url>", pair)
		}
		chainID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain id in %q", pair)
		}
		out[chainID] = strings.TrimSpace(url)
	}
	return out, nil
}
