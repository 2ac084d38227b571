package domain

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// DependencyHealth is the last probe result for an oracle or bridge.
type DependencyHealth struct {
	Status    string  `json:"status"`
	LatencyMs float64 `json:"latency"`
	CheckedAt int64   `json:"checkedAt"`
}

// HealthStatus is the gateway health report.
type HealthStatus struct {
	Status        string                      `json:"status"`
	Oracles       map[string]DependencyHealth `json:"oracles"`
	Bridges       map[string]DependencyHealth `json:"bridges"`
	CacheHitRate  float64                     `json:"cacheHitRate"`
	UptimeSeconds float64                     `json:"uptime"`
	ActiveAlerts  int                         `json:"activeAlerts"`
	Timestamp     int64                       `json:"timestamp"`
}

// ChainSnapshot is the per-chain part of a market snapshot.
type ChainSnapshot struct {
	GasPrice       *GasPriceFeed `json:"gasPrice,omitempty"`
	Volume24hUSD   float64       `json:"volume24h"`
	TrendingPairs  []PairVolume  `json:"trendingPairs,omitempty"`
	NativePriceUSD float64       `json:"nativePriceUSD,omitempty"`
}

// BridgeSnapshot is the per-bridge part of a market snapshot.
type BridgeSnapshot struct {
	Status string `json:"status"`
}

// MarketSnapshot is a dashboard view across configured chains.
type MarketSnapshot struct {
	Chains    map[int64]ChainSnapshot   `json:"chains"`
	Bridges   map[string]BridgeSnapshot `json:"bridges"`
	Timestamp int64                     `json:"timestamp"`
}
