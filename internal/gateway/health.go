package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"chain-gateway/internal/config"
	"chain-gateway/internal/domain"
	"chain-gateway/internal/notify"
	"chain-gateway/internal/observability"
	"chain-gateway/internal/provider"
)

// Dependency kinds tracked by the health loop.
const (
	kindOracle = "oracle"
	kindBridge = "bridge"
)

// Overall status thresholds: fewer healthy than minHealthy of either kind
// is unhealthy, fewer than fullHealthy is degraded.
const (
	minHealthy  = 2
	fullHealthy = 3
)

var errNoProbe = errors.New("no probe configured")

// healthMonitor owns the oracle and bridge health maps.
type healthMonitor struct {
	mu      sync.RWMutex
	oracles map[string]domain.DependencyHealth
	bridges map[string]domain.DependencyHealth

	oracleProbes map[string]provider.Prober
	bridgeProbes map[string]provider.Prober

	timeout  time.Duration
	interval time.Duration
	hub      *notify.Hub
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// newHealthMonitor starts every monitored dependency as healthy; the first
// probe round corrects that.
func newHealthMonitor(cfg *config.Config, oracleProbes, bridgeProbes map[string]provider.Prober, hub *notify.Hub, logger *zap.SugaredLogger, now func() time.Time) *healthMonitor {
	m := &healthMonitor{
		oracles:      make(map[string]domain.DependencyHealth, len(cfg.MonitoredOracles)),
		bridges:      make(map[string]domain.DependencyHealth, len(cfg.MonitoredBridges)),
		oracleProbes: oracleProbes,
		bridgeProbes: bridgeProbes,
		timeout:      cfg.ProviderTimeout,
		interval:     cfg.HealthCheckInterval,
		hub:          hub,
		logger:       logger,
		now:          now,
	}
	for _, name := range cfg.MonitoredOracles {
		m.oracles[name] = domain.DependencyHealth{Status: domain.StatusHealthy}
	}
	for _, name := range cfg.MonitoredBridges {
		m.bridges[name] = domain.DependencyHealth{Status: domain.StatusHealthy}
	}
	return m
}

// OraclesHealthy reports whether enough oracles are healthy to trust price
// inputs: at least two, or all of them when fewer are monitored.
func (m *healthMonitor) OraclesHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	need := min(minHealthy, len(m.oracles))
	return countHealthy(m.oracles) >= need
}

// bridgeStatus returns the last known status of a bridge, "unknown" when untracked.
func (m *healthMonitor) bridgeStatus(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.bridges[name]; ok {
		return h.Status
	}
	return "unknown"
}

type probeResult struct {
	kind, name string
	health     domain.DependencyHealth
	err        error
}

// check probes every monitored dependency concurrently and applies the
// results. A healthy to unhealthy transition raises a critical alert; the
// reverse clears it.
func (m *healthMonitor) check(ctx context.Context) {
	m.mu.RLock()
	var targets []probeResult
	for name := range m.oracles {
		targets = append(targets, probeResult{kind: kindOracle, name: name})
	}
	for name := range m.bridges {
		targets = append(targets, probeResult{kind: kindBridge, name: name})
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for i := range targets {
		wg.Add(1)
		go func(t *probeResult) {
			defer wg.Done()
			t.health, t.err = m.probe(ctx, t.kind, t.name)
		}(&targets[i])
	}
	wg.Wait()

	for _, t := range targets {
		m.apply(t)
	}

	status := m.overall()
	observability.RecordOverallHealth(status, float64(m.now().Unix()))
	m.logger.Debugw("health check complete", "status", status)
}

func (m *healthMonitor) probe(ctx context.Context, kind, name string) (domain.DependencyHealth, error) {
	probes := m.oracleProbes
	if kind == kindBridge {
		probes = m.bridgeProbes
	}

	h := domain.DependencyHealth{Status: domain.StatusUnhealthy, CheckedAt: m.now().UnixMilli()}
	p, ok := probes[name]
	if !ok {
		return h, errNoProbe
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	err := p.Probe(ctx)
	h.LatencyMs = float64(time.Since(start).Microseconds()) / 1000
	if err == nil {
		h.Status = domain.StatusHealthy
	}
	return h, err
}

func (m *healthMonitor) apply(t probeResult) {
	m.mu.Lock()
	states := m.oracles
	if t.kind == kindBridge {
		states = m.bridges
	}
	prev := states[t.name]
	states[t.name] = t.health
	m.mu.Unlock()

	healthy := t.health.Status == domain.StatusHealthy
	observability.RecordDependencyHealth(t.kind, t.name, healthy)

	id := fmt.Sprintf("%s_%s_unhealthy", t.kind, t.name)
	switch {
	case !healthy && prev.Status != domain.StatusUnhealthy:
		m.logger.Warnw("dependency unhealthy", "kind", t.kind, "name", t.name, "error", t.err)
		m.hub.RaiseAlert(domain.SeverityCritical, id,
			fmt.Sprintf("%s %s is unreachable: %v", titleKind(t.kind), t.name, t.err))
	case healthy && prev.Status == domain.StatusUnhealthy:
		m.logger.Infow("dependency recovered", "kind", t.kind, "name", t.name)
		m.hub.ClearAlert(id, fmt.Sprintf("%s %s recovered", titleKind(t.kind), t.name))
	}
}

func titleKind(kind string) string {
	if kind == kindBridge {
		return "Bridge"
	}
	return "Oracle"
}

// overall derives the gateway status from the health maps.
func (m *healthMonitor) overall() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, b := countHealthy(m.oracles), countHealthy(m.bridges)
	switch {
	case o < minHealthy || b < minHealthy:
		return domain.StatusUnhealthy
	case o < fullHealthy || b < fullHealthy:
		return domain.StatusDegraded
	default:
		return domain.StatusHealthy
	}
}

func (m *healthMonitor) snapshot() (oracles, bridges map[string]domain.DependencyHealth) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	oracles = make(map[string]domain.DependencyHealth, len(m.oracles))
	for k, v := range m.oracles {
		oracles[k] = v
	}
	bridges = make(map[string]domain.DependencyHealth, len(m.bridges))
	for k, v := range m.bridges {
		bridges[k] = v
	}
	return oracles, bridges
}

func (m *healthMonitor) bridgeNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.bridges))
	for name := range m.bridges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func countHealthy(states map[string]domain.DependencyHealth) int {
	n := 0
	for _, h := range states {
		if h.Status == domain.StatusHealthy {
			n++
		}
	}
	return n
}

// RunHealthChecks probes dependencies immediately and then every configured
// interval until ctx is cancelled.
func (s *Service) RunHealthChecks(ctx context.Context) {
	ticker := time.NewTicker(s.health.interval)
	defer ticker.Stop()

	s.health.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.health.check(ctx)
		}
	}
}

// CheckHealth runs one probe round synchronously.
func (s *Service) CheckHealth(ctx context.Context) {
	s.health.check(ctx)
}

// GetHealthStatus reports dependency health from the last probe round with
// cache hit rate, uptime and the active alert count.
func (s *Service) GetHealthStatus() *domain.HealthStatus {
	oracles, bridges := s.health.snapshot()
	return &domain.HealthStatus{
		Status:        s.health.overall(),
		Oracles:       oracles,
		Bridges:       bridges,
		CacheHitRate:  s.loader.Cache().Stats().HitRate,
		UptimeSeconds: s.now().Sub(s.started).Seconds(),
		ActiveAlerts:  len(s.hub.ActiveAlerts()),
		Timestamp:     s.nowMs(),
	}
}

// ActiveAlerts returns uncleared alerts, newest first.
func (s *Service) ActiveAlerts() []domain.Alert {
	return s.hub.ActiveAlerts()
}
