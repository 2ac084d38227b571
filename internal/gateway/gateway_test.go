package gateway

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chain-gateway/internal/config"
	"chain-gateway/internal/provider"
	"chain-gateway/internal/upstream/stub"
)

// testClock is a settable clock shared by the service, cache and validator.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.UnixMilli(1700000000000)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type harness struct {
	svc    *Service
	market *stub.Market
	clock  *testClock
	cfg    *config.Config
}

// newHarness wires a Service over a seeded stub market. mutate may adjust the
// configuration and the market before wiring.
func newHarness(t *testing.T, mutate func(*config.Config, *stub.Market)) *harness {
	t.Helper()

	cfg := config.Default()
	cfg.ProviderTimeout = time.Second
	m := stub.NewMarket()
	if mutate != nil {
		mutate(cfg, m)
	}
	clock := newTestClock()

	var (
		priceSources  []provider.PriceSource
		poolSources   []provider.PoolSource
		bridgeSources []provider.BridgeSource
		oracleProbes  = map[string]provider.Prober{}
		bridgeProbes  = map[string]provider.Prober{}
	)
	for _, s := range m.PriceSources() {
		priceSources = append(priceSources, s)
		oracleProbes[s.Name()] = s
	}
	for _, s := range m.PoolSources() {
		poolSources = append(poolSources, s)
	}
	for _, b := range m.Bridges {
		bridgeSources = append(bridgeSources, b)
		bridgeProbes[b.Name()] = b
	}

	svc := New(cfg, Deps{
		Prices:       provider.NewPriceAdapter(priceSources, cfg.PriceSources, cfg.ProviderTimeout, nil),
		Liquidity:    provider.NewLiquidityAdapter(poolSources, cfg.ProviderTimeout, nil),
		Gas:          provider.NewGasAdapter([]provider.GasSource{m.Gas}, cfg.ProviderTimeout, nil),
		Volume:       provider.NewVolumeAdapter([]provider.VolumeSource{m.Volume}, cfg.ProviderTimeout, nil),
		Bridges:      provider.NewBridgeAggregator(bridgeSources, cfg.ProviderTimeout, nil),
		OracleProbes: oracleProbes,
		BridgeProbes: bridgeProbes,
	}, Options{
		Now:   clock.Now,
		NewID: sequentialIDs(),
	})
	t.Cleanup(svc.Hub().Close)

	return &harness{svc: svc, market: m, clock: clock, cfg: cfg}
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("route-%d", n.Add(1))
	}
}
