package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-gateway/internal/config"
	"chain-gateway/internal/domain"
	"chain-gateway/internal/security"
	"chain-gateway/internal/upstream/stub"
)

func findAlert(alerts []domain.Alert, id string) *domain.Alert {
	for i := range alerts {
		if alerts[i].ID == id {
			return &alerts[i]
		}
	}
	return nil
}

func TestGetHealthStatus_InitiallyHealthy(t *testing.T) {
	h := newHarness(t, nil)
	h.clock.Advance(90 * time.Second)

	status := h.svc.GetHealthStatus()
	assert.Equal(t, domain.StatusHealthy, status.Status)
	assert.Len(t, status.Oracles, 3)
	assert.Len(t, status.Bridges, 3)
	assert.Equal(t, 90.0, status.UptimeSeconds)
	assert.Zero(t, status.ActiveAlerts)
	assert.Equal(t, h.clock.Now().UnixMilli(), status.Timestamp)
}

func TestCheckHealth_OracleTransitions(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.market.Chainlink.Fail()
	h.svc.CheckHealth(ctx)

	status := h.svc.GetHealthStatus()
	assert.Equal(t, domain.StatusDegraded, status.Status)
	assert.Equal(t, domain.StatusUnhealthy, status.Oracles["chainlink"].Status)
	assert.Equal(t, domain.StatusHealthy, status.Oracles["uniswap"].Status)
	assert.Equal(t, h.clock.Now().UnixMilli(), status.Oracles["chainlink"].CheckedAt)
	assert.Equal(t, 1, status.ActiveAlerts)

	alert := findAlert(h.svc.ActiveAlerts(), "oracle_chainlink_unhealthy")
	require.NotNil(t, alert)
	assert.Equal(t, domain.SeverityCritical, alert.Severity)
	assert.Contains(t, alert.Message, "Oracle chainlink is unreachable")

	// A second failing round does not raise again.
	events, unsubscribe := h.svc.Hub().Subscribe("test", 8)
	defer unsubscribe()
	h.svc.CheckHealth(ctx)
	select {
	case e := <-events:
		t.Fatalf("unexpected event %s while still unhealthy", e.Type)
	default:
	}

	h.market.Chainlink.Recover()
	h.svc.CheckHealth(ctx)

	assert.Equal(t, domain.StatusHealthy, h.svc.GetHealthStatus().Status)
	assert.Empty(t, h.svc.ActiveAlerts())

	e := <-events
	require.NotNil(t, e.Alert)
	assert.True(t, e.Alert.Cleared)
	assert.Equal(t, "oracle_chainlink_unhealthy", e.Alert.ID)
	assert.Equal(t, "Oracle chainlink recovered", e.Alert.Message)
}

func TestCheckHealth_BridgesDown(t *testing.T) {
	h := newHarness(t, nil)
	h.market.Bridge("stargate").Fail()
	h.market.Bridge("wormhole").Fail()

	h.svc.CheckHealth(context.Background())

	status := h.svc.GetHealthStatus()
	assert.Equal(t, domain.StatusUnhealthy, status.Status)
	assert.Equal(t, domain.StatusHealthy, status.Bridges["axelar"].Status)
	assert.NotNil(t, findAlert(h.svc.ActiveAlerts(), "bridge_stargate_unhealthy"))
	assert.NotNil(t, findAlert(h.svc.ActiveAlerts(), "bridge_wormhole_unhealthy"))
}

func TestCheckHealth_ProbeTimeout(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config, m *stub.Market) {
		cfg.ProviderTimeout = 20 * time.Millisecond
	})
	h.market.CoinGecko.SetDelay(time.Second)

	h.svc.CheckHealth(context.Background())

	status := h.svc.GetHealthStatus()
	assert.Equal(t, domain.StatusUnhealthy, status.Oracles["coingecko"].Status)
	assert.Equal(t, domain.StatusDegraded, status.Status)
}

func TestCheckHealth_MonitoredWithoutProbe(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config, _ *stub.Market) {
		cfg.MonitoredOracles = append(cfg.MonitoredOracles, "pyth")
	})

	h.svc.CheckHealth(context.Background())

	status := h.svc.GetHealthStatus()
	assert.Equal(t, domain.StatusUnhealthy, status.Oracles["pyth"].Status)
	assert.Equal(t, domain.StatusHealthy, status.Status)
	assert.NotNil(t, findAlert(h.svc.ActiveAlerts(), "oracle_pyth_unhealthy"))
}

func TestCheckHealth_OracleQuorumFlagsRoutes(t *testing.T) {
	h := newHarness(t, nil)
	h.market.Uniswap.Fail()
	h.market.CoinGecko.Fail()
	h.svc.CheckHealth(context.Background())

	audit := h.svc.ValidateRoute(&domain.TransferRoute{
		ID:                "r1",
		BridgeMethod:      domain.BridgeNone,
		LiquidityAdequate: true,
	})
	assert.Equal(t, []string{security.FlagOracleUnhealthy}, audit.RiskFlags)
	assert.False(t, audit.Checks.OracleHealthy)
}

func TestRunHealthChecks_StopsOnCancel(t *testing.T) {
	h := newHarness(t, nil)
	h.market.Chainlink.Fail()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.svc.RunHealthChecks(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return findAlert(h.svc.ActiveAlerts(), "oracle_chainlink_unhealthy") != nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunHealthChecks did not return after cancel")
	}
}
