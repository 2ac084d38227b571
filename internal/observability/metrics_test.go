package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.CacheHits.WithLabelValues("prices"))
	RecordCacheLookup("prices", true)
	RecordCacheLookup("prices", false)
	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.CacheHits.WithLabelValues("prices")))
}

func TestRecordProviderCall(t *testing.T) {
	errBefore := testutil.ToFloat64(DefaultMetrics.ProviderCalls.WithLabelValues("price", "chainlink", "error"))
	RecordProviderCall("price", "chainlink", 0.01, errors.New("down"))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(DefaultMetrics.ProviderCalls.WithLabelValues("price", "chainlink", "error")))
}

func TestRecordOverallHealth(t *testing.T) {
	RecordOverallHealth("degraded", 100)
	assert.Equal(t, 1.0, testutil.ToFloat64(DefaultMetrics.OverallHealthy))
	RecordOverallHealth("unhealthy", 101)
	assert.Equal(t, 0.0, testutil.ToFloat64(DefaultMetrics.OverallHealthy))
	assert.Equal(t, 101.0, testutil.ToFloat64(DefaultMetrics.LastHealthCheck))
}

func TestHandler(t *testing.T) {
	RecordAudit(40, false)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "chain_gateway_gateway_security_rejections_total"))
}
