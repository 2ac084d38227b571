// Package httpapi exposes the gateway over HTTP. Every endpoint lives under
// /gateway and answers {success, data} on success or {error} otherwise.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chain-gateway/internal/gateway"
	"chain-gateway/internal/logging"
	"chain-gateway/internal/observability"
)

// Options are optional router collaborators.
type Options struct {
	Logger *zap.SugaredLogger

	// AlertStream serves GET /gateway/ws/alerts. Nil leaves it unregistered.
	AlertStream http.Handler
}

// Handler binds HTTP requests to the gateway service.
type Handler struct {
	svc    *gateway.Service
	logger *zap.SugaredLogger
}

// NewHandler creates a Handler.
func NewHandler(svc *gateway.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logging.OrNop(logger).Named("http"),
	}
}

// NewRouter builds the gin engine with every gateway endpoint, /metrics and
// /healthz.
func NewRouter(svc *gateway.Service, opts Options) *gin.Engine {
	h := NewHandler(svc, opts.Logger)

	r := gin.New()
	r.Use(gin.Recovery(), instrument(h.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	api := r.Group("/gateway")
	{
		api.GET("/price/:token/:chainId", h.GetPrice)
		api.GET("/price/:token/:chainId/aggregated", h.GetAggregatedPrice)
		api.GET("/price/:token/:chainId/history", h.GetPriceHistory)
		api.POST("/prices", h.GetPrices)

		api.GET("/liquidity/:tokenA/:tokenB/:chainId", h.GetLiquidity)
		api.POST("/liquidity/depth-analysis", h.AnalyzeDepth)
		api.POST("/liquidity/health-check", h.CheckLiquidity)

		api.GET("/gas/:chainId", h.GetGas)
		api.POST("/gas/estimate", h.EstimateGas)
		api.POST("/gas/compare", h.CompareGas)

		api.GET("/volume/:pair/:chainId", h.GetVolume)
		api.GET("/market-activity/:chainId", h.GetMarketActivity)

		api.POST("/quote", h.Quote)
		api.POST("/recommendation", h.Recommendation)
		api.POST("/validate-route", h.ValidateRoute)
		api.POST("/validate-operation", h.ValidateOperation)
		api.GET("/audits", h.RecentAudits)
		api.GET("/audits/:routeId", h.GetAudit)

		api.GET("/market-snapshot", h.MarketSnapshot)
		api.GET("/health", h.Health)
		api.GET("/alerts", h.Alerts)
		if opts.AlertStream != nil {
			api.GET("/ws/alerts", gin.WrapH(opts.AlertStream))
		}
	}

	return r
}
