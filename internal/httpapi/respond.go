package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chain-gateway/internal/gateway"
	"chain-gateway/internal/observability"
)

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, err.Error())
}

func notFound(c *gin.Context, format string, args ...any) {
	fail(c, http.StatusNotFound, fmt.Sprintf(format, args...))
}

// failErr maps a service error to a status: 422 for a security rejection,
// 400 for bad input, 404 for missing data and 500 otherwise.
func (h *Handler) failErr(c *gin.Context, err error) {
	var rejected *gateway.SecurityRejectionError
	switch {
	case errors.As(err, &rejected):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
			"audit": rejected.Audit,
		})
	case errors.Is(err, gateway.ErrInvalidRequest):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, gateway.ErrNoData):
		fail(c, http.StatusNotFound, err.Error())
	default:
		h.logger.Errorw("request failed", "path", c.FullPath(), "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

// chainParam parses a positive chain id path parameter.
func chainParam(c *gin.Context) (int64, error) {
	raw := c.Param("chainId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid chainId %q", raw)
	}
	return id, nil
}

// pairParam accepts "ETH-USDC" or "ETH_USDC" in the path and returns "ETH/USDC".
func pairParam(c *gin.Context) string {
	return strings.NewReplacer("-", "/", "_", "/").Replace(c.Param("pair"))
}

// msQuery parses an optional Unix millisecond query parameter.
func msQuery(c *gin.Context, name string, def time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q", name, raw)
	}
	return time.UnixMilli(ms), nil
}

// instrument records latency per route and logs server errors.
func instrument(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		observability.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(status), elapsed.Seconds())

		if status >= http.StatusInternalServerError {
			logger.Warnw("request", "method", c.Request.Method, "route", route, "status", status, "elapsed", elapsed)
			return
		}
		logger.Debugw("request", "method", c.Request.Method, "route", route, "status", status, "elapsed", elapsed)
	}
}
