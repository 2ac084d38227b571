package httpapi

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"chain-gateway/internal/domain"
)

// defaultAuditLimit caps GET /gateway/audits when limit is omitted.
const defaultAuditLimit = 20

type validateRouteReq struct {
	Route *domain.TransferRoute `json:"route" binding:"required"`
}

type validateOperationReq struct {
	Operation domain.OperationKind   `json:"operation" binding:"required"`
	Params    domain.OperationParams `json:"params"`
}

// POST /gateway/quote
func (h *Handler) Quote(c *gin.Context) {
	var req domain.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.svc.GetOptimalRoute(c.Request.Context(), req)
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, resp)
}

// POST /gateway/recommendation
func (h *Handler) Recommendation(c *gin.Context) {
	var req domain.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := h.svc.GetRouteRecommendation(c.Request.Context(), req)
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, rec)
}

// POST /gateway/validate-route
func (h *Handler) ValidateRoute(c *gin.Context) {
	var req validateRouteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ok(c, h.svc.ValidateRoute(req.Route))
}

// POST /gateway/validate-operation
func (h *Handler) ValidateOperation(c *gin.Context) {
	var req validateOperationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ok(c, h.svc.ValidateOperation(c.Request.Context(), req.Operation, req.Params))
}

// GET /gateway/audits?limit=
func (h *Handler) RecentAudits(c *gin.Context) {
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, errors.New("invalid limit"))
			return
		}
		limit = n
	}
	recs, err := h.svc.RecentAudits(c.Request.Context(), limit)
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, recs)
}

// GET /gateway/audits/:routeId
func (h *Handler) GetAudit(c *gin.Context) {
	rec, err := h.svc.GetRouteAudit(c.Request.Context(), c.Param("routeId"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, rec)
}
