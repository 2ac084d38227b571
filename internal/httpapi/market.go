package httpapi

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"chain-gateway/internal/domain"
)

// defaultHistoryWindow is the price history range when from is omitted.
const defaultHistoryWindow = 24 * time.Hour

type pricesReq struct {
	Tokens  []string `json:"tokens"  binding:"required,min=1"`
	ChainID int64    `json:"chainId" binding:"required,gt=0"`
}

type depthReq struct {
	TokenA  string          `json:"tokenA"  binding:"required"`
	TokenB  string          `json:"tokenB"  binding:"required"`
	ChainID int64           `json:"chainId" binding:"required,gt=0"`
	Amounts []domain.Amount `json:"amounts" binding:"required,min=1"`
}

type liquidityHealthReq struct {
	TokenA       string        `json:"tokenA"       binding:"required"`
	TokenB       string        `json:"tokenB"       binding:"required"`
	ChainID      int64         `json:"chainId"      binding:"required,gt=0"`
	MinLiquidity domain.Amount `json:"minLiquidity"`
}

type gasEstimateReq struct {
	ChainID    int64  `json:"chainId"    binding:"required,gt=0"`
	GasLimit   uint64 `json:"gasLimit"   binding:"required,gt=0"`
	SpeedLevel string `json:"speedLevel"`
}

type gasCompareReq struct {
	ChainIDs []int64 `json:"chainIds" binding:"required,min=1"`
	GasLimit uint64  `json:"gasLimit" binding:"required,gt=0"`
}

// GET /gateway/price/:token/:chainId
func (h *Handler) GetPrice(c *gin.Context) {
	chainID, err := chainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	token := c.Param("token")
	p := h.svc.GetTokenPrice(c.Request.Context(), token, chainID)
	if p == nil {
		notFound(c, "no price for %s on chain %d", token, chainID)
		return
	}
	ok(c, p)
}

// GET /gateway/price/:token/:chainId/aggregated
func (h *Handler) GetAggregatedPrice(c *gin.Context) {
	chainID, err := chainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	token := c.Param("token")
	p := h.svc.GetAggregatedPrice(c.Request.Context(), token, chainID)
	if p == nil {
		notFound(c, "no price source answered for %s on chain %d", token, chainID)
		return
	}
	ok(c, p)
}

// GET /gateway/price/:token/:chainId/history?from=&to= (Unix ms)
func (h *Handler) GetPriceHistory(c *gin.Context) {
	chainID, err := chainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := msQuery(c, "to", time.Now())
	if err != nil {
		badRequest(c, err)
		return
	}
	from, err := msQuery(c, "from", to.Add(-defaultHistoryWindow))
	if err != nil {
		badRequest(c, err)
		return
	}

	obs, err := h.svc.GetPriceHistory(c.Request.Context(), c.Param("token"), chainID, from, to)
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, obs)
}

// POST /gateway/prices
func (h *Handler) GetPrices(c *gin.Context) {
	var req pricesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ok(c, h.svc.GetPricesForTokens(c.Request.Context(), req.Tokens, req.ChainID))
}

// GET /gateway/liquidity/:tokenA/:tokenB/:chainId
func (h *Handler) GetLiquidity(c *gin.Context) {
	chainID, err := chainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	a, b := c.Param("tokenA"), c.Param("tokenB")
	info := h.svc.GetLiquidityInfo(c.Request.Context(), a, b, chainID)
	if info == nil {
		notFound(c, "no liquidity for %s/%s on chain %d", a, b, chainID)
		return
	}
	ok(c, info)
}

// POST /gateway/liquidity/depth-analysis
func (h *Handler) AnalyzeDepth(c *gin.Context) {
	var req depthReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	for _, amt := range req.Amounts {
		if !amt.IsPositive() {
			badRequest(c, errors.New("amounts must be positive"))
			return
		}
	}
	points := h.svc.AnalyzeLiquidityDepth(c.Request.Context(), req.TokenA, req.TokenB, req.ChainID, req.Amounts)
	if points == nil {
		notFound(c, "no liquidity for %s/%s on chain %d", req.TokenA, req.TokenB, req.ChainID)
		return
	}
	ok(c, points)
}

// POST /gateway/liquidity/health-check
func (h *Handler) CheckLiquidity(c *gin.Context) {
	var req liquidityHealthReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.MinLiquidity.IsNegative() {
		badRequest(c, errors.New("minLiquidity must not be negative"))
		return
	}
	ok(c, h.svc.CheckLiquidityHealth(c.Request.Context(), req.TokenA, req.TokenB, req.ChainID, req.MinLiquidity))
}

// GET /gateway/gas/:chainId
func (h *Handler) GetGas(c *gin.Context) {
	chainID, err := chainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	feed := h.svc.GetGasPrices(c.Request.Context(), chainID)
	if feed == nil {
		notFound(c, "no gas prices for chain %d", chainID)
		return
	}
	ok(c, feed)
}

// POST /gateway/gas/estimate
func (h *Handler) EstimateGas(c *gin.Context) {
	var req gasEstimateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tier, err := domain.ParseGasTier(req.SpeedLevel)
	if err != nil {
		badRequest(c, err)
		return
	}
	est, err := h.svc.GetEstimatedGasCost(c.Request.Context(), req.ChainID, req.GasLimit, tier)
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, est)
}

// POST /gateway/gas/compare
func (h *Handler) CompareGas(c *gin.Context) {
	var req gasCompareReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ok(c, h.svc.CompareGasAcrossChains(c.Request.Context(), req.ChainIDs, req.GasLimit))
}

// GET /gateway/volume/:pair/:chainId?timeframe=24h|7d|monthly
func (h *Handler) GetVolume(c *gin.Context) {
	chainID, err := chainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	tf, err := domain.ParseTimeframe(c.Query("timeframe"))
	if err != nil {
		badRequest(c, err)
		return
	}
	pair := pairParam(c)
	v := h.svc.GetVolumeData(c.Request.Context(), pair, chainID, tf)
	if v == nil {
		notFound(c, "no %s volume for %s on chain %d", tf, pair, chainID)
		return
	}
	ok(c, v)
}

// GET /gateway/market-activity/:chainId
func (h *Handler) GetMarketActivity(c *gin.Context) {
	chainID, err := chainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	a := h.svc.AnalyzeMarketActivity(c.Request.Context(), chainID)
	if a == nil {
		notFound(c, "no volume for chain %d", chainID)
		return
	}
	ok(c, a)
}

// GET /gateway/market-snapshot
func (h *Handler) MarketSnapshot(c *gin.Context) {
	ok(c, h.svc.GetMarketSnapshot(c.Request.Context()))
}

// GET /gateway/health
func (h *Handler) Health(c *gin.Context) {
	ok(c, h.svc.GetHealthStatus())
}

// GET /gateway/alerts
func (h *Handler) Alerts(c *gin.Context) {
	ok(c, h.svc.ActiveAlerts())
}
