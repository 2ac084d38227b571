package domain

// LiquidityInfo describes a pool for a token pair on one chain.
type LiquidityInfo struct {
	PoolAddress string  `json:"poolAddress"`
	TokenA      string  `json:"tokenA"`
	TokenB      string  `json:"tokenB"`
	ChainID     int64   `json:"chainId"`
	Liquidity   Amount  `json:"liquidity"` // pool depth in pair units
	Fee         float64 `json:"fee"`       // fraction, e.g. 0.003
	Protocol    string  `json:"protocol"`
	Timestamp   int64   `json:"timestamp"`
}

// Score ranks pools by depth net of fees: liquidity / (1 + fee).
func (l *LiquidityInfo) Score() float64 {
	return l.Liquidity.InexactFloat64() / (1 + l.Fee)
}

// LiquidityHealth is the result of comparing pool depth to a required minimum.
type LiquidityHealth struct {
	Healthy   bool    `json:"healthy"`
	Available Amount  `json:"available"`
	Deficit   *Amount `json:"deficit,omitempty"` // minimum - available, set only when unhealthy
}

// DepthPoint is the slippage estimate for a single trade size.
type DepthPoint struct {
	Amount         Amount  `json:"amount"`
	SlippagePct    float64 `json:"slippagePercent"` // amount / liquidity * 100
	PriceImpactPct float64 `json:"priceImpact"`     // coarse tier: 0.5, 2 or 5
	Liquidity      Amount  `json:"liquidity"`
}

// PriceImpactTier buckets a trade-to-liquidity ratio into a coarse price impact.
func PriceImpactTier(ratio float64) float64 {
	switch {
	case ratio > 0.1:
		return 5
	case ratio > 0.05:
		return 2
	default:
		return 0.5
	}
}
