package domain

// Price source names.
const (
	SourceChainlink  = "chainlink"
	SourceUniswap    = "uniswap"
	SourceCoinGecko  = "coingecko"
	SourceAggregated = "aggregated"
)

// TokenPrice is a USD price reading for a token on a chain.
type TokenPrice struct {
	Token      string  `json:"token"`
	ChainID    int64   `json:"chainId"`
	Price      float64 `json:"price"` // USD
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"` // [0, 1]
	Timestamp  int64   `json:"timestamp"`  // Unix ms
}

// Quote is a price-ratio estimate for converting amountIn of TokenIn into TokenOut.
type Quote struct {
	TokenIn    string  `json:"tokenIn"`
	TokenOut   string  `json:"tokenOut"`
	ChainInID  int64   `json:"chainInId"`
	ChainOutID int64   `json:"chainOutId"`
	AmountIn   Amount  `json:"amountIn"`
	AmountOut  Amount  `json:"amountOut"`
	Rate       float64 `json:"rate"`
	PriceIn    float64 `json:"priceIn"`
	PriceOut   float64 `json:"priceOut"`
	Timestamp  int64   `json:"timestamp"`
}
