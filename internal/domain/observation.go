package domain

import "strings"

// PriceObservation is one recorded price reading.
// Corresponds to price_observations table in ClickHouse.
type PriceObservation struct {
	Token       string  `json:"token"`     // symbol, upper case
	ChainID     int64   `json:"chainId"`
	Source      string  `json:"source"`    // provider name or "aggregated"
	TimestampMs int64   `json:"timestamp"` // Unix ms
	Price       float64 `json:"price"`     // USD
	Confidence  float64 `json:"confidence"`
}

// NewPriceObservation converts a price reading into an observation.
func NewPriceObservation(p *TokenPrice) *PriceObservation {
	return &PriceObservation{
		Token:       strings.ToUpper(p.Token),
		ChainID:     p.ChainID,
		Source:      p.Source,
		TimestampMs: p.Timestamp,
		Price:       p.Price,
		Confidence:  p.Confidence,
	}
}
