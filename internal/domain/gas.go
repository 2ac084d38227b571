package domain

import "fmt"

// GasTier is a confirmation speed level.
type GasTier string

const (
	GasStandard GasTier = "standard"
	GasFast     GasTier = "fast"
	GasInstant  GasTier = "instant"
)

// ParseGasTier parses a tier name. Empty input yields GasStandard.
func ParseGasTier(s string) (GasTier, error) {
	switch GasTier(s) {
	case "", GasStandard:
		return GasStandard, nil
	case GasFast, GasInstant:
		return GasTier(s), nil
	}
	return "", fmt.Errorf("unknown gas tier %q", s)
}

// GasTimes holds estimated confirmation seconds per tier.
type GasTimes struct {
	Standard int `json:"standard"`
	Fast     int `json:"fast"`
	Instant  int `json:"instant"`
}

// DefaultGasTimes are the confirmation estimates attached to every feed.
var DefaultGasTimes = GasTimes{Standard: 180, Fast: 60, Instant: 15}

// GasPriceFeed holds per-tier gas prices for one chain.
// Prices are decimal strings in the chain's smallest fee unit (wei, micro-lamports).
type GasPriceFeed struct {
	ChainID       int64    `json:"chainId"`
	Standard      string   `json:"standard"`
	Fast          string   `json:"fast"`
	Instant       string   `json:"instant"`
	EstimatedTime GasTimes `json:"estimatedTime"`
	Timestamp     int64    `json:"timestamp"`
}

// Price returns the price for a tier.
func (f *GasPriceFeed) Price(tier GasTier) string {
	switch tier {
	case GasFast:
		return f.Fast
	case GasInstant:
		return f.Instant
	default:
		return f.Standard
	}
}

// GasEstimate is the cost of a gas limit at one tier, in native units and USD.
type GasEstimate struct {
	ChainID        int64   `json:"chainId"`
	Tier           GasTier `json:"speedLevel"`
	GasLimit       uint64  `json:"gasLimit"`
	GasPrice       string  `json:"gasPrice"`
	TotalCost      string  `json:"totalCost"` // gasPrice * gasLimit
	NativePriceUSD float64 `json:"nativePriceUSD"`
	CostUSD        float64 `json:"estimatedFeeUSD"`
	Timestamp      int64   `json:"timestamp"`
}
