package domain

import "fmt"

// Timeframe is a volume aggregation window.
type Timeframe string

const (
	Timeframe24h     Timeframe = "24h"
	Timeframe7d      Timeframe = "7d"
	TimeframeMonthly Timeframe = "monthly"
)

// ParseTimeframe parses a timeframe. Empty input yields Timeframe24h.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case "", Timeframe24h:
		return Timeframe24h, nil
	case Timeframe7d, TimeframeMonthly:
		return Timeframe(s), nil
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

// VolumeData is trading volume for a pair over a timeframe.
type VolumeData struct {
	Pair      string    `json:"pair"`
	ChainID   int64     `json:"chainId"`
	Timeframe Timeframe `json:"timeframe"`
	Volume    Amount    `json:"volume"` // token units
	VolumeUSD float64   `json:"volumeUSD"`
	Trades    int64     `json:"trades"`
	Timestamp int64     `json:"timestamp"`
}

// PairVolume is one entry of a chain's top pairs list.
type PairVolume struct {
	Pair      string  `json:"pair"`
	Volume    Amount  `json:"volume"`
	VolumeUSD float64 `json:"volumeUSD"`
}

// ChainVolume is chain-wide 24h activity.
type ChainVolume struct {
	ChainID           int64        `json:"chainId"`
	ChainName         string       `json:"chainName"`
	TotalVolumeUSD24h float64      `json:"totalVolumeUSD24h"`
	TopPairs          []PairVolume `json:"topPairs"`
	TxCount24h        int64        `json:"txCount24h"`
	Timestamp         int64        `json:"timestamp"`
}

// MarketActivity summarises a chain's 24h trading.
type MarketActivity struct {
	ChainID           int64        `json:"chainId"`
	TotalVolumeUSD24h float64      `json:"totalVolume24h"`
	TxCount24h        int64        `json:"txCount24h"`
	Trending          []PairVolume `json:"trending"`
	Timestamp         int64        `json:"timestamp"`
}
