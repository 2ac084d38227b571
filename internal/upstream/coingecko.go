package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"chain-gateway/internal/domain"
)

// CoinGeckoConfidence is the confidence attached to CoinGecko prices.
const CoinGeckoConfidence = 0.85

// ErrUnknownToken is returned when a token has no upstream mapping.
var ErrUnknownToken = errors.New("unknown token")

// coinIDs maps token symbols to CoinGecko coin ids. Prices are chain-agnostic.
var coinIDs = map[string]string{
	"ETH":   "ethereum",
	"WETH":  "weth",
	"BTC":   "bitcoin",
	"WBTC":  "wrapped-bitcoin",
	"USDC":  "usd-coin",
	"USDT":  "tether",
	"DAI":   "dai",
	"MATIC": "matic-network",
	"POL":   "matic-network",
	"BNB":   "binancecoin",
	"AVAX":  "avalanche-2",
	"FTM":   "fantom",
	"SOL":   "solana",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
}

// CoinGecko reads USD prices from the CoinGecko public API.
type CoinGecko struct {
	httpDoer
}

// NewCoinGecko creates a client for baseURL (e.g. https://api.coingecko.com/api/v3).
func NewCoinGecko(baseURL string, opts ...ClientOption) *CoinGecko {
	return &CoinGecko{httpDoer: newHTTPDoer(strings.TrimRight(baseURL, "/"), opts)}
}

// Name returns "coingecko".
func (c *CoinGecko) Name() string { return domain.SourceCoinGecko }

func coinID(token string) (string, error) {
	id, ok := coinIDs[strings.ToUpper(token)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	return id, nil
}

type simplePriceEntry struct {
	USD           float64 `json:"usd"`
	LastUpdatedAt int64   `json:"last_updated_at"`
}

// Price returns the current USD price of token.
func (c *CoinGecko) Price(ctx context.Context, token string, chainID int64) (*domain.TokenPrice, error) {
	id, err := coinID(token)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", "usd")
	q.Set("include_last_updated_at", "true")

	var resp map[string]simplePriceEntry
	if err := c.getJSON(ctx, "/simple/price?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("coingecko simple price %s: %w", id, err)
	}
	entry, ok := resp[id]
	if !ok || entry.USD <= 0 {
		return nil, fmt.Errorf("coingecko: no price for %s", id)
	}

	ts := time.Now().UnixMilli()
	if entry.LastUpdatedAt > 0 {
		ts = entry.LastUpdatedAt * 1000
	}
	return &domain.TokenPrice{
		Token:      token,
		ChainID:    chainID,
		Price:      entry.USD,
		Source:     domain.SourceCoinGecko,
		Confidence: CoinGeckoConfidence,
		Timestamp:  ts,
	}, nil
}

type coinHistory struct {
	MarketData *struct {
		CurrentPrice map[string]float64 `json:"current_price"`
	} `json:"market_data"`
}

// HistoricalPrice returns the daily USD price of token on the UTC day of timestampMs.
func (c *CoinGecko) HistoricalPrice(ctx context.Context, token string, chainID int64, timestampMs int64) (*domain.TokenPrice, error) {
	id, err := coinID(token)
	if err != nil {
		return nil, err
	}

	date := time.UnixMilli(timestampMs).UTC().Format("02-01-2006")
	q := url.Values{}
	q.Set("date", date)
	q.Set("localization", "false")

	var resp coinHistory
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id)+"/history?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("coingecko history %s %s: %w", id, date, err)
	}
	if resp.MarketData == nil || resp.MarketData.CurrentPrice["usd"] <= 0 {
		return nil, fmt.Errorf("coingecko: no history for %s on %s", id, date)
	}
	return &domain.TokenPrice{
		Token:      token,
		ChainID:    chainID,
		Price:      resp.MarketData.CurrentPrice["usd"],
		Source:     domain.SourceCoinGecko,
		Confidence: CoinGeckoConfidence,
		Timestamp:  timestampMs,
	}, nil
}

// Probe checks the API is reachable.
func (c *CoinGecko) Probe(ctx context.Context) error {
	if err := c.getJSON(ctx, "/ping", nil); err != nil {
		return fmt.Errorf("coingecko ping: %w", err)
	}
	return nil
}
