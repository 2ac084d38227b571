package upstream

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"chain-gateway/internal/domain"
)

// SubgraphConfidence is the confidence attached to DEX spot prices.
const SubgraphConfidence = 0.9

// Subgraph reads pools, spot prices and volume from a Uniswap-v3-schema
// GraphQL endpoint. Endpoints are addressed as {baseURL}/{protocol}/{chainID}.
type Subgraph struct {
	httpDoer
	protocol string
	now      func() time.Time
}

// NewSubgraph creates a client for one protocol's subgraphs.
func NewSubgraph(baseURL, protocol string, opts ...ClientOption) *Subgraph {
	return &Subgraph{
		httpDoer: newHTTPDoer(strings.TrimRight(baseURL, "/"), opts),
		protocol: protocol,
		now:      time.Now,
	}
}

// Name returns the protocol name.
func (s *Subgraph) Name() string { return s.protocol }

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

func (s *Subgraph) query(ctx context.Context, chainID int64, query string, vars map[string]any, data any) error {
	url := fmt.Sprintf("%s/%s/%d", s.baseURL, s.protocol, chainID)
	var resp struct {
		Data   any            `json:"data"`
		Errors []graphQLError `json:"errors"`
	}
	resp.Data = data
	if err := s.postJSON(ctx, url, graphQLRequest{Query: query, Variables: vars}, &resp); err != nil {
		return fmt.Errorf("subgraph %s/%d: %w", s.protocol, chainID, err)
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("subgraph %s/%d: %s", s.protocol, chainID, resp.Errors[0].Message)
	}
	return nil
}

type sgToken struct {
	Symbol string `json:"symbol"`
}

type sgPool struct {
	ID                  string  `json:"id"`
	FeeTier             string  `json:"feeTier"`
	TotalValueLockedUSD string  `json:"totalValueLockedUSD"`
	Token0              sgToken `json:"token0"`
	Token1              sgToken `json:"token1"`
	PoolDayData         []struct {
		VolumeToken0 string `json:"volumeToken0"`
		VolumeUSD    string `json:"volumeUSD"`
		TxCount      string `json:"txCount"`
	} `json:"poolDayData"`
}

const poolQuery = `query Pool($symbols: [String!]!, $days: Int!) {
  pools(first: 1, orderBy: totalValueLockedUSD, orderDirection: desc,
        where: {token0_: {symbol_in: $symbols}, token1_: {symbol_in: $symbols}}) {
    id feeTier totalValueLockedUSD
    token0 { symbol } token1 { symbol }
    poolDayData(first: $days, orderBy: date, orderDirection: desc) { volumeToken0 volumeUSD txCount }
  }
}`

func (s *Subgraph) deepestPool(ctx context.Context, tokenA, tokenB string, chainID int64, days int) (*sgPool, error) {
	var data struct {
		Pools []sgPool `json:"pools"`
	}
	vars := map[string]any{
		"symbols": []string{strings.ToUpper(tokenA), strings.ToUpper(tokenB)},
		"days":    days,
	}
	if err := s.query(ctx, chainID, poolQuery, vars, &data); err != nil {
		return nil, err
	}
	if len(data.Pools) == 0 {
		return nil, fmt.Errorf("subgraph %s/%d: no pool for %s/%s", s.protocol, chainID, tokenA, tokenB)
	}
	return &data.Pools[0], nil
}

// Pool returns the deepest pool for the pair. Liquidity is the pool TVL in USD;
// fee tiers are in hundredths of a basis point.
func (s *Subgraph) Pool(ctx context.Context, tokenA, tokenB string, chainID int64) (*domain.LiquidityInfo, error) {
	p, err := s.deepestPool(ctx, tokenA, tokenB, chainID, 0)
	if err != nil {
		return nil, err
	}
	tvl, err := decimal.NewFromString(p.TotalValueLockedUSD)
	if err != nil {
		return nil, fmt.Errorf("parse tvl %q: %w", p.TotalValueLockedUSD, err)
	}
	feeTier, err := strconv.ParseFloat(p.FeeTier, 64)
	if err != nil {
		return nil, fmt.Errorf("parse fee tier %q: %w", p.FeeTier, err)
	}
	return &domain.LiquidityInfo{
		PoolAddress: p.ID,
		TokenA:      p.Token0.Symbol,
		TokenB:      p.Token1.Symbol,
		ChainID:     chainID,
		Liquidity:   tvl,
		Fee:         feeTier / 1e6,
		Protocol:    s.protocol,
		Timestamp:   s.now().UnixMilli(),
	}, nil
}

const spotQuery = `query Spot($symbol: String!) {
  bundle(id: "1") { ethPriceUSD }
  tokens(first: 1, orderBy: totalValueLockedUSD, orderDirection: desc, where: {symbol: $symbol}) { derivedETH }
}`

// Price returns the DEX spot price: derivedETH * ethPriceUSD.
func (s *Subgraph) Price(ctx context.Context, token string, chainID int64) (*domain.TokenPrice, error) {
	var data struct {
		Bundle *struct {
			ETHPriceUSD string `json:"ethPriceUSD"`
		} `json:"bundle"`
		Tokens []struct {
			DerivedETH string `json:"derivedETH"`
		} `json:"tokens"`
	}
	if err := s.query(ctx, chainID, spotQuery, map[string]any{"symbol": strings.ToUpper(token)}, &data); err != nil {
		return nil, err
	}
	if data.Bundle == nil || len(data.Tokens) == 0 {
		return nil, fmt.Errorf("subgraph %s/%d: no spot price for %s", s.protocol, chainID, token)
	}
	ethUSD, err := decimal.NewFromString(data.Bundle.ETHPriceUSD)
	if err != nil {
		return nil, fmt.Errorf("parse ethPriceUSD: %w", err)
	}
	derived, err := decimal.NewFromString(data.Tokens[0].DerivedETH)
	if err != nil {
		return nil, fmt.Errorf("parse derivedETH: %w", err)
	}
	price := derived.Mul(ethUSD)
	if !price.IsPositive() {
		return nil, fmt.Errorf("subgraph %s/%d: zero spot price for %s", s.protocol, chainID, token)
	}
	return &domain.TokenPrice{
		Token:      token,
		ChainID:    chainID,
		Price:      price.InexactFloat64(),
		Source:     domain.SourceUniswap,
		Confidence: SubgraphConfidence,
		Timestamp:  s.now().UnixMilli(),
	}, nil
}

func timeframeDays(tf domain.Timeframe) int {
	switch tf {
	case domain.Timeframe7d:
		return 7
	case domain.TimeframeMonthly:
		return 30
	default:
		return 1
	}
}

// splitPair splits "A/B" or "A-B".
func splitPair(pair string) (string, string, error) {
	for _, sep := range []string{"/", "-"} {
		if a, b, ok := strings.Cut(pair, sep); ok && a != "" && b != "" {
			return a, b, nil
		}
	}
	return "", "", fmt.Errorf("invalid pair %q", pair)
}

// Volume sums the pool's daily volume over the timeframe.
func (s *Subgraph) Volume(ctx context.Context, pair string, chainID int64, tf domain.Timeframe) (*domain.VolumeData, error) {
	a, b, err := splitPair(pair)
	if err != nil {
		return nil, err
	}
	p, err := s.deepestPool(ctx, a, b, chainID, timeframeDays(tf))
	if err != nil {
		return nil, err
	}

	vol := decimal.Zero
	usd := decimal.Zero
	var trades int64
	for _, d := range p.PoolDayData {
		if v, err := decimal.NewFromString(d.VolumeToken0); err == nil {
			vol = vol.Add(v)
		}
		if v, err := decimal.NewFromString(d.VolumeUSD); err == nil {
			usd = usd.Add(v)
		}
		if n, err := strconv.ParseInt(d.TxCount, 10, 64); err == nil {
			trades += n
		}
	}
	return &domain.VolumeData{
		Pair:      pair,
		ChainID:   chainID,
		Timeframe: tf,
		Volume:    vol,
		VolumeUSD: usd.InexactFloat64(),
		Trades:    trades,
		Timestamp: s.now().UnixMilli(),
	}, nil
}

const chainVolumeQuery = `query ChainVolume($since: Int!) {
  uniswapDayDatas(first: 1, orderBy: date, orderDirection: desc) { volumeUSD txCount }
  poolDayDatas(first: 10, orderBy: volumeUSD, orderDirection: desc, where: {date_gte: $since}) {
    volumeToken0 volumeUSD
    pool { token0 { symbol } token1 { symbol } }
  }
}`

// ChainVolume returns the latest day's protocol volume and top pools.
func (s *Subgraph) ChainVolume(ctx context.Context, chainID int64) (*domain.ChainVolume, error) {
	var data struct {
		DayDatas []struct {
			VolumeUSD string `json:"volumeUSD"`
			TxCount   string `json:"txCount"`
		} `json:"uniswapDayDatas"`
		PoolDayDatas []struct {
			VolumeToken0 string `json:"volumeToken0"`
			VolumeUSD    string `json:"volumeUSD"`
			Pool         struct {
				Token0 sgToken `json:"token0"`
				Token1 sgToken `json:"token1"`
			} `json:"pool"`
		} `json:"poolDayDatas"`
	}
	since := s.now().Add(-24 * time.Hour).Unix()
	if err := s.query(ctx, chainID, chainVolumeQuery, map[string]any{"since": since}, &data); err != nil {
		return nil, err
	}
	if len(data.DayDatas) == 0 {
		return nil, fmt.Errorf("subgraph %s/%d: no day data", s.protocol, chainID)
	}

	total, _ := strconv.ParseFloat(data.DayDatas[0].VolumeUSD, 64)
	txCount, _ := strconv.ParseInt(data.DayDatas[0].TxCount, 10, 64)

	cv := &domain.ChainVolume{
		ChainID:           chainID,
		TotalVolumeUSD24h: total,
		TxCount24h:        txCount,
		Timestamp:         s.now().UnixMilli(),
	}
	if c, ok := domain.LookupChain(chainID); ok {
		cv.ChainName = c.Name
	}
	for _, d := range data.PoolDayDatas {
		vol, _ := decimal.NewFromString(d.VolumeToken0)
		usd, _ := strconv.ParseFloat(d.VolumeUSD, 64)
		cv.TopPairs = append(cv.TopPairs, domain.PairVolume{
			Pair:      d.Pool.Token0.Symbol + "/" + d.Pool.Token1.Symbol,
			Volume:    vol,
			VolumeUSD: usd,
		})
	}
	return cv, nil
}

// Probe queries the indexing metadata of the chain's subgraph.
func (s *Subgraph) Probe(ctx context.Context) error {
	var data struct {
		Meta *struct {
			Block struct {
				Number int64 `json:"number"`
			} `json:"block"`
		} `json:"_meta"`
	}
	if err := s.query(ctx, domain.ChainEthereum, `{ _meta { block { number } } }`, nil, &data); err != nil {
		return err
	}
	if data.Meta == nil {
		return fmt.Errorf("subgraph %s: missing _meta", s.protocol)
	}
	return nil
}

// PriceFeed exposes the subgraph's spot prices as a price source named name.
func (s *Subgraph) PriceFeed(name string) *SubgraphPriceFeed {
	return &SubgraphPriceFeed{Subgraph: s, name: name}
}

// SubgraphPriceFeed is a Subgraph registered under a price source name.
type SubgraphPriceFeed struct {
	*Subgraph
	name string
}

// Name returns the registered price source name.
func (f *SubgraphPriceFeed) Name() string { return f.name }
