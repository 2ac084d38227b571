package upstream

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"chain-gateway/internal/domain"
)

// ChainlinkConfidence is the confidence attached to Chainlink prices.
const ChainlinkConfidence = 0.99

// DefaultMaxFeedAge rejects answers older than the longest feed heartbeat.
const DefaultMaxFeedAge = 24 * time.Hour

// ErrStaleFeed is returned when a feed's last update is older than the allowed age.
var ErrStaleFeed = errors.New("stale price feed")

const aggregatorV3ABI = `[
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"latestRoundData","outputs":[
		{"internalType":"uint80","name":"roundId","type":"uint80"},
		{"internalType":"int256","name":"answer","type":"int256"},
		{"internalType":"uint256","name":"startedAt","type":"uint256"},
		{"internalType":"uint256","name":"updatedAt","type":"uint256"},
		{"internalType":"uint80","name":"answeredInRound","type":"uint80"}
	],"stateMutability":"view","type":"function"}
]`

var aggregatorABI = mustParseABI(aggregatorV3ABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("parse abi: %v", err))
	}
	return parsed
}

// DefaultChainlinkFeeds are USD aggregator proxies keyed by chain and token symbol.
var DefaultChainlinkFeeds = map[int64]map[string]string{
	domain.ChainEthereum: {
		"ETH":  "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419",
		"WETH": "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419",
		"BTC":  "0xF4030086522a5bEEa4988F8cA5B36dbC97BeE88c",
		"WBTC": "0xF4030086522a5bEEa4988F8cA5B36dbC97BeE88c",
		"USDC": "0x8fFfFfd4AfB6115b954Bd326cbe7B4BA576818f6",
		"USDT": "0x3E7d1eAB13ad0104d2750B8863b489D65364e32D",
		"DAI":  "0xAed0c38402a5d19df6E4c03F4E2DceD6e29c1ee9",
		"LINK": "0x2c1d072e956AFFC0D435Cb7AC38EF18d24d9127c",
	},
	domain.ChainPolygon: {
		"MATIC": "0xAB594600376Ec9fD91F8e885dADF0CE036862dE0",
		"ETH":   "0xF9680D99D6C9589e2a93a78A04A279e509205945",
		"WETH":  "0xF9680D99D6C9589e2a93a78A04A279e509205945",
	},
	domain.ChainBSC: {
		"BNB": "0x0567F2323251f0Aab15c8dFb1967E4e8A7D42aeE",
	},
}

// Chainlink reads USD prices from Chainlink aggregator contracts.
type Chainlink struct {
	callers map[int64]ethereum.ContractCaller
	feeds   map[int64]map[string]common.Address
	maxAge  time.Duration
	now     func() time.Time

	decimals sync.Map // common.Address -> uint8
}

// NewChainlink creates a reader. callers maps chain id to an RPC client
// (an *ethclient.Client satisfies ethereum.ContractCaller). feeds maps chain
// id and upper-case symbol to aggregator address; nil uses DefaultChainlinkFeeds.
func NewChainlink(callers map[int64]ethereum.ContractCaller, feeds map[int64]map[string]string) *Chainlink {
	if feeds == nil {
		feeds = DefaultChainlinkFeeds
	}
	parsed := make(map[int64]map[string]common.Address, len(feeds))
	for chainID, byToken := range feeds {
		parsed[chainID] = make(map[string]common.Address, len(byToken))
		for token, addr := range byToken {
			parsed[chainID][strings.ToUpper(token)] = common.HexToAddress(addr)
		}
	}
	return &Chainlink{
		callers: callers,
		feeds:   parsed,
		maxAge:  DefaultMaxFeedAge,
		now:     time.Now,
	}
}

// Name returns "chainlink".
func (c *Chainlink) Name() string { return domain.SourceChainlink }

func (c *Chainlink) resolve(token string, chainID int64) (ethereum.ContractCaller, common.Address, error) {
	caller, ok := c.callers[chainID]
	if !ok {
		return nil, common.Address{}, fmt.Errorf("chainlink: no rpc for chain %d", chainID)
	}
	feed, ok := c.feeds[chainID][strings.ToUpper(token)]
	if !ok {
		return nil, common.Address{}, fmt.Errorf("%w: no chainlink feed for %s on chain %d", ErrUnknownToken, token, chainID)
	}
	return caller, feed, nil
}

// Price reads latestRoundData and scales the answer by the feed decimals.
func (c *Chainlink) Price(ctx context.Context, token string, chainID int64) (*domain.TokenPrice, error) {
	caller, feed, err := c.resolve(token, chainID)
	if err != nil {
		return nil, err
	}

	dec, err := c.feedDecimals(ctx, caller, feed)
	if err != nil {
		return nil, err
	}

	out, err := c.callView(ctx, caller, feed, "latestRoundData")
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("chainlink %s: unexpected latestRoundData arity %d", feed.Hex(), len(out))
	}
	answer, ok1 := out[1].(*big.Int)
	updatedAt, ok2 := out[3].(*big.Int)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("chainlink %s: unexpected latestRoundData types", feed.Hex())
	}
	if answer.Sign() <= 0 {
		return nil, fmt.Errorf("chainlink %s: non-positive answer %s", feed.Hex(), answer)
	}

	updated := time.Unix(updatedAt.Int64(), 0)
	if c.now().Sub(updated) > c.maxAge {
		return nil, fmt.Errorf("%w: %s updated %s", ErrStaleFeed, feed.Hex(), updated.UTC().Format(time.RFC3339))
	}

	price := decimal.NewFromBigInt(answer, -int32(dec))
	return &domain.TokenPrice{
		Token:      token,
		ChainID:    chainID,
		Price:      price.InexactFloat64(),
		Source:     domain.SourceChainlink,
		Confidence: ChainlinkConfidence,
		Timestamp:  updated.UnixMilli(),
	}, nil
}

func (c *Chainlink) feedDecimals(ctx context.Context, caller ethereum.ContractCaller, feed common.Address) (uint8, error) {
	if v, ok := c.decimals.Load(feed); ok {
		return v.(uint8), nil
	}
	out, err := c.callView(ctx, caller, feed, "decimals")
	if err != nil {
		return 0, err
	}
	dec, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("chainlink %s: unexpected decimals type %T", feed.Hex(), out[0])
	}
	c.decimals.Store(feed, dec)
	return dec, nil
}

func (c *Chainlink) callView(ctx context.Context, caller ethereum.ContractCaller, feed common.Address, method string) ([]any, error) {
	data, err := aggregatorABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := caller.CallContract(ctx, ethereum.CallMsg{To: &feed, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chainlink %s %s: %w", feed.Hex(), method, err)
	}
	out, err := aggregatorABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("chainlink %s %s: empty result", feed.Hex(), method)
	}
	return out, nil
}

// Probe reads the first configured feed of the lowest chain id that has an RPC.
func (c *Chainlink) Probe(ctx context.Context) error {
	var (
		chainID int64 = -1
		token   string
	)
	for id := range c.callers {
		if len(c.feeds[id]) == 0 || (chainID >= 0 && id > chainID) {
			continue
		}
		chainID = id
	}
	if chainID < 0 {
		return fmt.Errorf("chainlink: no feeds reachable")
	}
	for t := range c.feeds[chainID] {
		if token == "" || t < token {
			token = t
		}
	}
	_, err := c.Price(ctx, token, chainID)
	return err
}
