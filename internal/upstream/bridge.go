package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"chain-gateway/internal/domain"
)

// BridgeAPI quotes one bridge protocol through a quote aggregation API:
//
//	GET {base}/bridges/{name}/quote?asset=&fromChainId=&toChainId=&amount=
//	GET {base}/bridges/{name}/status
type BridgeAPI struct {
	httpDoer
	name string
}

// NewBridgeAPI creates a client for bridge name.
func NewBridgeAPI(baseURL, name string, opts ...ClientOption) *BridgeAPI {
	return &BridgeAPI{
		httpDoer: newHTTPDoer(strings.TrimRight(baseURL, "/"), opts),
		name:     name,
	}
}

// Name returns the bridge name.
func (b *BridgeAPI) Name() string { return b.name }

type bridgeQuoteResponse struct {
	Fee         float64 `json:"fee"`
	Latency     int     `json:"latency"`
	GasEstimate uint64  `json:"gasEstimate"`
	Liquidity   string  `json:"liquidity"`
}

// Quote requests a transfer quote.
func (b *BridgeAPI) Quote(ctx context.Context, asset string, fromChain, toChain int64, amount domain.Amount) (*domain.BridgeQuote, error) {
	q := url.Values{}
	q.Set("asset", asset)
	q.Set("fromChainId", strconv.FormatInt(fromChain, 10))
	q.Set("toChainId", strconv.FormatInt(toChain, 10))
	q.Set("amount", amount.String())

	var resp bridgeQuoteResponse
	if err := b.getJSON(ctx, "/bridges/"+url.PathEscape(b.name)+"/quote?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("%s quote: %w", b.name, err)
	}
	if resp.Fee < 0 || resp.Fee >= 1 {
		return nil, fmt.Errorf("%s quote: fee %v out of range", b.name, resp.Fee)
	}
	liquidity := decimal.Zero
	if resp.Liquidity != "" {
		l, err := decimal.NewFromString(resp.Liquidity)
		if err != nil {
			return nil, fmt.Errorf("%s quote: parse liquidity: %w", b.name, err)
		}
		liquidity = l
	}
	return &domain.BridgeQuote{
		Bridge:         b.name,
		Asset:          asset,
		FromChainID:    fromChain,
		ToChainID:      toChain,
		Fee:            resp.Fee,
		LatencySeconds: resp.Latency,
		GasEstimate:    resp.GasEstimate,
		Liquidity:      liquidity,
	}, nil
}

// Probe checks the bridge status endpoint reports "ok".
func (b *BridgeAPI) Probe(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := b.getJSON(ctx, "/bridges/"+url.PathEscape(b.name)+"/status", &resp); err != nil {
		return fmt.Errorf("%s status: %w", b.name, err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("%s status: %s", b.name, resp.Status)
	}
	return nil
}
