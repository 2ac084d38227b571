package domain

import "fmt"

// Strategy biases pool and bridge selection during route construction.
type Strategy string

const (
	StrategyBestPrice     Strategy = "best_price"
	StrategyBestSpeed     Strategy = "best_speed"
	StrategyMostLiquid    Strategy = "most_liquid"
	StrategyLowestFee     Strategy = "lowest_fee"
	StrategyLeastSlippage Strategy = "least_slippage"
)

// AllStrategies lists strategies in the order alternatives are generated.
var AllStrategies = []Strategy{
	StrategyBestPrice,
	StrategyBestSpeed,
	StrategyMostLiquid,
	StrategyLowestFee,
	StrategyLeastSlippage,
}

// RiskLevel is a qualitative route risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskLevelForSteps maps step count to risk: 1 low, 2 medium, 3+ high.
func RiskLevelForSteps(n int) RiskLevel {
	switch {
	case n <= 1:
		return RiskLow
	case n == 2:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// BridgeNone is the bridge method of a same-chain route.
const BridgeNone = "none"

// StepKind distinguishes swaps from bridge transfers.
type StepKind string

const (
	StepSwap   StepKind = "swap"
	StepBridge StepKind = "bridge"
)

// Endpoint is one side of a hop.
type Endpoint struct {
	Token   string `json:"token"`
	Amount  Amount `json:"amount"`
	ChainID int64  `json:"chainId"`
}

// RouteStep is an atomic hop. Never mutated after construction.
type RouteStep struct {
	Kind           StepKind `json:"kind"`
	From           Endpoint `json:"from"`
	To             Endpoint `json:"to"`
	Protocol       string   `json:"protocol"`
	Fee            float64  `json:"fee"`      // fraction
	Slippage       float64  `json:"slippage"` // percent
	PriceImpactPct float64  `json:"priceImpact"`
	GasEstimate    uint64   `json:"gasEstimate"`
	Liquidity      Amount   `json:"liquidity"` // depth of the pool or bridge used
}

// TransferRoute is an ordered plan of steps plus derived aggregates.
// Routes are values: alternatives are separate routes, never diffs.
type TransferRoute struct {
	ID                string      `json:"id"`
	Strategy          Strategy    `json:"strategy"`
	Source            Endpoint    `json:"source"`
	Destination       Endpoint    `json:"destination"`
	Steps             []RouteStep `json:"steps"`
	ExpectedOutput    Amount      `json:"expectedOutput"`
	MinOutput         Amount      `json:"minOutput"`
	TotalSlippage     float64     `json:"totalSlippage"` // percent
	TotalGasCost      string      `json:"totalGasCost"`  // source chain fee units
	TotalGasCostUSD   float64     `json:"totalGasCostUSD"`
	BridgeMethod      string      `json:"bridgeMethod"`
	EstimatedTime     int         `json:"estimatedTime"` // seconds
	RiskLevel         RiskLevel   `json:"riskLevel"`
	LiquidityAdequate bool        `json:"liquidityAdequate"`
	Timestamp         int64       `json:"timestamp"`
}

// SwapProtocols returns the protocol of every swap step in order.
func (r *TransferRoute) SwapProtocols() []string {
	var out []string
	for _, s := range r.Steps {
		if s.Kind == StepSwap {
			out = append(out, s.Protocol)
		}
	}
	return out
}

// RouteRequest asks for a route moving AmountIn of TokenIn to TokenOut.
type RouteRequest struct {
	TokenIn    string  `json:"tokenIn"`
	TokenOut   string  `json:"tokenOut"`
	AmountIn   Amount  `json:"amountIn"`
	ChainInID  int64   `json:"chainInId"`
	ChainOutID int64   `json:"chainOutId"`
	Slippage   float64 `json:"slippage,omitempty"` // percent
}

// CrossChain reports whether the request spans two chains.
func (r RouteRequest) CrossChain() bool {
	return r.ChainInID != r.ChainOutID
}

// Validate checks the request is well-formed.
func (r RouteRequest) Validate() error {
	if r.TokenIn == "" || r.TokenOut == "" {
		return fmt.Errorf("tokenIn and tokenOut are required")
	}
	if !r.AmountIn.IsPositive() {
		return fmt.Errorf("amountIn must be positive")
	}
	if r.ChainInID <= 0 || r.ChainOutID <= 0 {
		return fmt.Errorf("chainInId and chainOutId are required")
	}
	if r.Slippage < 0 || r.Slippage > 100 {
		return fmt.Errorf("slippage must be within [0, 100]")
	}
	return nil
}

// BridgeQuote is a bridge's offer for moving an asset between chains.
type BridgeQuote struct {
	Bridge         string  `json:"bridge"`
	Asset          string  `json:"asset"`
	FromChainID    int64   `json:"fromChainId"`
	ToChainID      int64   `json:"toChainId"`
	Fee            float64 `json:"fee"` // fraction
	LatencySeconds int     `json:"latency"`
	GasEstimate    uint64  `json:"gasEstimate"`
	Liquidity      Amount  `json:"liquidity"`
}

// QuoteResponse bundles an approved route with its quote and alternatives.
type QuoteResponse struct {
	Quote        *Quote           `json:"quote"`
	Route        *TransferRoute   `json:"route"`
	Alternatives []*TransferRoute `json:"alternatives"`
	Risks        []string         `json:"risks"`
	Audit        *SecurityAudit   `json:"audit"`
	Timestamp    int64            `json:"timestamp"`
}

// CostSavings compares the recommended route to the best alternative.
type CostSavings struct {
	Percent   float64 `json:"percent"`
	AmountUSD float64 `json:"amount"`
}

// Recommendation is a route with a rationale and risk assessment.
type Recommendation struct {
	Operation      OperationKind    `json:"operation"`
	OptimalRoute   *TransferRoute   `json:"optimalRoute"`
	Alternatives   []*TransferRoute `json:"alternatives"`
	Rationale      string           `json:"rationale"`
	EstimatedTime  int              `json:"estimatedTime"`
	CostSavings    CostSavings      `json:"costSavings"`
	RiskAssessment *SecurityAudit   `json:"riskAssessment"`
}
