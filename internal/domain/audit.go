package domain

// SecurityChecks holds the outcome of each fixed security check. true means passed.
type SecurityChecks struct {
	SlippageWithinThreshold bool `json:"slippageWithinThreshold"`
	LiquidityAdequate       bool `json:"liquidityAdequate"`
	GasCostAcceptable       bool `json:"gasCostAcceptable"`
	BridgeSecure            bool `json:"bridgeSecure"`
	OracleHealthy           bool `json:"oracleHealthy"`
	ContractVerified        bool `json:"contractVerified"`
}

// SecurityAudit is the deterministic risk evaluation of a route.
type SecurityAudit struct {
	RouteID    string         `json:"routeId"`
	Checks     SecurityChecks `json:"checks"`
	RiskFlags  []string       `json:"riskFlags"`
	RiskScore  int            `json:"riskScore"`
	IsApproved bool           `json:"isApproved"`
	Timestamp  int64          `json:"timestamp"`
}

// RouteAuditRecord is the journaled outcome of one route audit.
// Corresponds to route_audits table in PostgreSQL.
type RouteAuditRecord struct {
	RouteID        string   `json:"routeId"`
	TokenIn        string   `json:"tokenIn"`
	TokenOut       string   `json:"tokenOut"`
	ChainInID      int64    `json:"chainInId"`
	ChainOutID     int64    `json:"chainOutId"`
	AmountIn       string   `json:"amountIn"`
	ExpectedOutput string   `json:"expectedOutput"`
	BridgeMethod   string   `json:"bridgeMethod"`
	Strategy       string   `json:"strategy"`
	RiskLevel      string   `json:"riskLevel"`
	RiskScore      int      `json:"riskScore"`
	Approved       bool     `json:"approved"`
	RiskFlags      []string `json:"riskFlags"`
	CreatedAt      int64    `json:"createdAt"` // Unix ms
}

// NewRouteAuditRecord flattens a route and its audit into a journal record.
func NewRouteAuditRecord(r *TransferRoute, a *SecurityAudit) *RouteAuditRecord {
	flags := append([]string(nil), a.RiskFlags...)
	return &RouteAuditRecord{
		RouteID:        r.ID,
		TokenIn:        r.Source.Token,
		TokenOut:       r.Destination.Token,
		ChainInID:      r.Source.ChainID,
		ChainOutID:     r.Destination.ChainID,
		AmountIn:       r.Source.Amount.String(),
		ExpectedOutput: r.ExpectedOutput.String(),
		BridgeMethod:   r.BridgeMethod,
		Strategy:       string(r.Strategy),
		RiskLevel:      string(r.RiskLevel),
		RiskScore:      a.RiskScore,
		Approved:       a.IsApproved,
		RiskFlags:      flags,
		CreatedAt:      a.Timestamp,
	}
}

// OperationKind is the kind of user operation being validated.
type OperationKind string

const (
	OperationSwap     OperationKind = "swap"
	OperationBridge   OperationKind = "bridge"
	OperationTransfer OperationKind = "transfer"
)

// IsValid reports whether k is a known operation kind.
func (k OperationKind) IsValid() bool {
	return k == OperationSwap || k == OperationBridge || k == OperationTransfer
}

// OperationParams are caller-supplied parameters of an operation.
type OperationParams struct {
	Amount    string  `json:"amount"`
	Recipient string  `json:"recipient"`
	ChainID   int64   `json:"chainId"`
	Slippage  float64 `json:"slippage"`
	GasPrice  string  `json:"gasPrice,omitempty"`
}

// OperationValidation is the structured result of validating an operation.
type OperationValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
