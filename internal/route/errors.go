package route

import (
	"fmt"

	"chain-gateway/internal/domain"
)

// Route construction errors. All match domain.ErrNoData.
var (
	ErrNoPrice     = fmt.Errorf("price unavailable: %w", domain.ErrNoData)
	ErrNoLiquidity = fmt.Errorf("no liquidity: %w", domain.ErrNoData)
	ErrNoBridge    = fmt.Errorf("no bridge: %w", domain.ErrNoData)
	ErrNoGasPrice  = fmt.Errorf("gas price unavailable: %w", domain.ErrNoData)
)
