package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"chain-gateway/internal/domain"
)

// RouteRequestKey computes a deterministic cache key for a route request using SHA256.
// Formula: SHA256(lower(tokenIn)|lower(tokenOut)|amountIn|chainIn|chainOut|slippage)
// The amount is normalized so "1000" and "1000.00" map to the same key.
// Returns hex-encoded hash (64 characters).
func RouteRequestKey(req domain.RouteRequest) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d|%g",
		strings.ToLower(req.TokenIn),
		strings.ToLower(req.TokenOut),
		req.AmountIn.String(),
		req.ChainInID,
		req.ChainOutID,
		req.Slippage,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
