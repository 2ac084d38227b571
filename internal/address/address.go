// Package address validates wallet addresses and amounts per chain family.
package address

import (
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"chain-gateway/internal/domain"
)

// solanaKeyLen is the byte length of a Solana public key.
const solanaKeyLen = 32

// Validate reports whether addr is a well-formed recipient on chainID.
// EVM chains require a 0x-prefixed 20-byte hex address. Solana requires a
// base58 32-byte key that lies on the ed25519 curve; off-curve keys are
// program derived addresses and cannot receive as a wallet.
func Validate(chainID int64, addr string) error {
	chain, ok := domain.LookupChain(chainID)
	if !ok {
		// Unknown chains are assumed EVM-compatible.
		chain.Family = domain.FamilyEVM
	}

	switch chain.Family {
	case domain.FamilySolana:
		return validateSolana(addr)
	default:
		return validateEVM(addr)
	}
}

func validateEVM(addr string) error {
	hasPrefix := strings.HasPrefix(addr, "0x") || strings.HasPrefix(addr, "0X")
	if !hasPrefix || len(addr) != 42 || !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid evm address %q", addr)
	}
	if common.HexToAddress(addr) == (common.Address{}) {
		return fmt.Errorf("zero address is not a valid recipient")
	}
	return nil
}

func validateSolana(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("invalid solana address %q: %w", addr, err)
	}
	if len(raw) != solanaKeyLen {
		return fmt.Errorf("invalid solana address %q: want %d bytes, got %d", addr, solanaKeyLen, len(raw))
	}
	if !isOnCurve(raw) {
		return fmt.Errorf("solana address %q is off-curve (program derived)", addr)
	}
	return nil
}

func isOnCurve(point []byte) bool {
	if len(point) != solanaKeyLen {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// ParsePositiveAmount parses a decimal amount that must be > 0.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", s)
	}
	return d, nil
}
