package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// SameAddress compares two wallet addresses. Hex addresses are compared by
// value so checksum casing does not matter; anything else falls back to a
// case-insensitive string compare.
func SameAddress(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	if common.IsHexAddress(a) && common.IsHexAddress(b) {
		return common.HexToAddress(a) == common.HexToAddress(b)
	}
	return strings.EqualFold(a, b)
}

// IsZeroAddress reports whether addr is empty or the zero address, both of
// which mean no wallet is connected.
func IsZeroAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return true
	}
	return common.IsHexAddress(addr) && common.HexToAddress(addr) == (common.Address{})
}
