package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address identifies an account: a content owner, the fee recipient or the
// administrator. The zero value is the null account.
type Address = common.Address

// ZeroAddress is the null account.
var ZeroAddress Address

// IsZeroAddress reports whether addr is the null account.
func IsZeroAddress(addr Address) bool { return addr == ZeroAddress }

// ParseAddress parses a 0x-prefixed hex account identifier.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return ZeroAddress, fmt.Errorf("types: invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// MustParseAddress is like ParseAddress but panics on error. Use for hardcoded values.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}
