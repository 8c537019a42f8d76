package postledger

import "github.com/xraph/postledger/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Address is re-exported from types package.
type Address = types.Address

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Money and Address constructors
var (
	USDC         = types.USDC
	Units        = types.Units
	Zero         = types.Zero
	Sum          = types.Sum
	ParseAddress = types.ParseAddress
	ZeroAddress  = types.ZeroAddress
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
