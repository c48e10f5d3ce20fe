package bazaar

import "github.com/xraph/bazaar/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Identity is re-exported from types package.
type Identity = types.Identity

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	USD       = types.USD
	EUR       = types.EUR
	GBP       = types.GBP
	JPY       = types.JPY
	NewAmount = types.NewAmount
	Zero      = types.Zero
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
