package bazaar

import (
	"context"

	"github.com/xraph/bazaar/types"
)

// Gateway is the external payment collaborator used to move withdrawn funds
// to a store owner. It is the one call in the core that crosses a trust
// boundary: Withdraw debits the shop balance first and rolls the debit back
// if Transfer fails, so the ledger never claims money the owner did not
// receive.
type Gateway interface {
	Transfer(ctx context.Context, to types.Identity, amount types.Money) error
}

// GatewayFunc is an adapter to use a plain function as a Gateway.
type GatewayFunc func(ctx context.Context, to types.Identity, amount types.Money) error

// Transfer implements Gateway.
func (f GatewayFunc) Transfer(ctx context.Context, to types.Identity, amount types.Money) error {
	return f(ctx, to, amount)
}

// accountingGateway is the default Gateway: it settles every transfer
// immediately. Library users inject a real gateway via WithGateway.
type accountingGateway struct{}

func (accountingGateway) Transfer(context.Context, types.Identity, types.Money) error {
	return nil
}
