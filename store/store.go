package store

import (
	"context"

	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/role"
	"github.com/xraph/bazaar/shop"
	"github.com/xraph/bazaar/types"
)

// Store is the unified storage interface for all Bazaar entities.
//
// The engine performs authorization and input validation; the store provides
// the atomic state primitives. Every conditional mutation (AddStock,
// RemoveStock, Purchase, DebitBalance) must check its guard and apply its
// update as one indivisible step per store ledger, so that no two mutations on
// the same ledger can interleave partially. Backends serialize per ledger;
// they should avoid cross-ledger serialization where the medium allows.
type Store interface {
	// Role methods. UpsertRole overwrites the role of an existing grant but
	// preserves its original creation time, which fixes the identity's
	// position in owner ordering.
	UpsertRole(ctx context.Context, g *role.Grant) error
	GetRole(ctx context.Context, identity types.Identity) (*role.Grant, error)
	ListOwners(ctx context.Context) ([]types.Identity, error)

	// Shop methods. ListAllShops returns every shop grouped by owner in
	// first-grant order, each owner's shops in creation order.
	CreateShop(ctx context.Context, s *shop.Shop) error
	GetShop(ctx context.Context, storeID id.StoreID) (*shop.Shop, error)
	ListShopsByOwner(ctx context.Context, owner types.Identity) ([]*shop.Shop, error)
	ListAllShops(ctx context.Context) ([]*shop.Shop, error)

	// Catalog methods.
	InsertProduct(ctx context.Context, p *catalog.Product) error
	GetProduct(ctx context.Context, storeID id.StoreID, productID uint64) (*catalog.Product, error)
	ListProducts(ctx context.Context, storeID id.StoreID) ([]*catalog.Product, error)

	// Stock primitives. Both return the remaining stock after the mutation.
	// AddStock fails with ErrStockOverflow when the new total would exceed the
	// representable range; RemoveStock fails with ErrInsufficientStock when
	// amount exceeds current stock.
	AddStock(ctx context.Context, storeID id.StoreID, productID uint64, amount int64) (int64, error)
	RemoveStock(ctx context.Context, storeID id.StoreID, productID uint64, amount int64) (int64, error)

	// Purchase atomically decrements stock, credits the shop balance by the
	// receipt total, and appends the receipt. On any guard failure nothing is
	// written and the error reports which guard fired.
	Purchase(ctx context.Context, rcpt *shop.Purchase) (int64, error)
	ListPurchases(ctx context.Context, storeID id.StoreID) ([]*shop.Purchase, error)

	// Balance primitives. DebitBalance fails with ErrInsufficientBalance when
	// amount exceeds the current balance. CreditBalance is the withdraw
	// rollback path and must not fail for a live shop.
	DebitBalance(ctx context.Context, storeID id.StoreID, amount types.Money) (types.Money, error)
	CreditBalance(ctx context.Context, storeID id.StoreID, amount types.Money) (types.Money, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
