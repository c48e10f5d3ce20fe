// Package plugin provides an extensible plugin system for Bazaar.
// Plugins hook into registry and store-ledger lifecycle events; commands
// return their results synchronously and plugins act as external observers.
package plugin

import (
	"context"

	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/role"
	"github.com/xraph/bazaar/shop"
	"github.com/xraph/bazaar/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, registry interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Registry hooks
// ──────────────────────────────────────────────────

// OnRoleGranted is called when an identity receives an explicit role grant,
// including a re-grant that overwrites a previous role.
type OnRoleGranted interface {
	Plugin
	OnRoleGranted(ctx context.Context, grant *role.Grant) error
}

// OnStoreCreated is called when a store owner creates a new store ledger.
type OnStoreCreated interface {
	Plugin
	OnStoreCreated(ctx context.Context, s *shop.Shop) error
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnProductAdded is called when a new product is inserted into a catalog.
type OnProductAdded interface {
	Plugin
	OnProductAdded(ctx context.Context, p *catalog.Product) error
}

// OnStockIncreased is called after an owner restocks a product.
type OnStockIncreased interface {
	Plugin
	OnStockIncreased(ctx context.Context, storeID id.StoreID, productID uint64, remaining int64) error
}

// OnStockDecreased is called after an owner removes stock from a product.
type OnStockDecreased interface {
	Plugin
	OnStockDecreased(ctx context.Context, storeID id.StoreID, productID uint64, remaining int64) error
}

// OnAvailabilityChecked is called when a caller probes product availability.
// The check never mutates state; this hook is purely observational.
type OnAvailabilityChecked interface {
	Plugin
	OnAvailabilityChecked(ctx context.Context, storeID id.StoreID, productID uint64, requested int64, available bool) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPurchaseCompleted is called after a successful purchase: stock has been
// decremented and the shop balance credited atomically.
type OnPurchaseCompleted interface {
	Plugin
	OnPurchaseCompleted(ctx context.Context, rcpt *shop.Purchase, remaining int64) error
}

// OnWithdrawalCompleted is called after a successful owner withdrawal,
// once the external transfer has settled.
type OnWithdrawalCompleted interface {
	Plugin
	OnWithdrawalCompleted(ctx context.Context, storeID id.StoreID, owner types.Identity, amount types.Money) error
}

// OnWithdrawalFailed is called when the external transfer fails and the
// balance debit has been rolled back.
type OnWithdrawalFailed interface {
	Plugin
	OnWithdrawalFailed(ctx context.Context, storeID id.StoreID, owner types.Identity, amount types.Money, err error) error
}
