package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/role"
	"github.com/xraph/bazaar/shop"
	"github.com/xraph/bazaar/types"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onRoleGranted         []OnRoleGranted
	onStoreCreated        []OnStoreCreated
	onProductAdded        []OnProductAdded
	onStockIncreased      []OnStockIncreased
	onStockDecreased      []OnStockDecreased
	onAvailabilityChecked []OnAvailabilityChecked
	onPurchaseCompleted   []OnPurchaseCompleted
	onWithdrawalCompleted []OnWithdrawalCompleted
	onWithdrawalFailed    []OnWithdrawalFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnRoleGranted); ok {
		r.onRoleGranted = append(r.onRoleGranted, v)
	}
	if v, ok := p.(OnStoreCreated); ok {
		r.onStoreCreated = append(r.onStoreCreated, v)
	}
	if v, ok := p.(OnProductAdded); ok {
		r.onProductAdded = append(r.onProductAdded, v)
	}
	if v, ok := p.(OnStockIncreased); ok {
		r.onStockIncreased = append(r.onStockIncreased, v)
	}
	if v, ok := p.(OnStockDecreased); ok {
		r.onStockDecreased = append(r.onStockDecreased, v)
	}
	if v, ok := p.(OnAvailabilityChecked); ok {
		r.onAvailabilityChecked = append(r.onAvailabilityChecked, v)
	}
	if v, ok := p.(OnPurchaseCompleted); ok {
		r.onPurchaseCompleted = append(r.onPurchaseCompleted, v)
	}
	if v, ok := p.(OnWithdrawalCompleted); ok {
		r.onWithdrawalCompleted = append(r.onWithdrawalCompleted, v)
	}
	if v, ok := p.(OnWithdrawalFailed); ok {
		r.onWithdrawalFailed = append(r.onWithdrawalFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnRoleGranted)(nil)).Elem(), "OnRoleGranted")
	checkInterface(reflect.TypeOf((*OnStoreCreated)(nil)).Elem(), "OnStoreCreated")
	checkInterface(reflect.TypeOf((*OnProductAdded)(nil)).Elem(), "OnProductAdded")
	checkInterface(reflect.TypeOf((*OnStockIncreased)(nil)).Elem(), "OnStockIncreased")
	checkInterface(reflect.TypeOf((*OnStockDecreased)(nil)).Elem(), "OnStockDecreased")
	checkInterface(reflect.TypeOf((*OnAvailabilityChecked)(nil)).Elem(), "OnAvailabilityChecked")
	checkInterface(reflect.TypeOf((*OnPurchaseCompleted)(nil)).Elem(), "OnPurchaseCompleted")
	checkInterface(reflect.TypeOf((*OnWithdrawalCompleted)(nil)).Elem(), "OnWithdrawalCompleted")
	checkInterface(reflect.TypeOf((*OnWithdrawalFailed)(nil)).Elem(), "OnWithdrawalFailed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, registry interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, registry)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRoleGranted emits a role granted event.
func (r *Registry) EmitRoleGranted(ctx context.Context, grant *role.Grant) {
	r.mu.RLock()
	plugins := r.onRoleGranted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRoleGranted(ctx, grant)
		}); err != nil {
			r.logger.Warn("plugin OnRoleGranted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStoreCreated emits a store created event.
func (r *Registry) EmitStoreCreated(ctx context.Context, s *shop.Shop) {
	r.mu.RLock()
	plugins := r.onStoreCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStoreCreated(ctx, s)
		}); err != nil {
			r.logger.Warn("plugin OnStoreCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitProductAdded emits a product added event.
func (r *Registry) EmitProductAdded(ctx context.Context, prod *catalog.Product) {
	r.mu.RLock()
	plugins := r.onProductAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnProductAdded(ctx, prod)
		}); err != nil {
			r.logger.Warn("plugin OnProductAdded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStockIncreased emits a stock increased event.
func (r *Registry) EmitStockIncreased(ctx context.Context, storeID id.StoreID, productID uint64, remaining int64) {
	r.mu.RLock()
	plugins := r.onStockIncreased
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStockIncreased(ctx, storeID, productID, remaining)
		}); err != nil {
			r.logger.Warn("plugin OnStockIncreased failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStockDecreased emits a stock decreased event.
func (r *Registry) EmitStockDecreased(ctx context.Context, storeID id.StoreID, productID uint64, remaining int64) {
	r.mu.RLock()
	plugins := r.onStockDecreased
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStockDecreased(ctx, storeID, productID, remaining)
		}); err != nil {
			r.logger.Warn("plugin OnStockDecreased failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAvailabilityChecked emits an availability checked event.
func (r *Registry) EmitAvailabilityChecked(ctx context.Context, storeID id.StoreID, productID uint64, requested int64, available bool) {
	r.mu.RLock()
	plugins := r.onAvailabilityChecked
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAvailabilityChecked(ctx, storeID, productID, requested, available)
		}); err != nil {
			r.logger.Warn("plugin OnAvailabilityChecked failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPurchaseCompleted emits a purchase completed event.
func (r *Registry) EmitPurchaseCompleted(ctx context.Context, rcpt *shop.Purchase, remaining int64) {
	r.mu.RLock()
	plugins := r.onPurchaseCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPurchaseCompleted(ctx, rcpt, remaining)
		}); err != nil {
			r.logger.Warn("plugin OnPurchaseCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdrawalCompleted emits a withdrawal completed event.
func (r *Registry) EmitWithdrawalCompleted(ctx context.Context, storeID id.StoreID, owner types.Identity, amount types.Money) {
	r.mu.RLock()
	plugins := r.onWithdrawalCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawalCompleted(ctx, storeID, owner, amount)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawalCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdrawalFailed emits a withdrawal failed event.
func (r *Registry) EmitWithdrawalFailed(ctx context.Context, storeID id.StoreID, owner types.Identity, amount types.Money, failure error) {
	r.mu.RLock()
	plugins := r.onWithdrawalFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawalFailed(ctx, storeID, owner, amount, failure)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawalFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block a ledger operation.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
