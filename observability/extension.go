// Package observability provides a metrics extension for Bazaar that records
// lifecycle event counts via an injected MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/role"
	"github.com/xraph/bazaar/shop"
	"github.com/xraph/bazaar/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnRoleGranted         = (*MetricsExtension)(nil)
	_ plugin.OnStoreCreated        = (*MetricsExtension)(nil)
	_ plugin.OnProductAdded        = (*MetricsExtension)(nil)
	_ plugin.OnStockIncreased      = (*MetricsExtension)(nil)
	_ plugin.OnStockDecreased      = (*MetricsExtension)(nil)
	_ plugin.OnAvailabilityChecked = (*MetricsExtension)(nil)
	_ plugin.OnPurchaseCompleted   = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalCompleted = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalFailed    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Bazaar plugin to automatically track marketplace metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Registry metrics
	RolesGranted  Counter
	StoresCreated Counter

	// Catalog metrics
	ProductsAdded      Counter
	StockIncreased     Counter
	StockDecreased     Counter
	AvailabilityChecks Counter

	// Payment metrics
	PurchasesCompleted   Counter
	PurchaseQuantity     Histogram
	PaymentVolume        Histogram
	WithdrawalsCompleted Counter
	WithdrawalsFailed    Counter
	WithdrawalAmount     Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Registry metrics
		RolesGranted:  factory.Counter("bazaar.role.granted"),
		StoresCreated: factory.Counter("bazaar.store.created"),

		// Catalog metrics
		ProductsAdded:      factory.Counter("bazaar.product.added"),
		StockIncreased:     factory.Counter("bazaar.stock.increased"),
		StockDecreased:     factory.Counter("bazaar.stock.decreased"),
		AvailabilityChecks: factory.Counter("bazaar.availability.checks"),

		// Payment metrics
		PurchasesCompleted:   factory.Counter("bazaar.purchase.completed"),
		PurchaseQuantity:     factory.Histogram("bazaar.purchase.quantity"),
		PaymentVolume:        factory.Histogram("bazaar.purchase.total_amount"),
		WithdrawalsCompleted: factory.Counter("bazaar.withdrawal.completed"),
		WithdrawalsFailed:    factory.Counter("bazaar.withdrawal.failed"),
		WithdrawalAmount:     factory.Histogram("bazaar.withdrawal.amount"),

		// Error metrics
		StoreErrors:  factory.Counter("bazaar.store.errors"),
		PluginErrors: factory.Counter("bazaar.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Registry lifecycle hooks
// ──────────────────────────────────────────────────

// OnRoleGranted implements plugin.OnRoleGranted.
func (m *MetricsExtension) OnRoleGranted(_ context.Context, _ *role.Grant) error {
	m.RolesGranted.Inc()
	return nil
}

// OnStoreCreated implements plugin.OnStoreCreated.
func (m *MetricsExtension) OnStoreCreated(_ context.Context, _ *shop.Shop) error {
	m.StoresCreated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Catalog lifecycle hooks
// ──────────────────────────────────────────────────

// OnProductAdded implements plugin.OnProductAdded.
func (m *MetricsExtension) OnProductAdded(_ context.Context, _ *catalog.Product) error {
	m.ProductsAdded.Inc()
	return nil
}

// OnStockIncreased implements plugin.OnStockIncreased.
func (m *MetricsExtension) OnStockIncreased(_ context.Context, _ id.StoreID, _ uint64, _ int64) error {
	m.StockIncreased.Inc()
	return nil
}

// OnStockDecreased implements plugin.OnStockDecreased.
func (m *MetricsExtension) OnStockDecreased(_ context.Context, _ id.StoreID, _ uint64, _ int64) error {
	m.StockDecreased.Inc()
	return nil
}

// OnAvailabilityChecked implements plugin.OnAvailabilityChecked.
func (m *MetricsExtension) OnAvailabilityChecked(_ context.Context, _ id.StoreID, _ uint64, _ int64, _ bool) error {
	m.AvailabilityChecks.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPurchaseCompleted implements plugin.OnPurchaseCompleted.
func (m *MetricsExtension) OnPurchaseCompleted(_ context.Context, rcpt *shop.Purchase, _ int64) error {
	m.PurchasesCompleted.Inc()
	m.PurchaseQuantity.Observe(float64(rcpt.Quantity))
	m.PaymentVolume.Observe(float64(rcpt.Total.Amount))
	return nil
}

// OnWithdrawalCompleted implements plugin.OnWithdrawalCompleted.
func (m *MetricsExtension) OnWithdrawalCompleted(_ context.Context, _ id.StoreID, _ types.Identity, amount types.Money) error {
	m.WithdrawalsCompleted.Inc()
	m.WithdrawalAmount.Observe(float64(amount.Amount))
	return nil
}

// OnWithdrawalFailed implements plugin.OnWithdrawalFailed.
func (m *MetricsExtension) OnWithdrawalFailed(_ context.Context, _ id.StoreID, _ types.Identity, _ types.Money, _ error) error {
	m.WithdrawalsFailed.Inc()
	return nil
}
