// Package audithook bridges Bazaar lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import any
// particular audit backend directly. Callers inject a RecorderFunc adapter
// that bridges to their trail at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/role"
	"github.com/xraph/bazaar/shop"
	"github.com/xraph/bazaar/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnRoleGranted         = (*Extension)(nil)
	_ plugin.OnStoreCreated        = (*Extension)(nil)
	_ plugin.OnProductAdded        = (*Extension)(nil)
	_ plugin.OnStockIncreased      = (*Extension)(nil)
	_ plugin.OnStockDecreased      = (*Extension)(nil)
	_ plugin.OnAvailabilityChecked = (*Extension)(nil)
	_ plugin.OnPurchaseCompleted   = (*Extension)(nil)
	_ plugin.OnWithdrawalCompleted = (*Extension)(nil)
	_ plugin.OnWithdrawalFailed    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so that the audit_hook package does not depend on any
// concrete trail — callers inject one at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Bazaar lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Registry hooks
// ──────────────────────────────────────────────────

// OnRoleGranted implements plugin.OnRoleGranted.
func (e *Extension) OnRoleGranted(ctx context.Context, grant *role.Grant) error {
	return e.record(ctx, ActionRoleGranted, SeverityInfo, OutcomeSuccess,
		ResourceGrant, grant.ID.String(), CategoryAccess, nil,
		"identity", string(grant.Identity),
		"role", grant.Role.String(),
	)
}

// OnStoreCreated implements plugin.OnStoreCreated.
func (e *Extension) OnStoreCreated(ctx context.Context, s *shop.Shop) error {
	return e.record(ctx, ActionStoreCreated, SeverityInfo, OutcomeSuccess,
		ResourceStore, s.ID.String(), CategoryCatalog, nil,
		"owner", string(s.Owner),
		"name", s.Name,
	)
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnProductAdded implements plugin.OnProductAdded.
func (e *Extension) OnProductAdded(ctx context.Context, p *catalog.Product) error {
	return e.record(ctx, ActionProductAdded, SeverityInfo, OutcomeSuccess,
		ResourceProduct, p.StoreID.String(), CategoryCatalog, nil,
		"product_id", p.ID,
		"name", p.Name,
		"unit_price", p.UnitPrice.String(),
		"stock", p.Stock,
	)
}

// OnStockIncreased implements plugin.OnStockIncreased.
func (e *Extension) OnStockIncreased(ctx context.Context, storeID id.StoreID, productID uint64, remaining int64) error {
	return e.record(ctx, ActionStockIncreased, SeverityInfo, OutcomeSuccess,
		ResourceProduct, storeID.String(), CategoryInventory, nil,
		"product_id", productID,
		"remaining", remaining,
	)
}

// OnStockDecreased implements plugin.OnStockDecreased.
func (e *Extension) OnStockDecreased(ctx context.Context, storeID id.StoreID, productID uint64, remaining int64) error {
	return e.record(ctx, ActionStockDecreased, SeverityInfo, OutcomeSuccess,
		ResourceProduct, storeID.String(), CategoryInventory, nil,
		"product_id", productID,
		"remaining", remaining,
	)
}

// OnAvailabilityChecked implements plugin.OnAvailabilityChecked.
func (e *Extension) OnAvailabilityChecked(_ context.Context, _ id.StoreID, _ uint64, _ int64, _ bool) error {
	// Availability probes are read-only and high-volume; skip them to keep
	// the trail focused on mutations.
	return nil
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPurchaseCompleted implements plugin.OnPurchaseCompleted.
func (e *Extension) OnPurchaseCompleted(ctx context.Context, rcpt *shop.Purchase, remaining int64) error {
	return e.record(ctx, ActionPurchaseCompleted, SeverityInfo, OutcomeSuccess,
		ResourcePurchase, rcpt.ID.String(), CategoryPayment, nil,
		"store_id", rcpt.StoreID.String(),
		"buyer", string(rcpt.Buyer),
		"product_id", rcpt.ProductID,
		"quantity", rcpt.Quantity,
		"total", rcpt.Total.String(),
		"remaining", remaining,
	)
}

// OnWithdrawalCompleted implements plugin.OnWithdrawalCompleted.
func (e *Extension) OnWithdrawalCompleted(ctx context.Context, storeID id.StoreID, owner types.Identity, amount types.Money) error {
	return e.record(ctx, ActionWithdrawalCompleted, SeverityInfo, OutcomeSuccess,
		ResourceBalance, storeID.String(), CategoryPayment, nil,
		"owner", string(owner),
		"amount", amount.String(),
	)
}

// OnWithdrawalFailed implements plugin.OnWithdrawalFailed.
func (e *Extension) OnWithdrawalFailed(ctx context.Context, storeID id.StoreID, owner types.Identity, amount types.Money, err error) error {
	return e.record(ctx, ActionWithdrawalFailed, SeverityCritical, OutcomeFailure,
		ResourceBalance, storeID.String(), CategoryPayment, err,
		"owner", string(owner),
		"amount", amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
