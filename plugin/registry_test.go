package plugin_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/role"
	"github.com/xraph/bazaar/shop"
	"github.com/xraph/bazaar/types"
)

// recordingPlugin implements every hook and records the calls it receives.
type recordingPlugin struct {
	name string

	mu     sync.Mutex
	events []string
	fail   error
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) record(event string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.fail
}

func (p *recordingPlugin) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *recordingPlugin) OnInit(ctx context.Context, registry interface{}) error {
	return p.record("init")
}

func (p *recordingPlugin) OnShutdown(ctx context.Context) error {
	return p.record("shutdown")
}

func (p *recordingPlugin) OnRoleGranted(ctx context.Context, grant *role.Grant) error {
	return p.record("role:" + string(grant.Role))
}

func (p *recordingPlugin) OnStoreCreated(ctx context.Context, s *shop.Shop) error {
	return p.record("store")
}

func (p *recordingPlugin) OnStockDecreased(ctx context.Context, storeID id.StoreID, productID uint64, remaining int64) error {
	return p.record("stock.decreased")
}

func (p *recordingPlugin) OnPurchaseCompleted(ctx context.Context, rcpt *shop.Purchase, remaining int64) error {
	return p.record("purchase")
}

func (p *recordingPlugin) OnWithdrawalFailed(ctx context.Context, storeID id.StoreID, owner types.Identity, amount types.Money, failure error) error {
	return p.record("withdrawal.failed")
}

// bareMinimumPlugin implements only the base Plugin interface.
type bareMinimumPlugin struct{ name string }

func (p *bareMinimumPlugin) Name() string { return p.name }

func TestRegistryRegister(t *testing.T) {
	r := plugin.NewRegistry()

	if err := r.Register(&recordingPlugin{name: "recorder"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&bareMinimumPlugin{name: "bare"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if got := r.Count(); got != 2 {
		t.Errorf("Count: got %d, want 2", got)
	}
	if r.Get("recorder") == nil {
		t.Error("Get(recorder): plugin not found")
	}
	if r.Get("missing") != nil {
		t.Error("Get(missing): expected nil")
	}
	if got := len(r.List()); got != 2 {
		t.Errorf("List: got %d plugins, want 2", got)
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	r := plugin.NewRegistry()

	if err := r.Register(&bareMinimumPlugin{name: "dup"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register(&recordingPlugin{name: "dup"}); err == nil {
		t.Error("expected error registering duplicate name")
	}
	if got := r.Count(); got != 1 {
		t.Errorf("Count after duplicate: got %d, want 1", got)
	}
}

func TestRegistryEmitsToHooks(t *testing.T) {
	ctx := context.Background()
	r := plugin.NewRegistry()
	rec := &recordingPlugin{name: "recorder"}
	if err := r.Register(rec); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// A plugin without hooks must not break dispatch.
	if err := r.Register(&bareMinimumPlugin{name: "bare"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	storeID := id.NewStoreID()
	r.EmitInit(ctx, nil)
	r.EmitRoleGranted(ctx, &role.Grant{
		ID:       id.NewGrantID(),
		Identity: "0xowner",
		Role:     role.StoreOwner,
	})
	r.EmitStoreCreated(ctx, &shop.Shop{ID: storeID, Owner: "0xowner", Balance: types.Zero("usd")})
	r.EmitStockDecreased(ctx, storeID, 1, 5)
	r.EmitPurchaseCompleted(ctx, &shop.Purchase{
		ID:        id.NewPurchaseID(),
		StoreID:   storeID,
		Buyer:     "0xshopper",
		ProductID: 1,
		Quantity:  5,
		Total:     types.USD(75),
	}, 0)
	r.EmitWithdrawalFailed(ctx, storeID, "0xowner", types.USD(75), errors.New("gateway down"))
	r.EmitShutdown(ctx)

	want := []string{
		"init",
		"role:storeOwner",
		"store",
		"stock.decreased",
		"purchase",
		"withdrawal.failed",
		"shutdown",
	}
	got := rec.seen()
	if len(got) != len(want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistryContinuesAfterHookError(t *testing.T) {
	ctx := context.Background()
	r := plugin.NewRegistry()

	failing := &recordingPlugin{name: "failing", fail: errors.New("hook failed")}
	healthy := &recordingPlugin{name: "healthy"}
	if err := r.Register(failing); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(healthy); err != nil {
		t.Fatalf("Register: %v", err)
	}

	r.EmitStoreCreated(ctx, &shop.Shop{ID: id.NewStoreID(), Owner: "0xowner", Balance: types.Zero("usd")})

	if got := healthy.seen(); len(got) != 1 || got[0] != "store" {
		t.Errorf("healthy plugin events: got %v, want [store]", got)
	}
}
