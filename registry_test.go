package bazaar_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/role"
	"github.com/xraph/bazaar/store/memory"
)

const (
	admin   = bazaar.Identity("0xadmin")
	alice   = bazaar.Identity("0xalice")
	bob     = bazaar.Identity("0xbob")
	shopper = bazaar.Identity("0xshopper")
)

func newRegistry(t *testing.T, opts ...bazaar.Option) *bazaar.Registry {
	t.Helper()
	opts = append([]bazaar.Option{
		bazaar.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		bazaar.WithRootAdmin(admin),
	}, opts...)
	reg := bazaar.New(memory.New(), opts...)
	if err := reg.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		if err := reg.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	})
	return reg
}

func TestDefaultRoleIsShopper(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)

	got, err := reg.RoleOf(ctx, shopper)
	if err != nil {
		t.Fatalf("RoleOf: %v", err)
	}
	if got != role.Shopper {
		t.Errorf("got %q, want %q", got, role.Shopper)
	}
}

func TestRootAdminSeeded(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)

	got, err := reg.RoleOf(ctx, admin)
	if err != nil {
		t.Fatalf("RoleOf: %v", err)
	}
	if got != role.Admin {
		t.Errorf("got %q, want %q", got, role.Admin)
	}
}

func TestAddAdmin(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)

	if err := reg.AddAdmin(ctx, admin, alice); err != nil {
		t.Fatalf("AddAdmin: %v", err)
	}
	got, err := reg.RoleOf(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if got != role.Admin {
		t.Errorf("got %q, want %q", got, role.Admin)
	}

	t.Run("NonAdminCannotGrant", func(t *testing.T) {
		if err := reg.AddAdmin(ctx, shopper, bob); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
		if got, _ := reg.RoleOf(ctx, bob); got != role.Shopper {
			t.Errorf("bob's role: got %q, want %q", got, role.Shopper)
		}
	})

	t.Run("EmptyIdentity", func(t *testing.T) {
		if err := reg.AddAdmin(ctx, admin, ""); !errors.Is(err, bazaar.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})
}

func TestAddStoreOwner(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)

	if err := reg.AddStoreOwner(ctx, admin, alice); err != nil {
		t.Fatalf("AddStoreOwner: %v", err)
	}
	got, err := reg.RoleOf(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if got != role.StoreOwner {
		t.Errorf("got %q, want %q", got, role.StoreOwner)
	}

	t.Run("StoreOwnerCannotGrant", func(t *testing.T) {
		if err := reg.AddStoreOwner(ctx, alice, bob); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("RegrantOverwritesRole", func(t *testing.T) {
		// Roles are exclusive: granting Admin to an owner replaces the grant.
		if err := reg.AddAdmin(ctx, admin, alice); err != nil {
			t.Fatalf("AddAdmin: %v", err)
		}
		if got, _ := reg.RoleOf(ctx, alice); got != role.Admin {
			t.Errorf("got %q, want %q", got, role.Admin)
		}
	})
}

func TestCreateStore(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	if err := reg.AddStoreOwner(ctx, admin, alice); err != nil {
		t.Fatal(err)
	}

	ledger, err := reg.CreateStore(ctx, alice, "Alice's Veggies")
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if ledger.Owner() != alice {
		t.Errorf("Owner: got %q, want %q", ledger.Owner(), alice)
	}
	if ledger.Name() != "Alice's Veggies" {
		t.Errorf("Name: got %q, want %q", ledger.Name(), "Alice's Veggies")
	}
	if ledger.ID().IsNil() {
		t.Error("store id is nil")
	}

	t.Run("AdminCannotCreate", func(t *testing.T) {
		if _, err := reg.CreateStore(ctx, admin, "Admin Store"); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("ShopperCannotCreate", func(t *testing.T) {
		if _, err := reg.CreateStore(ctx, shopper, "Pop-up"); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("EmptyName", func(t *testing.T) {
		if _, err := reg.CreateStore(ctx, alice, ""); !errors.Is(err, bazaar.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})
}

func TestStoreResolvesReference(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	if err := reg.AddStoreOwner(ctx, admin, alice); err != nil {
		t.Fatal(err)
	}

	created, err := reg.CreateStore(ctx, alice, "Veggies")
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := reg.Store(ctx, created.ID())
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if resolved.ID().String() != created.ID().String() {
		t.Errorf("got %s, want %s", resolved.ID(), created.ID())
	}
	if resolved.Owner() != alice {
		t.Errorf("Owner: got %q, want %q", resolved.Owner(), alice)
	}

	t.Run("UnknownReference", func(t *testing.T) {
		if _, err := reg.Store(ctx, id.NewStoreID()); !errors.Is(err, bazaar.ErrShopNotFound) {
			t.Errorf("got %v, want ErrShopNotFound", err)
		}
	})
}

func TestGetStoresVisibility(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)

	// Alice is granted first, Bob second; the marketplace view groups by
	// grant order regardless of creation interleaving.
	if err := reg.AddStoreOwner(ctx, admin, alice); err != nil {
		t.Fatal(err)
	}
	if err := reg.AddStoreOwner(ctx, admin, bob); err != nil {
		t.Fatal(err)
	}

	names := []struct {
		owner bazaar.Identity
		name  string
	}{
		{alice, "Alice One"},
		{bob, "Bob One"},
		{alice, "Alice Two"},
	}
	for _, n := range names {
		if _, err := reg.CreateStore(ctx, n.owner, n.name); err != nil {
			t.Fatalf("CreateStore(%s): %v", n.name, err)
		}
	}

	t.Run("OwnerSeesOnlyOwn", func(t *testing.T) {
		ledgers, err := reg.GetStores(ctx, alice)
		if err != nil {
			t.Fatalf("GetStores: %v", err)
		}
		want := []string{"Alice One", "Alice Two"}
		if len(ledgers) != len(want) {
			t.Fatalf("got %d stores, want %d", len(ledgers), len(want))
		}
		for i, name := range want {
			if ledgers[i].Name() != name {
				t.Errorf("store[%d]: got %q, want %q", i, ledgers[i].Name(), name)
			}
		}
	})

	for _, caller := range []bazaar.Identity{admin, shopper} {
		t.Run("MarketplaceView_"+string(caller), func(t *testing.T) {
			ledgers, err := reg.GetStores(ctx, caller)
			if err != nil {
				t.Fatalf("GetStores: %v", err)
			}
			want := []string{"Alice One", "Alice Two", "Bob One"}
			if len(ledgers) != len(want) {
				t.Fatalf("got %d stores, want %d", len(ledgers), len(want))
			}
			for i, name := range want {
				if ledgers[i].Name() != name {
					t.Errorf("store[%d]: got %q, want %q", i, ledgers[i].Name(), name)
				}
			}
		})
	}
}

func TestCurrencyOption(t *testing.T) {
	reg := newRegistry(t, bazaar.WithCurrency("eur"))
	if got := reg.Currency(); got != "eur" {
		t.Errorf("Currency: got %q, want %q", got, "eur")
	}
}
