package bazaar_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/store/memory"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize the registry with a seeded root admin
		reg := bazaar.New(store,
			bazaar.WithLogger(slog.Default()),
			bazaar.WithRootAdmin("0xadmin"),
		)

		// Start the engine
		ctx := context.Background()
		if err := reg.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer reg.Stop()

		// Grant roles: admins grant, store owners run stores
		if err := reg.AddStoreOwner(ctx, "0xadmin", "0xpeter"); err != nil {
			t.Fatal(err)
		}

		// Create a store and stock it
		ledger, err := reg.CreateStore(ctx, "0xpeter", "TestStore")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ledger.AddProduct(ctx, "0xpeter", 1, "Carrot", bazaar.USD(15), 10); err != nil {
			t.Fatal(err)
		}

		// Buy with exact payment
		rcpt, err := ledger.Buy(ctx, "0xmary", 1, 5, bazaar.USD(75))
		if err != nil {
			t.Fatal(err)
		}
		if rcpt.Quantity != 5 {
			t.Errorf("quantity: got %d, want 5", rcpt.Quantity)
		}

		// Withdraw the proceeds
		balance, err := ledger.Withdraw(ctx, "0xpeter", bazaar.USD(75))
		if err != nil {
			t.Fatal(err)
		}
		if !balance.IsZero() {
			t.Errorf("balance: got %v, want zero", balance)
		}

		// Resolve the store again by its persisted reference
		resolved, err := reg.Store(ctx, ledger.ID())
		if err != nil {
			t.Fatal(err)
		}
		if resolved.Name() != "TestStore" {
			t.Errorf("name: got %q, want TestStore", resolved.Name())
		}
	})
}
