// Package bazaar provides a role-gated marketplace registry and per-store
// ledger for Go applications.
//
// Bazaar is designed as a library, not a service. Import it directly into
// your Go application and drive it from your own transport layer. It
// provides:
//
//   - Exclusive caller roles (admin, store owner, shopper) with shopper as
//     the computed default
//   - A registry that grants roles and acts as the factory for store ledgers
//   - Per-store product catalogs with strictly non-negative stock
//   - Exact-payment purchases where stock decrement and balance credit are a
//     single atomic step
//   - Owner withdrawals with all-or-nothing settlement against an external
//     payment gateway
//   - Pluggable persistence (memory, SQLite, PostgreSQL, MongoDB)
//   - Lifecycle hooks for audit trails and metrics
//
// # Quick Start
//
// Create a registry instance with your preferred store:
//
//	import (
//	    "github.com/xraph/bazaar"
//	    "github.com/xraph/bazaar/store/memory"
//	)
//
//	reg := bazaar.New(memory.New(),
//	    bazaar.WithRootAdmin("0xadmin"),
//	)
//	if err := reg.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer reg.Stop()
//
// # Core Concepts
//
// Roles gate every command. Admins grant roles, store owners run stores,
// everyone else is a shopper:
//
//	reg.AddStoreOwner(ctx, "0xadmin", "0xpeter")
//	ledger, err := reg.CreateStore(ctx, "0xpeter", "TestStore")
//
// A StoreLedger handle manages one store's catalog and money:
//
//	ledger.AddProduct(ctx, "0xpeter", 1, "Carrot", bazaar.USD(15), 10)
//	ledger.Buy(ctx, "0xmary", 1, 5, bazaar.USD(75))
//	ledger.Withdraw(ctx, "0xpeter", bazaar.USD(75))
//
// Every mutating operation takes the caller identity explicitly — the core
// never discovers identity or funds on its own — and either completes fully
// or fails leaving state untouched.
//
// All monetary calculations use integer arithmetic in the smallest currency
// unit; stock additions and price totals are overflow-checked.
//
// # TypeID
//
// Store references use TypeID for globally unique, type-safe identifiers:
//
//	store_01h2xcejqtf2nbrexx3vqjhp41  // Store reference
//	pur_01h455vb4pex5vsknk084sn02q   // Purchase receipt
//
// References are plain strings, so external holders can persist them and
// resolve them again after a process restart.
package bazaar
