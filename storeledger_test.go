package bazaar_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/types"
)

func newStore(t *testing.T, reg *bazaar.Registry) *bazaar.StoreLedger {
	t.Helper()
	ctx := context.Background()
	if err := reg.AddStoreOwner(ctx, admin, alice); err != nil {
		t.Fatalf("AddStoreOwner: %v", err)
	}
	ledger, err := reg.CreateStore(ctx, alice, "Alice's Veggies")
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	return ledger
}

func TestAddProduct(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	ledger := newStore(t, reg)

	p, err := ledger.AddProduct(ctx, alice, 1, "Carrot", bazaar.USD(15), 10)
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if p.ID != 1 || p.Name != "Carrot" || p.Stock != 10 {
		t.Errorf("unexpected product: %+v", p)
	}
	if !p.UnitPrice.Equal(bazaar.USD(15)) {
		t.Errorf("UnitPrice: got %v, want %v", p.UnitPrice, bazaar.USD(15))
	}

	tests := []struct {
		name      string
		caller    bazaar.Identity
		productID uint64
		prodName  string
		price     bazaar.Money
		stock     int64
		wantErr   error
	}{
		{"NonOwner", shopper, 2, "Potato", bazaar.USD(5), 1, bazaar.ErrUnauthorized},
		{"DuplicateID", alice, 1, "Turnip", bazaar.USD(5), 1, bazaar.ErrDuplicateProduct},
		{"ZeroID", alice, 0, "Potato", bazaar.USD(5), 1, bazaar.ErrInvalidInput},
		{"EmptyName", alice, 2, "", bazaar.USD(5), 1, bazaar.ErrInvalidInput},
		{"NegativePrice", alice, 2, "Potato", bazaar.USD(-5), 1, bazaar.ErrInvalidInput},
		{"WrongCurrency", alice, 2, "Potato", bazaar.EUR(5), 1, bazaar.ErrInvalidInput},
		{"NegativeStock", alice, 2, "Potato", bazaar.USD(5), -1, bazaar.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.AddProduct(ctx, tt.caller, tt.productID, tt.prodName, tt.price, tt.stock)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStockManagement(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	ledger := newStore(t, reg)
	if _, err := ledger.AddProduct(ctx, alice, 1, "Carrot", bazaar.USD(15), 10); err != nil {
		t.Fatal(err)
	}

	remaining, err := ledger.AddStock(ctx, alice, 1, 5)
	if err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	if remaining != 15 {
		t.Errorf("after add: got %d, want 15", remaining)
	}

	remaining, err = ledger.RemoveStock(ctx, alice, 1, 10)
	if err != nil {
		t.Fatalf("RemoveStock: %v", err)
	}
	if remaining != 5 {
		t.Errorf("after remove: got %d, want 5", remaining)
	}

	t.Run("RemoveBeyondStock", func(t *testing.T) {
		if _, err := ledger.RemoveStock(ctx, alice, 1, 6); !errors.Is(err, bazaar.ErrInsufficientStock) {
			t.Errorf("got %v, want ErrInsufficientStock", err)
		}
	})

	t.Run("NonOwner", func(t *testing.T) {
		if _, err := ledger.AddStock(ctx, shopper, 1, 5); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Errorf("AddStock: got %v, want ErrUnauthorized", err)
		}
		if _, err := ledger.RemoveStock(ctx, shopper, 1, 5); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Errorf("RemoveStock: got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		if _, err := ledger.AddStock(ctx, alice, 1, 0); !errors.Is(err, bazaar.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
		if _, err := ledger.RemoveStock(ctx, alice, 1, -1); !errors.Is(err, bazaar.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		if _, err := ledger.AddStock(ctx, alice, 1, math.MaxInt64); !errors.Is(err, bazaar.ErrStockOverflow) {
			t.Errorf("got %v, want ErrStockOverflow", err)
		}
	})
}

func TestProductsListedByID(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	ledger := newStore(t, reg)

	for _, p := range []struct {
		id   uint64
		name string
	}{
		{5, "Potato"},
		{2, "Carrot"},
		{9, "Turnip"},
	} {
		if _, err := ledger.AddProduct(ctx, alice, p.id, p.name, bazaar.USD(15), 10); err != nil {
			t.Fatalf("AddProduct(%d): %v", p.id, err)
		}
	}

	products, err := ledger.Products(ctx)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	want := []uint64{2, 5, 9}
	if len(products) != len(want) {
		t.Fatalf("got %d products, want %d", len(products), len(want))
	}
	for i, pid := range want {
		if products[i].ID != pid {
			t.Errorf("product[%d]: got id %d, want %d", i, products[i].ID, pid)
		}
	}
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	ledger := newStore(t, reg)
	if _, err := ledger.AddProduct(ctx, alice, 1, "Carrot", bazaar.USD(15), 5); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		amount int64
		want   bool
	}{
		{"Exact", 5, true},
		{"Partial", 3, true},
		{"TooMany", 10, false},
		{"Zero", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Anyone may probe availability, shoppers included.
			got, err := ledger.CheckAvailability(ctx, 1, tt.amount)
			if err != nil {
				t.Fatalf("CheckAvailability: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("MissingProduct", func(t *testing.T) {
		if _, err := ledger.CheckAvailability(ctx, 99, 1); !errors.Is(err, bazaar.ErrProductNotFound) {
			t.Errorf("got %v, want ErrProductNotFound", err)
		}
	})
}

func TestBuy(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	ledger := newStore(t, reg)
	if _, err := ledger.AddProduct(ctx, alice, 1, "Carrot", bazaar.USD(15), 10); err != nil {
		t.Fatal(err)
	}

	rcpt, err := ledger.Buy(ctx, shopper, 1, 5, bazaar.USD(75))
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if rcpt.Buyer != shopper || rcpt.ProductID != 1 || rcpt.Quantity != 5 {
		t.Errorf("unexpected receipt: %+v", rcpt)
	}
	if !rcpt.Total.Equal(bazaar.USD(75)) {
		t.Errorf("Total: got %v, want %v", rcpt.Total, bazaar.USD(75))
	}

	p, err := ledger.Product(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Stock != 5 {
		t.Errorf("stock after buy: got %d, want 5", p.Stock)
	}

	balance, err := ledger.Balance(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if !balance.Equal(bazaar.USD(75)) {
		t.Errorf("balance: got %v, want %v", balance, bazaar.USD(75))
	}

	receipts, err := ledger.Purchases(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(receipts) != 1 || receipts[0].ID.String() != rcpt.ID.String() {
		t.Errorf("receipts: got %+v", receipts)
	}
}

func TestBuyRejectsIncorrectPayment(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	ledger := newStore(t, reg)
	if _, err := ledger.AddProduct(ctx, alice, 1, "Carrot", bazaar.USD(15), 10); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		payment bazaar.Money
	}{
		{"Underpay", bazaar.USD(74)},
		{"Overpay", bazaar.USD(76)},
		{"WrongCurrency", bazaar.EUR(75)},
		{"Zero", bazaar.USD(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Buy(ctx, shopper, 1, 5, tt.payment)
			if !errors.Is(err, bazaar.ErrIncorrectPayment) {
				t.Errorf("got %v, want ErrIncorrectPayment", err)
			}
		})
	}

	// Nothing may have changed.
	p, err := ledger.Product(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Stock != 10 {
		t.Errorf("stock: got %d, want 10", p.Stock)
	}
	balance, err := ledger.Balance(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if !balance.IsZero() {
		t.Errorf("balance: got %v, want zero", balance)
	}
}

func TestBuyEdgeCases(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	ledger := newStore(t, reg)
	if _, err := ledger.AddProduct(ctx, alice, 1, "Carrot", bazaar.USD(15), 10); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.AddProduct(ctx, alice, 2, "Gold Bar", bazaar.USD(math.MaxInt64/2), 10); err != nil {
		t.Fatal(err)
	}

	t.Run("InsufficientStock", func(t *testing.T) {
		if _, err := ledger.Buy(ctx, shopper, 1, 11, bazaar.USD(165)); !errors.Is(err, bazaar.ErrInsufficientStock) {
			t.Errorf("got %v, want ErrInsufficientStock", err)
		}
	})

	t.Run("MissingProduct", func(t *testing.T) {
		if _, err := ledger.Buy(ctx, shopper, 99, 1, bazaar.USD(15)); !errors.Is(err, bazaar.ErrProductNotFound) {
			t.Errorf("got %v, want ErrProductNotFound", err)
		}
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		if _, err := ledger.Buy(ctx, shopper, 1, 0, bazaar.USD(0)); !errors.Is(err, bazaar.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("EmptyBuyer", func(t *testing.T) {
		if _, err := ledger.Buy(ctx, "", 1, 1, bazaar.USD(15)); !errors.Is(err, bazaar.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("TotalOverflow", func(t *testing.T) {
		if _, err := ledger.Buy(ctx, shopper, 2, 3, bazaar.USD(1)); !errors.Is(err, bazaar.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("OwnerCanBuy", func(t *testing.T) {
		// The owner acts as a shopper on their own store.
		if _, err := ledger.Buy(ctx, alice, 1, 1, bazaar.USD(15)); err != nil {
			t.Errorf("Buy: %v", err)
		}
	})
}

func TestConcurrentBuysNeverOversell(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	ledger := newStore(t, reg)

	const stock = 5
	const buyers = 20
	if _, err := ledger.AddProduct(ctx, alice, 1, "Carrot", bazaar.USD(15), stock); err != nil {
		t.Fatal(err)
	}

	errs := make([]error, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			buyer := bazaar.Identity(fmt.Sprintf("0xbuyer%d", i))
			_, err := ledger.Buy(ctx, buyer, 1, 1, bazaar.USD(15))
			errs[i] = err
		}(i)
	}
	wg.Wait()

	var sold, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			sold++
		case errors.Is(err, bazaar.ErrInsufficientStock):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if sold != stock {
		t.Errorf("successful buys: got %d, want %d", sold, stock)
	}
	if rejected != buyers-stock {
		t.Errorf("rejected buys: got %d, want %d", rejected, buyers-stock)
	}

	p, err := ledger.Product(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Stock != 0 {
		t.Errorf("final stock: got %d, want 0", p.Stock)
	}

	balance, err := ledger.Balance(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if want := bazaar.USD(15 * stock); !balance.Equal(want) {
		t.Errorf("final balance: got %v, want %v", balance, want)
	}

	receipts, err := ledger.Purchases(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(receipts) != stock {
		t.Errorf("receipts: got %d, want %d", len(receipts), stock)
	}
}

func TestOwnerOnlyReads(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	ledger := newStore(t, reg)

	if _, err := ledger.Balance(ctx, shopper); !errors.Is(err, bazaar.ErrUnauthorized) {
		t.Errorf("Balance: got %v, want ErrUnauthorized", err)
	}
	if _, err := ledger.Purchases(ctx, admin); !errors.Is(err, bazaar.ErrUnauthorized) {
		t.Errorf("Purchases: got %v, want ErrUnauthorized", err)
	}
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	ledger := newStore(t, reg)
	if _, err := ledger.AddProduct(ctx, alice, 1, "Carrot", bazaar.USD(15), 10); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Buy(ctx, shopper, 1, 5, bazaar.USD(75)); err != nil {
		t.Fatal(err)
	}

	balance, err := ledger.Withdraw(ctx, alice, bazaar.USD(75))
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("balance after withdraw: got %v, want zero", balance)
	}

	t.Run("BeyondBalance", func(t *testing.T) {
		if _, err := ledger.Withdraw(ctx, alice, bazaar.USD(1)); !errors.Is(err, bazaar.ErrInsufficientBalance) {
			t.Errorf("got %v, want ErrInsufficientBalance", err)
		}
	})

	t.Run("NonOwner", func(t *testing.T) {
		if _, err := ledger.Withdraw(ctx, shopper, bazaar.USD(1)); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		if _, err := ledger.Withdraw(ctx, alice, bazaar.USD(0)); !errors.Is(err, bazaar.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("WrongCurrency", func(t *testing.T) {
		if _, err := ledger.Withdraw(ctx, alice, bazaar.EUR(1)); !errors.Is(err, bazaar.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})
}

// withdrawalWatcher records withdrawal outcomes reported through the plugin
// hooks.
type withdrawalWatcher struct {
	mu        sync.Mutex
	completed int
	failed    int
}

func (w *withdrawalWatcher) Name() string { return "withdrawal-watcher" }

func (w *withdrawalWatcher) OnWithdrawalCompleted(ctx context.Context, storeID id.StoreID, owner types.Identity, amount types.Money) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.completed++
	return nil
}

func (w *withdrawalWatcher) OnWithdrawalFailed(ctx context.Context, storeID id.StoreID, owner types.Identity, amount types.Money, failure error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failed++
	return nil
}

func TestWithdrawGatewayFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	transferErr := errors.New("gateway down")
	watcher := &withdrawalWatcher{}
	reg := newRegistry(t,
		bazaar.WithGateway(bazaar.GatewayFunc(func(ctx context.Context, to types.Identity, amount types.Money) error {
			return transferErr
		})),
		bazaar.WithPlugin(watcher),
	)
	ledger := newStore(t, reg)
	if _, err := ledger.AddProduct(ctx, alice, 1, "Carrot", bazaar.USD(15), 10); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Buy(ctx, shopper, 1, 5, bazaar.USD(75)); err != nil {
		t.Fatal(err)
	}

	_, err := ledger.Withdraw(ctx, alice, bazaar.USD(50))
	if err == nil {
		t.Fatal("expected gateway failure")
	}
	var gatewayErr *bazaar.GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Errorf("got %T, want *GatewayError", err)
	}
	if !errors.Is(err, transferErr) {
		t.Errorf("error chain does not include the transfer error: %v", err)
	}

	// The debit must have been rolled back.
	balance, err := ledger.Balance(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if !balance.Equal(bazaar.USD(75)) {
		t.Errorf("balance after rollback: got %v, want %v", balance, bazaar.USD(75))
	}

	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	if watcher.failed != 1 {
		t.Errorf("failed hook calls: got %d, want 1", watcher.failed)
	}
	if watcher.completed != 0 {
		t.Errorf("completed hook calls: got %d, want 0", watcher.completed)
	}
}

// The end-to-end flow from the Solidity-style marketplace walkthrough: a
// single product is stocked, adjusted, bought out, and the proceeds withdrawn.
func TestMarketplaceLifecycle(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	ledger := newStore(t, reg)

	if _, err := ledger.AddProduct(ctx, alice, 1, "Carrot", bazaar.USD(15), 10); err != nil {
		t.Fatal(err)
	}

	remaining, err := ledger.AddStock(ctx, alice, 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 15 {
		t.Fatalf("stock: got %d, want 15", remaining)
	}

	remaining, err = ledger.RemoveStock(ctx, alice, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 5 {
		t.Fatalf("stock: got %d, want 5", remaining)
	}

	available, err := ledger.CheckAvailability(ctx, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if available {
		t.Error("10 units should not be available")
	}

	if _, err := ledger.Buy(ctx, shopper, 1, 5, bazaar.USD(75)); err != nil {
		t.Fatal(err)
	}
	p, err := ledger.Product(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Stock != 0 {
		t.Errorf("stock after buyout: got %d, want 0", p.Stock)
	}

	if _, err := ledger.Buy(ctx, bob, 1, 1, bazaar.USD(15)); !errors.Is(err, bazaar.ErrInsufficientStock) {
		t.Errorf("got %v, want ErrInsufficientStock", err)
	}

	balance, err := ledger.Withdraw(ctx, alice, bazaar.USD(75))
	if err != nil {
		t.Fatal(err)
	}
	if !balance.IsZero() {
		t.Errorf("final balance: got %v, want zero", balance)
	}

	if _, err := ledger.Withdraw(ctx, alice, bazaar.USD(1)); !errors.Is(err, bazaar.ErrInsufficientBalance) {
		t.Errorf("got %v, want ErrInsufficientBalance", err)
	}
}
