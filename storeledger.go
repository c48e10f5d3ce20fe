package bazaar

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/shop"
	"github.com/xraph/bazaar/types"
)

// StoreLedger is a handle on one store: its product catalog, stock levels,
// and collected balance. Handles are cheap and stateless — the owner, name,
// and id are the shop's immutable fields, everything mutable is read from and
// written through the registry's store so that any number of handles on the
// same store observe one serialized ledger.
//
// Ownership is checked per operation, not at handle creation: holding a
// handle grants nothing.
type StoreLedger struct {
	reg   *Registry
	id    id.StoreID
	owner types.Identity
	name  string
}

// ID returns the stable store reference.
func (l *StoreLedger) ID() id.StoreID { return l.id }

// Owner returns the identity that created the store.
func (l *StoreLedger) Owner() types.Identity { return l.owner }

// Name returns the store name. No authorization required.
func (l *StoreLedger) Name() string { return l.name }

// requireOwner fails with ErrUnauthorized unless caller owns this store.
func (l *StoreLedger) requireOwner(caller types.Identity) error {
	if caller != l.owner {
		return fmt.Errorf("%w: %s does not own store %s", ErrUnauthorized, caller, l.id)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Catalog management
// ──────────────────────────────────────────────────

// AddProduct inserts a new product into the catalog. Owner only. The product
// id must be a positive integer not already present; id, name, and unit price
// are immutable after insertion.
func (l *StoreLedger) AddProduct(ctx context.Context, caller types.Identity, productID uint64, name string, unitPrice types.Money, stock int64) (*catalog.Product, error) {
	if err := l.requireOwner(caller); err != nil {
		return nil, err
	}
	if productID == 0 {
		return nil, fmt.Errorf("%w: product id must be positive", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty product name", ErrInvalidInput)
	}
	if unitPrice.IsNegative() || unitPrice.Currency != l.reg.currency {
		return nil, fmt.Errorf("%w: unit price must be non-negative %s", ErrInvalidInput, l.reg.currency)
	}
	if stock < 0 {
		return nil, fmt.Errorf("%w: initial stock must be non-negative", ErrInvalidInput)
	}

	p := &catalog.Product{
		Entity:    types.NewEntity(),
		StoreID:   l.id,
		ID:        productID,
		Name:      name,
		UnitPrice: unitPrice,
		Stock:     stock,
	}
	if err := l.reg.store.InsertProduct(ctx, p); err != nil {
		return nil, err
	}

	l.reg.logger.Debug("product added",
		"store_id", l.id,
		"product_id", productID,
		"unit_price", unitPrice,
		"stock", stock,
	)
	l.reg.plugins.EmitProductAdded(ctx, p)
	return p, nil
}

// AddStock increases a product's stock by amount and returns the remaining
// stock. Owner only; amount must be positive and the new total must stay
// within the representable range.
func (l *StoreLedger) AddStock(ctx context.Context, caller types.Identity, productID uint64, amount int64) (int64, error) {
	if err := l.requireOwner(caller); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: stock amount must be positive", ErrInvalidInput)
	}

	remaining, err := l.reg.store.AddStock(ctx, l.id, productID, amount)
	if err != nil {
		return 0, err
	}

	l.reg.plugins.EmitStockIncreased(ctx, l.id, productID, remaining)
	return remaining, nil
}

// RemoveStock decreases a product's stock by amount and returns the remaining
// stock. Owner only; fails with ErrInsufficientStock when amount exceeds the
// current stock. Stock can reach zero but never drops below it — a depleted
// product stays in the catalog and can be restocked.
func (l *StoreLedger) RemoveStock(ctx context.Context, caller types.Identity, productID uint64, amount int64) (int64, error) {
	if err := l.requireOwner(caller); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: stock amount must be positive", ErrInvalidInput)
	}

	remaining, err := l.reg.store.RemoveStock(ctx, l.id, productID, amount)
	if err != nil {
		return 0, err
	}

	l.reg.plugins.EmitStockDecreased(ctx, l.id, productID, remaining)
	return remaining, nil
}

// CheckAvailability reports whether the product can satisfy a purchase of the
// given quantity. No authorization required and no state change; observers
// see the probe through the availability hook.
func (l *StoreLedger) CheckAvailability(ctx context.Context, productID uint64, amount int64) (bool, error) {
	p, err := l.reg.store.GetProduct(ctx, l.id, productID)
	if err != nil {
		return false, err
	}

	available := p.Available(amount)
	l.reg.plugins.EmitAvailabilityChecked(ctx, l.id, productID, amount, available)
	return available, nil
}

// Product returns the catalog record for productID.
func (l *StoreLedger) Product(ctx context.Context, productID uint64) (*catalog.Product, error) {
	return l.reg.store.GetProduct(ctx, l.id, productID)
}

// Products lists the catalog in product-id order. No authorization required.
func (l *StoreLedger) Products(ctx context.Context) ([]*catalog.Product, error) {
	return l.reg.store.ListProducts(ctx, l.id)
}

// ──────────────────────────────────────────────────
// Purchases
// ──────────────────────────────────────────────────

// Buy purchases amount units of a product. The payment must equal
// unitPrice × amount exactly; on success stock is decremented and the shop
// balance credited in one atomic step, and a durable receipt is written. Any
// failure leaves stock, balance, and the caller's payment untouched.
func (l *StoreLedger) Buy(ctx context.Context, caller types.Identity, productID uint64, amount int64, payment types.Money) (*shop.Purchase, error) {
	if caller.IsZero() {
		return nil, fmt.Errorf("%w: empty buyer identity", ErrInvalidInput)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: purchase amount must be positive", ErrInvalidInput)
	}

	p, err := l.reg.store.GetProduct(ctx, l.id, productID)
	if err != nil {
		return nil, err
	}
	if !p.Available(amount) {
		return nil, fmt.Errorf("%w: product %d has %d units, want %d", ErrInsufficientStock, productID, p.Stock, amount)
	}

	total, err := p.UnitPrice.MultiplyChecked(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: total price overflow", ErrInvalidInput)
	}
	if !payment.Equal(total) {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrIncorrectPayment, payment, total)
	}

	rcpt := &shop.Purchase{
		Entity:    types.NewEntity(),
		ID:        id.NewPurchaseID(),
		StoreID:   l.id,
		Buyer:     caller,
		ProductID: productID,
		Quantity:  amount,
		Total:     payment,
	}

	// The store re-checks stock under its own serialization; the availability
	// check above can race with a concurrent purchase.
	remaining, err := l.reg.store.Purchase(ctx, rcpt)
	if err != nil {
		return nil, err
	}

	l.reg.logger.Info("purchase completed",
		"store_id", l.id,
		"product_id", productID,
		"buyer", caller,
		"quantity", amount,
		"total", payment,
		"remaining_stock", remaining,
	)
	l.reg.plugins.EmitPurchaseCompleted(ctx, rcpt, remaining)
	return rcpt, nil
}

// Purchases lists the store's receipts in purchase order. Owner only.
func (l *StoreLedger) Purchases(ctx context.Context, caller types.Identity) ([]*shop.Purchase, error) {
	if err := l.requireOwner(caller); err != nil {
		return nil, err
	}
	return l.reg.store.ListPurchases(ctx, l.id)
}

// ──────────────────────────────────────────────────
// Balance
// ──────────────────────────────────────────────────

// Balance returns the store's collected balance. Owner only.
func (l *StoreLedger) Balance(ctx context.Context, caller types.Identity) (types.Money, error) {
	if err := l.requireOwner(caller); err != nil {
		return types.Money{}, err
	}

	s, err := l.reg.store.GetShop(ctx, l.id)
	if err != nil {
		return types.Money{}, err
	}
	return s.Balance, nil
}

// Withdraw moves amount from the store balance to the owner through the
// external payment gateway and returns the new balance. Owner only; fails
// with ErrInsufficientBalance when amount exceeds the balance. The debit and
// the transfer are all-or-nothing: a gateway failure rolls the debit back and
// surfaces as a *GatewayError.
func (l *StoreLedger) Withdraw(ctx context.Context, caller types.Identity, amount types.Money) (types.Money, error) {
	if err := l.requireOwner(caller); err != nil {
		return types.Money{}, err
	}
	if !amount.IsPositive() || amount.Currency != l.reg.currency {
		return types.Money{}, fmt.Errorf("%w: withdrawal must be a positive %s amount", ErrInvalidInput, l.reg.currency)
	}

	newBalance, err := l.reg.store.DebitBalance(ctx, l.id, amount)
	if err != nil {
		return types.Money{}, err
	}

	if err := l.reg.gateway.Transfer(ctx, caller, amount); err != nil {
		restored, creditErr := l.reg.store.CreditBalance(ctx, l.id, amount)
		if creditErr != nil {
			// The debit is lost until the store recovers; this must never
			// pass silently.
			l.reg.logger.Error("withdrawal rollback failed",
				"store_id", l.id,
				"amount", amount,
				"transfer_error", err,
				"rollback_error", creditErr,
			)
			return types.Money{}, errors.Join(&GatewayError{Amount: amount.String(), Err: err}, creditErr)
		}

		l.reg.logger.Warn("withdrawal transfer failed, balance restored",
			"store_id", l.id,
			"owner", caller,
			"amount", amount,
			"balance", restored,
			"error", err,
		)
		l.reg.plugins.EmitWithdrawalFailed(ctx, l.id, caller, amount, err)
		return types.Money{}, &GatewayError{Amount: amount.String(), Err: err}
	}

	l.reg.logger.Info("withdrawal completed",
		"store_id", l.id,
		"owner", caller,
		"amount", amount,
		"balance", newBalance,
	)
	l.reg.plugins.EmitWithdrawalCompleted(ctx, l.id, caller, amount)
	return newBalance, nil
}
