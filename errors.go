package bazaar

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios. Every failed operation leaves
// registry and store-ledger state exactly as it was before the call.
var (
	// General errors
	ErrNotFound     = errors.New("bazaar: not found")
	ErrInvalidInput = errors.New("bazaar: invalid input")
	ErrUnauthorized = errors.New("bazaar: unauthorized")

	// Registry errors
	ErrGrantNotFound = errors.New("bazaar: role grant not found")
	ErrShopNotFound  = errors.New("bazaar: store not found")

	// Catalog errors
	ErrProductNotFound  = errors.New("bazaar: product not found")
	ErrDuplicateProduct = errors.New("bazaar: duplicate product id")
	ErrStockOverflow    = errors.New("bazaar: stock overflow")

	// Payment errors
	ErrInsufficientStock   = errors.New("bazaar: insufficient stock")
	ErrIncorrectPayment    = errors.New("bazaar: incorrect payment amount")
	ErrInsufficientBalance = errors.New("bazaar: insufficient balance")

	// Store errors
	ErrStoreNotReady     = errors.New("bazaar: store not ready")
	ErrStoreClosed       = errors.New("bazaar: store is closed")
	ErrTransactionFailed = errors.New("bazaar: transaction failed")
	ErrMigrationFailed   = errors.New("bazaar: migration failed")
)

// GatewayError wraps a failure reported by the external payment gateway.
// The balance debit that preceded the transfer has already been rolled back
// by the time callers see this error.
type GatewayError struct {
	Amount string
	Err    error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("bazaar: gateway transfer of %s failed: %v", e.Amount, e.Err)
}

// Unwrap returns the underlying gateway failure.
func (e *GatewayError) Unwrap() error { return e.Err }

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrGrantNotFound) ||
		errors.Is(err, ErrShopNotFound) ||
		errors.Is(err, ErrProductNotFound)
}

// IsConflict returns true if the error reflects a state the caller can fix by
// correcting the request (wrong payment, too little stock, duplicate id).
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateProduct) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrIncorrectPayment) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrStockOverflow)
}

// IsRetryable returns true if the error is temporary and the operation can be
// retried without changing the request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
