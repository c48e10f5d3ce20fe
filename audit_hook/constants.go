package audithook

// Action constants for audit events.
const (
	// Registry actions
	ActionRoleGranted  = "role.granted"
	ActionStoreCreated = "store.created"

	// Catalog actions
	ActionProductAdded        = "product.added"
	ActionStockIncreased      = "stock.increased"
	ActionStockDecreased      = "stock.decreased"
	ActionAvailabilityChecked = "availability.checked"

	// Payment actions
	ActionPurchaseCompleted   = "purchase.completed"
	ActionWithdrawalCompleted = "withdrawal.completed"
	ActionWithdrawalFailed    = "withdrawal.failed"
)

// Resource constants for audit events.
const (
	ResourceGrant    = "grant"
	ResourceStore    = "store"
	ResourceProduct  = "product"
	ResourcePurchase = "purchase"
	ResourceBalance  = "balance"
)

// Category constants for audit events.
const (
	CategoryAccess    = "access"
	CategoryCatalog   = "catalog"
	CategoryInventory = "inventory"
	CategoryPayment   = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
