// Package shop defines the per-store ledger record and its purchase receipts.
package shop

import (
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/types"
)

// Shop is the persisted state of one store ledger: who owns it, what it is
// called, and how much collected revenue is waiting to be withdrawn.
// Owner and Name are set at creation and immutable thereafter. Balance only
// grows through completed purchases and only shrinks through owner
// withdrawals; it is never negative.
type Shop struct {
	types.Entity
	ID      id.StoreID     `json:"id"`
	Owner   types.Identity `json:"owner"`
	Name    string         `json:"name"`
	Balance types.Money    `json:"balance"`
}

// Purchase is the durable receipt written for every completed purchase.
// Receipts are append-only: they are the audit trail that ties a shop's
// balance back to individual sales.
type Purchase struct {
	types.Entity
	ID        id.PurchaseID  `json:"id"`
	StoreID   id.StoreID     `json:"store_id"`
	Buyer     types.Identity `json:"buyer"`
	ProductID uint64         `json:"product_id"`
	Quantity  int64          `json:"quantity"`
	Total     types.Money    `json:"total"`
}
