// Package catalog defines the per-store product records.
package catalog

import (
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/types"
)

// Product is a named, priced, stocked catalog entry within one store ledger.
// ID and UnitPrice are set once at insertion and never change; only Stock is
// mutated afterwards. A product is never deleted — its stock may reach zero
// and be replenished later.
type Product struct {
	types.Entity
	StoreID   id.StoreID  `json:"store_id"`
	ID        uint64      `json:"id"`
	Name      string      `json:"name"`
	UnitPrice types.Money `json:"unit_price"`
	Stock     int64       `json:"stock"`
}

// Available reports whether the product can satisfy a purchase of the given
// quantity.
func (p *Product) Available(quantity int64) bool {
	return quantity >= 0 && p.Stock >= quantity
}
