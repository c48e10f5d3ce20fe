// Package role defines the mutually exclusive caller roles and the persisted
// grant record.
package role

import (
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/types"
)

// Role classifies a caller identity. Every identity has exactly one role at
// any time. Admin and StoreOwner are explicit grants; Shopper is the computed
// default for any identity without a grant and is never stored.
type Role string

const (
	Admin      Role = "admin"
	StoreOwner Role = "storeOwner"
	Shopper    Role = "shopper"
)

// Grantable reports whether the role can be written as an explicit grant.
// Shopper is derived, never granted.
func (r Role) Grantable() bool {
	return r == Admin || r == StoreOwner
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == Admin || r == StoreOwner || r == Shopper
}

// String returns the wire representation of the role.
func (r Role) String() string { return string(r) }

// Grant is a persisted explicit role assignment. A later grant for the same
// identity overwrites the earlier one: roles are exclusive, not additive.
type Grant struct {
	types.Entity
	ID       id.GrantID     `json:"id"`
	Identity types.Identity `json:"identity"`
	Role     Role           `json:"role"`
}
