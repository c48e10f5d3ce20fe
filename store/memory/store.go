// Package memory provides an in-memory Store implementation, suitable for
// tests and single-process deployments that do not need durability.
package memory

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/role"
	"github.com/xraph/bazaar/shop"
	"github.com/xraph/bazaar/types"
)

type Store struct {
	mu sync.RWMutex

	// Grant storage, with insertion order preserved for owner listing
	grants     map[types.Identity]*role.Grant
	grantOrder []types.Identity

	// Shop storage, in creation order
	shops     map[string]*shop.Shop
	shopOrder []string

	// Product storage per shop, keyed by caller-chosen product ID
	products map[string]map[uint64]*catalog.Product

	// Purchase receipts per shop, append-only
	purchases map[string][]*shop.Purchase
}

func New() *Store {
	return &Store{
		grants:    make(map[types.Identity]*role.Grant),
		shops:     make(map[string]*shop.Shop),
		products:  make(map[string]map[uint64]*catalog.Product),
		purchases: make(map[string][]*shop.Purchase),
	}
}

// Role methods

func (s *Store) UpsertRole(_ context.Context, g *role.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.grants[g.Identity]; ok {
		// Overwrite keeps the original grant time so owner ordering is stable
		// across role changes.
		g.CreatedAt = prev.CreatedAt
		s.grants[g.Identity] = g
		return nil
	}
	s.grants[g.Identity] = g
	s.grantOrder = append(s.grantOrder, g.Identity)
	return nil
}

func (s *Store) GetRole(_ context.Context, identity types.Identity) (*role.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if g, ok := s.grants[identity]; ok {
		return g, nil
	}
	return nil, bazaar.ErrGrantNotFound
}

func (s *Store) ListOwners(_ context.Context) ([]types.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]types.Identity, 0)
	for _, identity := range s.grantOrder {
		if s.grants[identity].Role == role.StoreOwner {
			owners = append(owners, identity)
		}
	}
	return owners, nil
}

// Shop methods

func (s *Store) CreateShop(_ context.Context, sh *shop.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sh.ID.String()
	if _, exists := s.shops[key]; exists {
		return bazaar.ErrInvalidInput
	}
	s.shops[key] = sh
	s.shopOrder = append(s.shopOrder, key)
	s.products[key] = make(map[uint64]*catalog.Product)
	return nil
}

func (s *Store) GetShop(_ context.Context, storeID id.StoreID) (*shop.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sh, ok := s.shops[storeID.String()]; ok {
		return sh, nil
	}
	return nil, bazaar.ErrShopNotFound
}

func (s *Store) ListShopsByOwner(_ context.Context, owner types.Identity) ([]*shop.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*shop.Shop, 0)
	for _, key := range s.shopOrder {
		if s.shops[key].Owner == owner {
			result = append(result, s.shops[key])
		}
	}
	return result, nil
}

func (s *Store) ListAllShops(_ context.Context) ([]*shop.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Grouped by owner in first-grant order, each owner's shops in creation
	// order. Ordering by grant rather than current role keeps a demoted
	// owner's shops in their original position.
	result := make([]*shop.Shop, 0, len(s.shopOrder))
	seen := make(map[string]bool, len(s.shopOrder))
	for _, identity := range s.grantOrder {
		for _, key := range s.shopOrder {
			if s.shops[key].Owner == identity {
				result = append(result, s.shops[key])
				seen[key] = true
			}
		}
	}
	for _, key := range s.shopOrder {
		if !seen[key] {
			result = append(result, s.shops[key])
		}
	}
	return result, nil
}

// Catalog methods

func (s *Store) InsertProduct(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := p.StoreID.String()
	if _, ok := s.shops[key]; !ok {
		return bazaar.ErrShopNotFound
	}
	if _, exists := s.products[key][p.ID]; exists {
		return bazaar.ErrDuplicateProduct
	}
	s.products[key][p.ID] = p
	return nil
}

func (s *Store) GetProduct(_ context.Context, storeID id.StoreID, productID uint64) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.products[storeID.String()][productID]; ok {
		return p, nil
	}
	return nil, bazaar.ErrProductNotFound
}

func (s *Store) ListProducts(_ context.Context, storeID id.StoreID) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := storeID.String()
	ids := make([]uint64, 0, len(s.products[key]))
	for pid := range s.products[key] {
		ids = append(ids, pid)
	}
	slices.Sort(ids)

	result := make([]*catalog.Product, 0, len(ids))
	for _, pid := range ids {
		result = append(result, s.products[key][pid])
	}
	return result, nil
}

// Stock primitives

func (s *Store) AddStock(_ context.Context, storeID id.StoreID, productID uint64, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[storeID.String()][productID]
	if !ok {
		return 0, bazaar.ErrProductNotFound
	}
	if p.Stock > math.MaxInt64-amount {
		return 0, bazaar.ErrStockOverflow
	}
	p.Stock += amount
	p.Touch()
	return p.Stock, nil
}

func (s *Store) RemoveStock(_ context.Context, storeID id.StoreID, productID uint64, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[storeID.String()][productID]
	if !ok {
		return 0, bazaar.ErrProductNotFound
	}
	if p.Stock < amount {
		return 0, bazaar.ErrInsufficientStock
	}
	p.Stock -= amount
	p.Touch()
	return p.Stock, nil
}

// Purchase atomically re-checks stock, decrements it, credits the shop
// balance, and appends the receipt under a single lock hold.
func (s *Store) Purchase(_ context.Context, rcpt *shop.Purchase) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rcpt.StoreID.String()
	sh, ok := s.shops[key]
	if !ok {
		return 0, bazaar.ErrShopNotFound
	}
	p, ok := s.products[key][rcpt.ProductID]
	if !ok {
		return 0, bazaar.ErrProductNotFound
	}
	if p.Stock < rcpt.Quantity {
		return 0, bazaar.ErrInsufficientStock
	}
	newBalance, err := sh.Balance.AddChecked(rcpt.Total)
	if err != nil {
		return 0, err
	}

	p.Stock -= rcpt.Quantity
	p.Touch()
	sh.Balance = newBalance
	sh.Touch()
	s.purchases[key] = append(s.purchases[key], rcpt)
	return p.Stock, nil
}

func (s *Store) ListPurchases(_ context.Context, storeID id.StoreID) ([]*shop.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := storeID.String()
	result := make([]*shop.Purchase, len(s.purchases[key]))
	copy(result, s.purchases[key])
	return result, nil
}

// Balance primitives

func (s *Store) DebitBalance(_ context.Context, storeID id.StoreID, amount types.Money) (types.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shops[storeID.String()]
	if !ok {
		return types.Money{}, bazaar.ErrShopNotFound
	}
	if !sh.Balance.Covers(amount) {
		return types.Money{}, bazaar.ErrInsufficientBalance
	}
	sh.Balance = sh.Balance.Subtract(amount)
	sh.Touch()
	return sh.Balance, nil
}

func (s *Store) CreditBalance(_ context.Context, storeID id.StoreID, amount types.Money) (types.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shops[storeID.String()]
	if !ok {
		return types.Money{}, bazaar.ErrShopNotFound
	}
	newBalance, err := sh.Balance.AddChecked(amount)
	if err != nil {
		return types.Money{}, err
	}
	sh.Balance = newBalance
	sh.Touch()
	return sh.Balance, nil
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}
