// Package postgres implements the Bazaar store on PostgreSQL via Grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	bazaar "github.com/xraph/bazaar"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/role"
	"github.com/xraph/bazaar/shop"
	bazaarstore "github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/types"
)

// compile-time interface check
var _ bazaarstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("bazaar/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("bazaar/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Role Store ====================

func (s *Store) UpsertRole(ctx context.Context, g *role.Grant) error {
	m := toGrantModel(g)
	// created_at is intentionally left out of the conflict update so an
	// overwritten grant keeps its original position in owner ordering.
	_, err := s.pg.NewInsert(m).
		OnConflict("(identity) DO UPDATE").
		Set("id = EXCLUDED.id").
		Set("role = EXCLUDED.role").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetRole(ctx context.Context, identity types.Identity) (*role.Grant, error) {
	m := new(grantModel)
	err := s.pg.NewSelect(m).
		Where("identity = ?", string(identity)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, bazaar.ErrGrantNotFound
		}
		return nil, err
	}
	return fromGrantModel(m)
}

func (s *Store) ListOwners(ctx context.Context) ([]types.Identity, error) {
	var models []grantModel
	err := s.pg.NewSelect(&models).
		Where("role = ?", string(role.StoreOwner)).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	owners := make([]types.Identity, len(models))
	for i := range models {
		owners[i] = types.Identity(models[i].Identity)
	}
	return owners, nil
}

// ==================== Shop Store ====================

func (s *Store) CreateShop(ctx context.Context, sh *shop.Shop) error {
	m := toShopModel(sh)
	res, err := s.pg.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: duplicate store id %s", bazaar.ErrInvalidInput, sh.ID)
	}
	return nil
}

func (s *Store) GetShop(ctx context.Context, storeID id.StoreID) (*shop.Shop, error) {
	m := new(shopModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", storeID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, bazaar.ErrShopNotFound
		}
		return nil, err
	}
	return fromShopModel(m)
}

func (s *Store) ListShopsByOwner(ctx context.Context, owner types.Identity) ([]*shop.Shop, error) {
	var models []shopModel
	err := s.pg.NewSelect(&models).
		Where("owner = ?", string(owner)).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromShopModels(models)
}

func (s *Store) ListAllShops(ctx context.Context) ([]*shop.Shop, error) {
	// Grouped by owner in first-grant order, each owner's shops in creation
	// order. The join key survives role overwrites because UpsertRole never
	// rewrites grant creation times.
	var models []shopModel
	err := s.pg.NewRaw(`
		SELECT s.id, s.owner, s.name, s.balance_amount_cents, s.balance_currency, s.created_at, s.updated_at
		FROM bazaar_shops s
		LEFT JOIN bazaar_grants g ON g.identity = s.owner
		ORDER BY g.created_at ASC, s.created_at ASC
	`).Scan(ctx, &models)
	if err != nil {
		return nil, err
	}
	return fromShopModels(models)
}

// ==================== Catalog Store ====================

func (s *Store) InsertProduct(ctx context.Context, p *catalog.Product) error {
	m := toProductModel(p)
	res, err := s.pg.NewInsert(m).
		OnConflict("(store_id, product_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return bazaar.ErrDuplicateProduct
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, storeID id.StoreID, productID uint64) (*catalog.Product, error) {
	m := new(productModel)
	err := s.pg.NewSelect(m).
		Where("store_id = ?", storeID.String()).
		Where("product_id = ?", int64(productID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, bazaar.ErrProductNotFound
		}
		return nil, err
	}
	return fromProductModel(m)
}

func (s *Store) ListProducts(ctx context.Context, storeID id.StoreID) ([]*catalog.Product, error) {
	var models []productModel
	err := s.pg.NewSelect(&models).
		Where("store_id = ?", storeID.String()).
		OrderExpr("product_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*catalog.Product, len(models))
	for i := range models {
		p, err := fromProductModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Stock primitives ====================

func (s *Store) AddStock(ctx context.Context, storeID id.StoreID, productID uint64, amount int64) (int64, error) {
	var remaining int64
	err := s.pg.NewRaw(`
		UPDATE bazaar_products
		SET stock = stock + ?, updated_at = ?
		WHERE store_id = ? AND product_id = ? AND stock <= ?
		RETURNING stock
	`, amount, now(), storeID.String(), int64(productID), math.MaxInt64-amount).Scan(ctx, &remaining)
	if err != nil {
		if isNoRows(err) {
			return 0, s.stockGuardError(ctx, storeID, productID, bazaar.ErrStockOverflow)
		}
		return 0, err
	}
	return remaining, nil
}

func (s *Store) RemoveStock(ctx context.Context, storeID id.StoreID, productID uint64, amount int64) (int64, error) {
	var remaining int64
	err := s.pg.NewRaw(`
		UPDATE bazaar_products
		SET stock = stock - ?, updated_at = ?
		WHERE store_id = ? AND product_id = ? AND stock >= ?
		RETURNING stock
	`, amount, now(), storeID.String(), int64(productID), amount).Scan(ctx, &remaining)
	if err != nil {
		if isNoRows(err) {
			return 0, s.stockGuardError(ctx, storeID, productID, bazaar.ErrInsufficientStock)
		}
		return 0, err
	}
	return remaining, nil
}

// stockGuardError tells a missing product apart from a failed guard after a
// conditional update matched no rows.
func (s *Store) stockGuardError(ctx context.Context, storeID id.StoreID, productID uint64, guardErr error) error {
	if _, err := s.GetProduct(ctx, storeID, productID); err != nil {
		return err
	}
	return guardErr
}

// ==================== Purchase Store ====================

// Purchase decrements stock, credits the shop balance, and appends the
// receipt. Each guard runs as a single conditional statement; the later steps
// only fail on storage faults and are compensated so the ledger never keeps a
// partial purchase.
func (s *Store) Purchase(ctx context.Context, rcpt *shop.Purchase) (int64, error) {
	if _, err := s.GetShop(ctx, rcpt.StoreID); err != nil {
		return 0, err
	}

	remaining, err := s.RemoveStock(ctx, rcpt.StoreID, rcpt.ProductID, rcpt.Quantity)
	if err != nil {
		return 0, err
	}

	if _, err := s.CreditBalance(ctx, rcpt.StoreID, rcpt.Total); err != nil {
		_, restockErr := s.AddStock(ctx, rcpt.StoreID, rcpt.ProductID, rcpt.Quantity)
		return 0, errors.Join(err, restockErr)
	}

	m := toPurchaseModel(rcpt)
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		_, debitErr := s.DebitBalance(ctx, rcpt.StoreID, rcpt.Total)
		_, restockErr := s.AddStock(ctx, rcpt.StoreID, rcpt.ProductID, rcpt.Quantity)
		return 0, errors.Join(err, debitErr, restockErr)
	}
	return remaining, nil
}

func (s *Store) ListPurchases(ctx context.Context, storeID id.StoreID) ([]*shop.Purchase, error) {
	var models []purchaseModel
	err := s.pg.NewSelect(&models).
		Where("store_id = ?", storeID.String()).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*shop.Purchase, len(models))
	for i := range models {
		rcpt, err := fromPurchaseModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = rcpt
	}
	return result, nil
}

// ==================== Balance primitives ====================

func (s *Store) DebitBalance(ctx context.Context, storeID id.StoreID, amount types.Money) (types.Money, error) {
	var balance int64
	err := s.pg.NewRaw(`
		UPDATE bazaar_shops
		SET balance_amount_cents = balance_amount_cents - ?, updated_at = ?
		WHERE id = ? AND balance_amount_cents >= ?
		RETURNING balance_amount_cents
	`, amount.Amount, now(), storeID.String(), amount.Amount).Scan(ctx, &balance)
	if err != nil {
		if isNoRows(err) {
			return types.Money{}, s.balanceGuardError(ctx, storeID, bazaar.ErrInsufficientBalance)
		}
		return types.Money{}, err
	}
	return types.Money{Amount: balance, Currency: amount.Currency}, nil
}

func (s *Store) CreditBalance(ctx context.Context, storeID id.StoreID, amount types.Money) (types.Money, error) {
	var balance int64
	err := s.pg.NewRaw(`
		UPDATE bazaar_shops
		SET balance_amount_cents = balance_amount_cents + ?, updated_at = ?
		WHERE id = ? AND balance_amount_cents <= ?
		RETURNING balance_amount_cents
	`, amount.Amount, now(), storeID.String(), math.MaxInt64-amount.Amount).Scan(ctx, &balance)
	if err != nil {
		if isNoRows(err) {
			return types.Money{}, s.balanceGuardError(ctx, storeID, types.ErrAmountOverflow)
		}
		return types.Money{}, err
	}
	return types.Money{Amount: balance, Currency: amount.Currency}, nil
}

func (s *Store) balanceGuardError(ctx context.Context, storeID id.StoreID, guardErr error) error {
	if _, err := s.GetShop(ctx, storeID); err != nil {
		return err
	}
	return guardErr
}

// ==================== Helpers ====================

func fromShopModels(models []shopModel) ([]*shop.Shop, error) {
	result := make([]*shop.Shop, len(models))
	for i := range models {
		sh, err := fromShopModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sh
	}
	return result, nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
