// Package mongo implements the Bazaar store on MongoDB via Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	bazaar "github.com/xraph/bazaar"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/role"
	"github.com/xraph/bazaar/shop"
	bazaarstore "github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/types"
)

// Collection name constants.
const (
	colGrants    = "bazaar_grants"
	colShops     = "bazaar_shops"
	colProducts  = "bazaar_products"
	colPurchases = "bazaar_purchases"
)

// compile-time interface check
var _ bazaarstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all bazaar collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("bazaar/mongo: migrate %s indexes: %w", col, err)
		}
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
	// $setOnInsert keeps the original grant time on overwrite so owner
	// ordering stays stable across role changes.
	_, err := s.mdb.NewUpdate((*grantModel)(nil)).
		Filter(bson.M{"_id": m.Identity}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"id":         m.ID,
				"role":       m.Role,
				"updated_at": m.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"created_at": m.CreatedAt,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: upsert role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, identity types.Identity) (*role.Grant, error) {
	var m grantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": string(identity)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bazaar.ErrGrantNotFound
		}
		return nil, fmt.Errorf("bazaar/mongo: get role: %w", err)
	}
	return fromGrantModel(&m)
}

func (s *Store) ListOwners(ctx context.Context) ([]types.Identity, error) {
	var models []grantModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"role": string(role.StoreOwner)}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list owners: %w", err)
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: duplicate store id %s", bazaar.ErrInvalidInput, sh.ID)
		}
		return fmt.Errorf("bazaar/mongo: create shop: %w", err)
	}
	return nil
}

func (s *Store) GetShop(ctx context.Context, storeID id.StoreID) (*shop.Shop, error) {
	var m shopModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": storeID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bazaar.ErrShopNotFound
		}
		return nil, fmt.Errorf("bazaar/mongo: get shop: %w", err)
	}
	return fromShopModel(&m)
}

func (s *Store) ListShopsByOwner(ctx context.Context, owner types.Identity) ([]*shop.Shop, error) {
	var models []shopModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"owner": string(owner)}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list shops by owner: %w", err)
	}
	return fromShopModels(models)
}

func (s *Store) ListAllShops(ctx context.Context) ([]*shop.Shop, error) {
	// Grouped by owner in first-grant order, each owner's shops in creation
	// order. The grant lookup survives role overwrites because UpsertRole
	// never rewrites grant creation times.
	pipeline := bson.A{
		bson.M{"$lookup": bson.M{
			"from":         colGrants,
			"localField":   "owner",
			"foreignField": "_id",
			"as":           "grant",
		}},
		bson.M{"$unwind": bson.M{
			"path":                       "$grant",
			"preserveNullAndEmptyArrays": true,
		}},
		bson.M{"$sort": bson.D{
			{Key: "grant.created_at", Value: 1},
			{Key: "created_at", Value: 1},
		}},
	}

	cursor, err := s.mdb.Collection(colShops).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list all shops: %w", err)
	}
	defer cursor.Close(ctx)

	var models []shopModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list all shops decode: %w", err)
	}
	return fromShopModels(models)
}

// ==================== Catalog Store ====================

func (s *Store) InsertProduct(ctx context.Context, p *catalog.Product) error {
	m := toProductModel(p)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bazaar.ErrDuplicateProduct
		}
		return fmt.Errorf("bazaar/mongo: insert product: %w", err)
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, storeID id.StoreID, productID uint64) (*catalog.Product, error) {
	var m productModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": productKey(storeID, productID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bazaar.ErrProductNotFound
		}
		return nil, fmt.Errorf("bazaar/mongo: get product: %w", err)
	}
	return fromProductModel(&m)
}

func (s *Store) ListProducts(ctx context.Context, storeID id.StoreID) ([]*catalog.Product, error) {
	var models []productModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"store_id": storeID.String()}).
		Sort(bson.D{{Key: "product_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list products: %w", err)
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
	filter := bson.M{
		"_id":   productKey(storeID, productID),
		"stock": bson.M{"$lte": math.MaxInt64 - amount},
	}
	remaining, err := s.incStock(ctx, filter, amount)
	if err != nil {
		if isNoDocuments(err) {
			return 0, s.stockGuardError(ctx, storeID, productID, bazaar.ErrStockOverflow)
		}
		return 0, fmt.Errorf("bazaar/mongo: add stock: %w", err)
	}
	return remaining, nil
}

func (s *Store) RemoveStock(ctx context.Context, storeID id.StoreID, productID uint64, amount int64) (int64, error) {
	filter := bson.M{
		"_id":   productKey(storeID, productID),
		"stock": bson.M{"$gte": amount},
	}
	remaining, err := s.incStock(ctx, filter, -amount)
	if err != nil {
		if isNoDocuments(err) {
			return 0, s.stockGuardError(ctx, storeID, productID, bazaar.ErrInsufficientStock)
		}
		return 0, fmt.Errorf("bazaar/mongo: remove stock: %w", err)
	}
	return remaining, nil
}

// incStock applies a guarded $inc on a product document and returns the
// resulting stock.
func (s *Store) incStock(ctx context.Context, filter bson.M, delta int64) (int64, error) {
	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updated_at": now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m productModel
	err := s.mdb.Collection(colProducts).
		FindOneAndUpdate(ctx, filter, update, opts).
		Decode(&m)
	if err != nil {
		return 0, err
	}
	return m.Stock, nil
}

// stockGuardError tells a missing product apart from a failed guard after a
// conditional update matched no documents.
func (s *Store) stockGuardError(ctx context.Context, storeID id.StoreID, productID uint64, guardErr error) error {
	if _, err := s.GetProduct(ctx, storeID, productID); err != nil {
		return err
	}
	return guardErr
}

// ==================== Purchase Store ====================

// Purchase decrements stock, credits the shop balance, and appends the
// receipt. Each guard runs as a single conditional update; the later steps
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
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		_, debitErr := s.DebitBalance(ctx, rcpt.StoreID, rcpt.Total)
		_, restockErr := s.AddStock(ctx, rcpt.StoreID, rcpt.ProductID, rcpt.Quantity)
		return 0, errors.Join(fmt.Errorf("bazaar/mongo: insert purchase: %w", err), debitErr, restockErr)
	}
	return remaining, nil
}

func (s *Store) ListPurchases(ctx context.Context, storeID id.StoreID) ([]*shop.Purchase, error) {
	var models []purchaseModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"store_id": storeID.String()}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list purchases: %w", err)
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
	filter := bson.M{
		"_id":                  storeID.String(),
		"balance_amount_cents": bson.M{"$gte": amount.Amount},
	}
	balance, err := s.incBalance(ctx, filter, -amount.Amount)
	if err != nil {
		if isNoDocuments(err) {
			return types.Money{}, s.balanceGuardError(ctx, storeID, bazaar.ErrInsufficientBalance)
		}
		return types.Money{}, fmt.Errorf("bazaar/mongo: debit balance: %w", err)
	}
	return types.Money{Amount: balance, Currency: amount.Currency}, nil
}

func (s *Store) CreditBalance(ctx context.Context, storeID id.StoreID, amount types.Money) (types.Money, error) {
	filter := bson.M{
		"_id":                  storeID.String(),
		"balance_amount_cents": bson.M{"$lte": math.MaxInt64 - amount.Amount},
	}
	balance, err := s.incBalance(ctx, filter, amount.Amount)
	if err != nil {
		if isNoDocuments(err) {
			return types.Money{}, s.balanceGuardError(ctx, storeID, types.ErrAmountOverflow)
		}
		return types.Money{}, fmt.Errorf("bazaar/mongo: credit balance: %w", err)
	}
	return types.Money{Amount: balance, Currency: amount.Currency}, nil
}

// incBalance applies a guarded $inc on a shop document and returns the
// resulting balance in cents.
func (s *Store) incBalance(ctx context.Context, filter bson.M, delta int64) (int64, error) {
	update := bson.M{
		"$inc": bson.M{"balance_amount_cents": delta},
		"$set": bson.M{"updated_at": now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m shopModel
	err := s.mdb.Collection(colShops).
		FindOneAndUpdate(ctx, filter, update, opts).
		Decode(&m)
	if err != nil {
		return 0, err
	}
	return m.BalanceAmountCents, nil
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all bazaar collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colGrants: {
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colShops: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colProducts: {
			{Keys: bson.D{{Key: "store_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colPurchases: {
			{Keys: bson.D{{Key: "store_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "buyer", Value: 1}}},
		},
	}
}
