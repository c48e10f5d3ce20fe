package mongo

import (
	"strconv"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/role"
	"github.com/xraph/bazaar/shop"
	"github.com/xraph/bazaar/types"
)

// ==================== Grant models ====================

type grantModel struct {
	grove.BaseModel `grove:"table:bazaar_grants"`

	Identity  string    `grove:"identity,pk" bson:"_id"`
	ID        string    `grove:"id"          bson:"id"`
	Role      string    `grove:"role"        bson:"role"`
	CreatedAt time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"  bson:"updated_at"`
}

func toGrantModel(g *role.Grant) *grantModel {
	return &grantModel{
		Identity:  string(g.Identity),
		ID:        g.ID.String(),
		Role:      string(g.Role),
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func fromGrantModel(m *grantModel) (*role.Grant, error) {
	grantID, err := id.ParseGrantID(m.ID)
	if err != nil {
		return nil, err
	}

	return &role.Grant{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       grantID,
		Identity: types.Identity(m.Identity),
		Role:     role.Role(m.Role),
	}, nil
}

// ==================== Shop models ====================

type shopModel struct {
	grove.BaseModel `grove:"table:bazaar_shops"`

	ID                 string    `grove:"id,pk"                bson:"_id"`
	Owner              string    `grove:"owner"                bson:"owner"`
	Name               string    `grove:"name"                 bson:"name"`
	BalanceAmountCents int64     `grove:"balance_amount_cents" bson:"balance_amount_cents"`
	BalanceCurrency    string    `grove:"balance_currency"     bson:"balance_currency"`
	CreatedAt          time.Time `grove:"created_at"           bson:"created_at"`
	UpdatedAt          time.Time `grove:"updated_at"           bson:"updated_at"`
}

func toShopModel(sh *shop.Shop) *shopModel {
	return &shopModel{
		ID:                 sh.ID.String(),
		Owner:              string(sh.Owner),
		Name:               sh.Name,
		BalanceAmountCents: sh.Balance.Amount,
		BalanceCurrency:    sh.Balance.Currency,
		CreatedAt:          sh.CreatedAt,
		UpdatedAt:          sh.UpdatedAt,
	}
}

func fromShopModel(m *shopModel) (*shop.Shop, error) {
	storeID, err := id.ParseStoreID(m.ID)
	if err != nil {
		return nil, err
	}

	return &shop.Shop{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:      storeID,
		Owner:   types.Identity(m.Owner),
		Name:    m.Name,
		Balance: types.Money{Amount: m.BalanceAmountCents, Currency: m.BalanceCurrency},
	}, nil
}

// ==================== Product models ====================

type productModel struct {
	grove.BaseModel `grove:"table:bazaar_products"`

	Key              string    `grove:"key,pk"             bson:"_id"`
	StoreID          string    `grove:"store_id"           bson:"store_id"`
	ProductID        int64     `grove:"product_id"         bson:"product_id"`
	Name             string    `grove:"name"               bson:"name"`
	PriceAmountCents int64     `grove:"price_amount_cents" bson:"price_amount_cents"`
	PriceCurrency    string    `grove:"price_currency"     bson:"price_currency"`
	Stock            int64     `grove:"stock"              bson:"stock"`
	CreatedAt        time.Time `grove:"created_at"         bson:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"         bson:"updated_at"`
}

// productKey builds the composite document key for a catalog entry.
func productKey(storeID id.StoreID, productID uint64) string {
	return storeID.String() + ":" + strconv.FormatUint(productID, 10)
}

func toProductModel(p *catalog.Product) *productModel {
	return &productModel{
		Key:              productKey(p.StoreID, p.ID),
		StoreID:          p.StoreID.String(),
		ProductID:        int64(p.ID),
		Name:             p.Name,
		PriceAmountCents: p.UnitPrice.Amount,
		PriceCurrency:    p.UnitPrice.Currency,
		Stock:            p.Stock,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) (*catalog.Product, error) {
	storeID, err := id.ParseStoreID(m.StoreID)
	if err != nil {
		return nil, err
	}

	return &catalog.Product{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		StoreID:   storeID,
		ID:        uint64(m.ProductID),
		Name:      m.Name,
		UnitPrice: types.Money{Amount: m.PriceAmountCents, Currency: m.PriceCurrency},
		Stock:     m.Stock,
	}, nil
}

// ==================== Purchase models ====================

type purchaseModel struct {
	grove.BaseModel `grove:"table:bazaar_purchases"`

	ID               string    `grove:"id,pk"              bson:"_id"`
	StoreID          string    `grove:"store_id"           bson:"store_id"`
	Buyer            string    `grove:"buyer"              bson:"buyer"`
	ProductID        int64     `grove:"product_id"         bson:"product_id"`
	Quantity         int64     `grove:"quantity"           bson:"quantity"`
	TotalAmountCents int64     `grove:"total_amount_cents" bson:"total_amount_cents"`
	TotalCurrency    string    `grove:"total_currency"     bson:"total_currency"`
	CreatedAt        time.Time `grove:"created_at"         bson:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"         bson:"updated_at"`
}

func toPurchaseModel(rcpt *shop.Purchase) *purchaseModel {
	return &purchaseModel{
		ID:               rcpt.ID.String(),
		StoreID:          rcpt.StoreID.String(),
		Buyer:            string(rcpt.Buyer),
		ProductID:        int64(rcpt.ProductID),
		Quantity:         rcpt.Quantity,
		TotalAmountCents: rcpt.Total.Amount,
		TotalCurrency:    rcpt.Total.Currency,
		CreatedAt:        rcpt.CreatedAt,
		UpdatedAt:        rcpt.UpdatedAt,
	}
}

func fromPurchaseModel(m *purchaseModel) (*shop.Purchase, error) {
	purchaseID, err := id.ParsePurchaseID(m.ID)
	if err != nil {
		return nil, err
	}
	storeID, err := id.ParseStoreID(m.StoreID)
	if err != nil {
		return nil, err
	}

	return &shop.Purchase{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        purchaseID,
		StoreID:   storeID,
		Buyer:     types.Identity(m.Buyer),
		ProductID: uint64(m.ProductID),
		Quantity:  m.Quantity,
		Total:     types.Money{Amount: m.TotalAmountCents, Currency: m.TotalCurrency},
	}, nil
}
