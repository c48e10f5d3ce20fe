package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Bazaar store.
var Migrations = migrate.NewGroup("bazaar")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_bazaar_grants",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_grants (
    identity   TEXT PRIMARY KEY,
    id         TEXT NOT NULL DEFAULT '',
    role       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bazaar_grants_role ON bazaar_grants (role, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_grants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bazaar_shops",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_shops (
    id                   TEXT PRIMARY KEY,
    owner                TEXT NOT NULL DEFAULT '',
    name                 TEXT NOT NULL DEFAULT '',
    balance_amount_cents BIGINT NOT NULL DEFAULT 0,
    balance_currency     TEXT NOT NULL DEFAULT '',
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bazaar_shops_owner ON bazaar_shops (owner, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_shops`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bazaar_products",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_products (
    store_id           TEXT NOT NULL,
    product_id         BIGINT NOT NULL,
    name               TEXT NOT NULL DEFAULT '',
    price_amount_cents BIGINT NOT NULL DEFAULT 0,
    price_currency     TEXT NOT NULL DEFAULT '',
    stock              BIGINT NOT NULL DEFAULT 0,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (store_id, product_id)
);

CREATE INDEX IF NOT EXISTS idx_bazaar_products_store ON bazaar_products (store_id, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_products`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bazaar_purchases",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_purchases (
    id                 TEXT PRIMARY KEY,
    store_id           TEXT NOT NULL DEFAULT '',
    buyer              TEXT NOT NULL DEFAULT '',
    product_id         BIGINT NOT NULL DEFAULT 0,
    quantity           BIGINT NOT NULL DEFAULT 0,
    total_amount_cents BIGINT NOT NULL DEFAULT 0,
    total_currency     TEXT NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bazaar_purchases_store ON bazaar_purchases (store_id, created_at);
CREATE INDEX IF NOT EXISTS idx_bazaar_purchases_buyer ON bazaar_purchases (buyer);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_purchases`)
				return err
			},
		},
	)
}
