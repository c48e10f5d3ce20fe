package bazaar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/role"
	"github.com/xraph/bazaar/shop"
	"github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/types"
)

// Registry is the marketplace engine. It owns the identity→role mapping and
// the set of store ledgers, acts as the factory for new stores, and hands out
// *StoreLedger references for per-store operations.
//
// A Registry is explicitly constructed and passed by reference; there is no
// package-level instance. All state lives in the injected store.Store, so a
// Registry can be re-created over an existing store and every previously
// issued store reference remains resolvable.
type Registry struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	gateway Gateway

	// Configuration
	currency   string
	rootAdmins []types.Identity
}

// New creates a new Registry instance over the given store.
func New(s store.Store, opts ...Option) *Registry {
	r := &Registry{
		store:    s,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		gateway:  accountingGateway{},
		currency: "usd",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Option configures a Registry instance.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
		r.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(r *Registry) {
		_ = r.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithGateway sets the external payment gateway used by withdrawals.
func WithGateway(g Gateway) Option {
	return func(r *Registry) {
		r.gateway = g
	}
}

// WithCurrency sets the single currency (ISO 4217 lowercase) all prices,
// payments, and balances are denominated in. Defaults to "usd".
func WithCurrency(currency string) Option {
	return func(r *Registry) {
		r.currency = currency
	}
}

// WithRootAdmin seeds an identity as Admin during Start. Without at least one
// root admin on a fresh store, no identity can ever grant a role.
func WithRootAdmin(identity types.Identity) Option {
	return func(r *Registry) {
		r.rootAdmins = append(r.rootAdmins, identity)
	}
}

// Currency returns the currency the registry is denominated in.
func (r *Registry) Currency() string { return r.currency }

// Start migrates the store, seeds root admins, and initializes plugins.
func (r *Registry) Start(ctx context.Context) error {
	if err := r.store.Migrate(ctx); err != nil {
		return err
	}

	for _, identity := range r.rootAdmins {
		if err := r.grant(ctx, identity, role.Admin); err != nil {
			return fmt.Errorf("seed root admin %s: %w", identity, err)
		}
	}

	r.plugins.EmitInit(ctx, r)

	r.logger.Info("registry started",
		"currency", r.currency,
		"root_admins", len(r.rootAdmins),
	)

	return nil
}

// Stop shuts down the Registry.
func (r *Registry) Stop() error {
	ctx := context.Background()
	r.plugins.EmitShutdown(ctx)

	return r.store.Close()
}

// ──────────────────────────────────────────────────
// Access control
// ──────────────────────────────────────────────────

// RoleOf classifies an identity. It returns the explicitly granted role when
// one exists and Shopper otherwise; an identity never has more than one role.
func (r *Registry) RoleOf(ctx context.Context, identity types.Identity) (role.Role, error) {
	g, err := r.store.GetRole(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrGrantNotFound) {
			return role.Shopper, nil
		}
		return "", err
	}
	return g.Role, nil
}

// requireRole fails with ErrUnauthorized unless caller holds want.
func (r *Registry) requireRole(ctx context.Context, caller types.Identity, want role.Role) error {
	got, err := r.RoleOf(ctx, caller)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s requires role %s, caller has %s", ErrUnauthorized, caller, want, got)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Role management
// ──────────────────────────────────────────────────

// AddAdmin grants target the Admin role. Only an Admin may call it.
// Granting Admin to an identity that already holds it is a no-op overwrite.
func (r *Registry) AddAdmin(ctx context.Context, caller, target types.Identity) error {
	if err := r.requireRole(ctx, caller, role.Admin); err != nil {
		return err
	}
	return r.grant(ctx, target, role.Admin)
}

// AddStoreOwner grants target the StoreOwner role. Only an Admin may call it.
// A previous Admin grant on target is overwritten: roles are exclusive.
func (r *Registry) AddStoreOwner(ctx context.Context, caller, target types.Identity) error {
	if err := r.requireRole(ctx, caller, role.Admin); err != nil {
		return err
	}
	return r.grant(ctx, target, role.StoreOwner)
}

func (r *Registry) grant(ctx context.Context, target types.Identity, newRole role.Role) error {
	if target.IsZero() {
		return fmt.Errorf("%w: empty identity", ErrInvalidInput)
	}
	if !newRole.Grantable() {
		return fmt.Errorf("%w: role %s cannot be granted", ErrInvalidInput, newRole)
	}

	g := &role.Grant{
		Entity:   types.NewEntity(),
		ID:       id.NewGrantID(),
		Identity: target,
		Role:     newRole,
	}
	if err := r.store.UpsertRole(ctx, g); err != nil {
		return err
	}

	r.logger.Info("role granted",
		"identity", target,
		"role", newRole,
	)
	r.plugins.EmitRoleGranted(ctx, g)
	return nil
}

// ──────────────────────────────────────────────────
// Store factory
// ──────────────────────────────────────────────────

// CreateStore allocates a new store ledger owned by caller. Only a StoreOwner
// may call it; Admins manage roles but do not run stores.
func (r *Registry) CreateStore(ctx context.Context, caller types.Identity, name string) (*StoreLedger, error) {
	if err := r.requireRole(ctx, caller, role.StoreOwner); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty store name", ErrInvalidInput)
	}

	s := &shop.Shop{
		Entity:  types.NewEntity(),
		ID:      id.NewStoreID(),
		Owner:   caller,
		Name:    name,
		Balance: types.Zero(r.currency),
	}
	if err := r.store.CreateShop(ctx, s); err != nil {
		return nil, err
	}

	r.logger.Info("store created",
		"store_id", s.ID,
		"owner", caller,
		"name", name,
	)
	r.plugins.EmitStoreCreated(ctx, s)

	return r.ledger(s), nil
}

// GetStores returns the store ledgers visible to caller. A StoreOwner sees
// only their own stores in creation order; an Admin or Shopper sees every
// store, grouped by owner in first-grant order. The asymmetry is deliberate:
// owners manage their stores, everyone else browses the marketplace.
func (r *Registry) GetStores(ctx context.Context, caller types.Identity) ([]*StoreLedger, error) {
	callerRole, err := r.RoleOf(ctx, caller)
	if err != nil {
		return nil, err
	}

	var shops []*shop.Shop
	if callerRole == role.StoreOwner {
		shops, err = r.store.ListShopsByOwner(ctx, caller)
	} else {
		shops, err = r.store.ListAllShops(ctx)
	}
	if err != nil {
		return nil, err
	}

	ledgers := make([]*StoreLedger, len(shops))
	for i, s := range shops {
		ledgers[i] = r.ledger(s)
	}
	return ledgers, nil
}

// Store resolves a persisted store reference into a *StoreLedger handle.
// References are TypeID strings, so they survive process restarts.
func (r *Registry) Store(ctx context.Context, storeID id.StoreID) (*StoreLedger, error) {
	s, err := r.store.GetShop(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return r.ledger(s), nil
}

func (r *Registry) ledger(s *shop.Shop) *StoreLedger {
	return &StoreLedger{
		reg:   r,
		id:    s.ID,
		owner: s.Owner,
		name:  s.Name,
	}
}
