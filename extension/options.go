package extension

import (
	"github.com/xraph/grove"

	bazaar "github.com/xraph/bazaar"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/store"
)

// Option configures the Bazaar Forge extension.
type Option func(*Extension)

// WithStore sets the store for the bazaar registry.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithBazaarOption passes a bazaar.Option through to the underlying registry.
func WithBazaarOption(opt bazaar.Option) Option {
	return func(e *Extension) {
		e.bazaarOpts = append(e.bazaarOpts, opt)
	}
}

// WithPlugin registers a bazaar plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.bazaarOpts = append(e.bazaarOpts, bazaar.WithPlugin(p))
	}
}

// WithGateway sets the payment gateway used for withdrawals.
func WithGateway(g bazaar.Gateway) Option {
	return func(e *Extension) {
		e.bazaarOpts = append(e.bazaarOpts, bazaar.WithGateway(g))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for bazaar routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithCurrency sets the single currency for every ledger in the registry.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithRootAdmins seeds the given identities with the admin role on start.
func WithRootAdmins(identities ...string) Option {
	return func(e *Extension) {
		e.config.RootAdmins = append(e.config.RootAdmins, identities...)
	}
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithGroveDatabase backs the registry with the given grove database.
// The extension auto-constructs the appropriate store backend
// (postgres/sqlite/mongo) from the grove driver type; Register fails when the
// driver is not one of the three. An explicit WithStore takes precedence.
func WithGroveDatabase(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
	}
}
