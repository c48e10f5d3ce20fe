// Package extension provides the Forge extension adapter for Bazaar.
//
// It implements the forge.Extension interface to integrate Bazaar
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.bazaar" or "bazaar" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/vessel"

	bazaar "github.com/xraph/bazaar"
	"github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/store/memory"
	"github.com/xraph/bazaar/store/mongo"
	"github.com/xraph/bazaar/store/postgres"
	"github.com/xraph/bazaar/store/sqlite"
	"github.com/xraph/bazaar/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "bazaar"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Role-gated marketplace registry and store ledgers"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Bazaar as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	registry   *bazaar.Registry
	store      store.Store
	groveDB    *grove.DB
	bazaarOpts []bazaar.Option
}

// New creates a new Bazaar Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the underlying Bazaar registry.
// This is nil until Register is called.
func (e *Extension) Registry() *bazaar.Registry { return e.registry }

// Register implements [forge.Extension]. It loads configuration,
// initializes the bazaar registry, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	s, err := e.resolveStore()
	if err != nil {
		return err
	}
	e.store = s

	// Build registry options from resolved config.
	opts := e.buildBazaarOpts()

	reg := bazaar.New(e.store, opts...)
	e.registry = reg

	return vessel.Provide(fapp.Container(), func() (*bazaar.Registry, error) {
		return e.registry, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.registry == nil {
		return errors.New("bazaar: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.registry.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.registry != nil {
		if err := e.registry.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("bazaar: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolveStore picks the backing store: an explicit store wins, then a
// provided grove database, then the in-memory fallback.
func (e *Extension) resolveStore() (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	if e.groveDB != nil {
		return storeFromGrove(e.groveDB)
	}
	return memory.New(), nil
}

// storeFromGrove selects the store backend matching the database driver.
func storeFromGrove(db *grove.DB) (store.Store, error) {
	switch {
	case sqlitedriver.Unwrap(db) != nil:
		return sqlite.New(db), nil
	case pgdriver.Unwrap(db) != nil:
		return postgres.New(db), nil
	case mongodriver.Unwrap(db) != nil:
		return mongo.New(db), nil
	}
	return nil, errors.New("bazaar: grove database uses an unsupported driver; want sqlite, postgres, or mongo")
}

// buildBazaarOpts constructs bazaar.Option values from the resolved config.
func (e *Extension) buildBazaarOpts() []bazaar.Option {
	opts := make([]bazaar.Option, 0, len(e.bazaarOpts)+1+len(e.config.RootAdmins))

	if e.config.Currency != "" {
		opts = append(opts, bazaar.WithCurrency(e.config.Currency))
	}
	for _, admin := range e.config.RootAdmins {
		opts = append(opts, bazaar.WithRootAdmin(types.Identity(admin)))
	}

	// Append any pass-through bazaar options.
	opts = append(opts, e.bazaarOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("bazaar: configuration is required but not found in config files; " +
				"ensure 'extensions.bazaar' or 'bazaar' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("bazaar: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("currency", e.config.Currency),
		forge.F("root_admins", len(e.config.RootAdmins)),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.bazaar" first (namespaced pattern).
	if cm.IsSet("extensions.bazaar") {
		if err := cm.Bind("extensions.bazaar", &cfg); err == nil {
			e.Logger().Debug("bazaar: loaded config from file",
				forge.F("key", "extensions.bazaar"),
			)
			return cfg, true
		}
		e.Logger().Warn("bazaar: failed to bind extensions.bazaar config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "bazaar" key.
	if cm.IsSet("bazaar") {
		if err := cm.Bind("bazaar", &cfg); err == nil {
			e.Logger().Debug("bazaar: loaded config from file",
				forge.F("key", "bazaar"),
			)
			return cfg, true
		}
		e.Logger().Warn("bazaar: failed to bind bazaar config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.Currency == "" && programmaticConfig.Currency != "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}

	// Root admins from both sources are merged, YAML first.
	if len(programmaticConfig.RootAdmins) > 0 {
		yamlConfig.RootAdmins = append(yamlConfig.RootAdmins, programmaticConfig.RootAdmins...)
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
