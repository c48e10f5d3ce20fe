package extension

// Config holds the Bazaar extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.bazaar" or "bazaar" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for bazaar routes (default: "/bazaar").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// Currency is the single currency every ledger in the registry uses,
	// as a lowercase ISO 4217 code (default: "usd").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// RootAdmins lists identities seeded with the admin role on start.
	RootAdmins []string `json:"root_admins" mapstructure:"root_admins" yaml:"root_admins"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath: "/bazaar",
		Currency: "usd",
	}
}
