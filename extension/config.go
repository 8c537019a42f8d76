package extension

import "time"

// Backend names accepted by Config.Backend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMongo    = "mongo"
)

// Config holds the postledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.postledger" or "postledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Administrator is the hex address of the genesis administrator. It is
	// only used when the store holds no settings yet.
	Administrator string `json:"administrator" mapstructure:"administrator" yaml:"administrator"`

	// FeeRecipient is the hex address of the genesis fee recipient.
	FeeRecipient string `json:"fee_recipient" mapstructure:"fee_recipient" yaml:"fee_recipient"`

	// FeeBasisPoints is the genesis platform fee, 0 to 1000.
	FeeBasisPoints int `json:"fee_basis_points" mapstructure:"fee_basis_points" yaml:"fee_basis_points"`

	// Asset is the custody asset symbol (default: "usdc").
	Asset string `json:"asset" mapstructure:"asset" yaml:"asset"`

	// Backend selects the store built around the grove.DB supplied with
	// WithGroveDB: "postgres", "sqlite" or "mongo". Without a grove.DB the
	// in-memory store is used (default: "memory").
	Backend string `json:"backend" mapstructure:"backend" yaml:"backend"`

	// PluginTimeout bounds each plugin hook (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`

	// feeBasisPointsSet records that a config file named fee_basis_points,
	// so an explicit 0 there still wins over a programmatic genesis fee.
	feeBasisPointsSet bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Asset:         "usdc",
		Backend:       BackendMemory,
		PluginTimeout: 5 * time.Second,
	}
}
