// Package extension provides the Forge extension adapter for postledger.
//
// It implements the forge.Extension interface to integrate postledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.postledger" or "postledger" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/postledger"
	"github.com/xraph/postledger/store"
	"github.com/xraph/postledger/store/memory"
	"github.com/xraph/postledger/store/mongo"
	"github.com/xraph/postledger/store/postgres"
	"github.com/xraph/postledger/store/sqlite"
	"github.com/xraph/postledger/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "postledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Per-post payment ledger with fee-split withdrawals"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts postledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *postledger.Ledger
	store      store.Store
	groveDB    *grove.DB
	ledgerOpts []postledger.Option
}

// New creates a new postledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *postledger.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
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

	opts, err := e.buildLedgerOpts()
	if err != nil {
		return err
	}

	e.engine = postledger.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*postledger.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("postledger: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
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
		return errors.New("postledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolveStore picks the store: an explicit WithStore first, then a store
// built on the grove.DB for the configured backend, then memory.
func (e *Extension) resolveStore() (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}

	if e.groveDB == nil {
		if e.config.Backend != "" && e.config.Backend != BackendMemory {
			return nil, fmt.Errorf("postledger: backend %q requires a grove database; use WithGroveDB", e.config.Backend)
		}
		return memory.New(), nil
	}

	switch e.config.Backend {
	case BackendPostgres:
		return postgres.New(e.groveDB), nil
	case BackendSQLite:
		return sqlite.New(e.groveDB), nil
	case BackendMongo:
		return mongo.New(e.groveDB), nil
	default:
		return nil, fmt.Errorf("postledger: unsupported backend %q for grove database", e.config.Backend)
	}
}

// buildLedgerOpts constructs postledger.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() ([]postledger.Option, error) {
	opts := make([]postledger.Option, 0, len(e.ledgerOpts)+4)

	opts = append(opts, postledger.WithAutoMigrate(!e.config.DisableMigrate))

	if e.config.PluginTimeout > 0 {
		opts = append(opts, postledger.WithPluginTimeout(e.config.PluginTimeout))
	}

	if e.config.Administrator != "" || e.config.FeeRecipient != "" {
		administrator, err := types.ParseAddress(e.config.Administrator)
		if err != nil {
			return nil, fmt.Errorf("postledger: administrator: %w", err)
		}
		recipient, err := types.ParseAddress(e.config.FeeRecipient)
		if err != nil {
			return nil, fmt.Errorf("postledger: fee_recipient: %w", err)
		}
		opts = append(opts, postledger.WithGenesis(postledger.Genesis{
			Administrator:  administrator,
			FeeRecipient:   recipient,
			FeeBasisPoints: e.config.FeeBasisPoints,
			Asset:          e.config.Asset,
		}))
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts, nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("postledger: configuration is required but not found in config files; " +
				"ensure 'extensions.postledger' or 'postledger' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("postledger: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("administrator", e.config.Administrator),
		forge.F("fee_recipient", e.config.FeeRecipient),
		forge.F("fee_basis_points", e.config.FeeBasisPoints),
		forge.F("asset", e.config.Asset),
		forge.F("backend", e.config.Backend),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.postledger" first (namespaced pattern).
	if cm.IsSet("extensions.postledger") {
		if err := cm.Bind("extensions.postledger", &cfg); err == nil {
			cfg.feeBasisPointsSet = cm.IsSet("extensions.postledger.fee_basis_points")
			e.Logger().Debug("postledger: loaded config from file",
				forge.F("key", "extensions.postledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("postledger: failed to bind extensions.postledger config",
			forge.F("error", "bind failed"),
		)
	}

	// Try short "postledger" key.
	if cm.IsSet("postledger") {
		if err := cm.Bind("postledger", &cfg); err == nil {
			cfg.feeBasisPointsSet = cm.IsSet("postledger.fee_basis_points")
			e.Logger().Debug("postledger: loaded config from file",
				forge.F("key", "postledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("postledger: failed to bind postledger config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Asset == "" {
		cfg.Asset = defaults.Asset
	}
	if cfg.Backend == "" {
		cfg.Backend = defaults.Backend
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Administrator == "" && programmaticConfig.Administrator != "" {
		yamlConfig.Administrator = programmaticConfig.Administrator
	}
	if yamlConfig.FeeRecipient == "" && programmaticConfig.FeeRecipient != "" {
		yamlConfig.FeeRecipient = programmaticConfig.FeeRecipient
	}
	if yamlConfig.Asset == "" && programmaticConfig.Asset != "" {
		yamlConfig.Asset = programmaticConfig.Asset
	}
	if yamlConfig.Backend == "" && programmaticConfig.Backend != "" {
		yamlConfig.Backend = programmaticConfig.Backend
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	// A fee the file sets explicitly, 0 included, is kept.
	if !yamlConfig.feeBasisPointsSet && yamlConfig.FeeBasisPoints == 0 && programmaticConfig.FeeBasisPoints != 0 {
		yamlConfig.FeeBasisPoints = programmaticConfig.FeeBasisPoints
	}
	if yamlConfig.PluginTimeout == 0 && programmaticConfig.PluginTimeout != 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
