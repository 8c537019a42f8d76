package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/postledger"
	"github.com/xraph/postledger/custody"
	"github.com/xraph/postledger/plugin"
	"github.com/xraph/postledger/store"
)

// Option configures the postledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine. It takes precedence over
// WithGroveDB.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB sets the grove database the store is built on. backend is one
// of "postgres", "sqlite" or "mongo"; an empty backend keeps the configured one.
func WithGroveDB(db *grove.DB, backend string) Option {
	return func(e *Extension) {
		e.groveDB = db
		if backend != "" {
			e.config.Backend = backend
		}
	}
}

// WithLedgerOption passes a postledger.Option through to the underlying engine.
func WithLedgerOption(opt postledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, postledger.WithPlugin(p))
	}
}

// WithVault sets the custody vault that pays out withdrawals.
func WithVault(v custody.Vault) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, postledger.WithVault(v))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithGenesis sets the administrator, fee recipient and fee used to
// initialize an empty store.
func WithGenesis(administrator, feeRecipient string, feeBasisPoints int) Option {
	return func(e *Extension) {
		e.config.Administrator = administrator
		e.config.FeeRecipient = feeRecipient
		e.config.FeeBasisPoints = feeBasisPoints
	}
}

// WithAsset sets the custody asset symbol.
func WithAsset(asset string) Option {
	return func(e *Extension) { e.config.Asset = asset }
}

// WithPluginTimeout bounds how long each plugin hook may run.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}
