package postledger

import (
	"log/slog"
	"time"

	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/custody"
	"github.com/xraph/postledger/plugin"
	"github.com/xraph/postledger/types"
)

// Option configures a Ledger instance.
type Option func(*Ledger)

// Genesis is the initial configuration written to an empty store on Start.
// Settings already present in the store take precedence.
type Genesis struct {
	Administrator  types.Address
	FeeRecipient   types.Address
	FeeBasisPoints int
	Asset          string
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithVault sets the custody vault that pays out withdrawals.
func WithVault(v custody.Vault) Option {
	return func(l *Ledger) {
		l.vault = v
	}
}

// WithAuthorizer replaces the default administrator check.
func WithAuthorizer(a admin.Authorizer) Option {
	return func(l *Ledger) {
		l.authorizer = a
	}
}

// WithGenesis sets the configuration used when the store holds no settings yet.
func WithGenesis(g Genesis) Option {
	return func(l *Ledger) {
		l.genesis = &g
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithPluginTimeout bounds how long each plugin hook may run.
func WithPluginTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithAutoMigrate controls whether Start runs store migrations.
func WithAutoMigrate(enabled bool) Option {
	return func(l *Ledger) {
		l.autoMigrate = enabled
	}
}

// AccrueOption configures a single Accrue call.
type AccrueOption func(*accrueConfig)

type accrueConfig struct {
	reference string
}

// WithAccrualReference attaches an external payment reference, such as the
// settlement hash reported by the payment relay, to the accrual record.
func WithAccrualReference(ref string) AccrueOption {
	return func(c *accrueConfig) {
		c.reference = ref
	}
}
