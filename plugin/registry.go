package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/post"
	"github.com/xraph/postledger/settlement"
	"github.com/xraph/postledger/types"
)

// DefaultTimeout bounds how long a single hook may run.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                      []OnInit
	onShutdown                  []OnShutdown
	onPostRegistered            []OnPostRegistered
	onPaymentReceived           []OnPaymentReceived
	onWithdrawalMade            []OnWithdrawalMade
	onPlatformFeeUpdated        []OnPlatformFeeUpdated
	onPlatformWalletUpdated     []OnPlatformWalletUpdated
	onPauseChanged              []OnPauseChanged
	onEmergencyRecovered        []OnEmergencyRecovered
	onAdministrationTransferred []OnAdministrationTransferred
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnPostRegistered); ok {
		r.onPostRegistered = append(r.onPostRegistered, v)
	}
	if v, ok := p.(OnPaymentReceived); ok {
		r.onPaymentReceived = append(r.onPaymentReceived, v)
	}
	if v, ok := p.(OnWithdrawalMade); ok {
		r.onWithdrawalMade = append(r.onWithdrawalMade, v)
	}
	if v, ok := p.(OnPlatformFeeUpdated); ok {
		r.onPlatformFeeUpdated = append(r.onPlatformFeeUpdated, v)
	}
	if v, ok := p.(OnPlatformWalletUpdated); ok {
		r.onPlatformWalletUpdated = append(r.onPlatformWalletUpdated, v)
	}
	if v, ok := p.(OnPauseChanged); ok {
		r.onPauseChanged = append(r.onPauseChanged, v)
	}
	if v, ok := p.(OnEmergencyRecovered); ok {
		r.onEmergencyRecovered = append(r.onEmergencyRecovered, v)
	}
	if v, ok := p.(OnAdministrationTransferred); ok {
		r.onAdministrationTransferred = append(r.onAdministrationTransferred, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnPostRegistered", reflect.TypeOf((*OnPostRegistered)(nil)).Elem()},
	{"OnPaymentReceived", reflect.TypeOf((*OnPaymentReceived)(nil)).Elem()},
	{"OnWithdrawalMade", reflect.TypeOf((*OnWithdrawalMade)(nil)).Elem()},
	{"OnPlatformFeeUpdated", reflect.TypeOf((*OnPlatformFeeUpdated)(nil)).Elem()},
	{"OnPlatformWalletUpdated", reflect.TypeOf((*OnPlatformWalletUpdated)(nil)).Elem()},
	{"OnPauseChanged", reflect.TypeOf((*OnPauseChanged)(nil)).Elem()},
	{"OnEmergencyRecovered", reflect.TypeOf((*OnEmergencyRecovered)(nil)).Elem()},
	{"OnAdministrationTransferred", reflect.TypeOf((*OnAdministrationTransferred)(nil)).Elem()},
}

// implementedInterfaces returns the hook interfaces implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			interfaces = append(interfaces, h.name)
		}
	}
	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInit", plugins, func(p OnInit) error {
		return p.OnInit(ctx, ledger)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	dispatch(ctx, r, "OnShutdown", plugins, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitPostRegistered emits a post registered event.
func (r *Registry) EmitPostRegistered(ctx context.Context, p *post.Post) {
	r.mu.RLock()
	plugins := r.onPostRegistered
	r.mu.RUnlock()

	dispatch(ctx, r, "OnPostRegistered", plugins, func(h OnPostRegistered) error {
		return h.OnPostRegistered(ctx, p)
	})
}

// EmitPaymentReceived emits a payment received event.
func (r *Registry) EmitPaymentReceived(ctx context.Context, a *earnings.Accrual) {
	r.mu.RLock()
	plugins := r.onPaymentReceived
	r.mu.RUnlock()

	dispatch(ctx, r, "OnPaymentReceived", plugins, func(h OnPaymentReceived) error {
		return h.OnPaymentReceived(ctx, a)
	})
}

// EmitWithdrawalMade emits a withdrawal event.
func (r *Registry) EmitWithdrawalMade(ctx context.Context, w *settlement.Withdrawal) {
	r.mu.RLock()
	plugins := r.onWithdrawalMade
	r.mu.RUnlock()

	dispatch(ctx, r, "OnWithdrawalMade", plugins, func(h OnWithdrawalMade) error {
		return h.OnWithdrawalMade(ctx, w)
	})
}

// EmitPlatformFeeUpdated emits a fee change event.
func (r *Registry) EmitPlatformFeeUpdated(ctx context.Context, oldBP, newBP int) {
	r.mu.RLock()
	plugins := r.onPlatformFeeUpdated
	r.mu.RUnlock()

	dispatch(ctx, r, "OnPlatformFeeUpdated", plugins, func(h OnPlatformFeeUpdated) error {
		return h.OnPlatformFeeUpdated(ctx, oldBP, newBP)
	})
}

// EmitPlatformWalletUpdated emits a fee recipient change event.
func (r *Registry) EmitPlatformWalletUpdated(ctx context.Context, oldRecipient, newRecipient types.Address) {
	r.mu.RLock()
	plugins := r.onPlatformWalletUpdated
	r.mu.RUnlock()

	dispatch(ctx, r, "OnPlatformWalletUpdated", plugins, func(h OnPlatformWalletUpdated) error {
		return h.OnPlatformWalletUpdated(ctx, oldRecipient, newRecipient)
	})
}

// EmitPauseChanged emits a pause or resume event.
func (r *Registry) EmitPauseChanged(ctx context.Context, paused bool, by types.Address) {
	r.mu.RLock()
	plugins := r.onPauseChanged
	r.mu.RUnlock()

	dispatch(ctx, r, "OnPauseChanged", plugins, func(h OnPauseChanged) error {
		return h.OnPauseChanged(ctx, paused, by)
	})
}

// EmitEmergencyRecovered emits an emergency recovery event.
func (r *Registry) EmitEmergencyRecovered(ctx context.Context, rec *admin.Recovery) {
	r.mu.RLock()
	plugins := r.onEmergencyRecovered
	r.mu.RUnlock()

	dispatch(ctx, r, "OnEmergencyRecovered", plugins, func(h OnEmergencyRecovered) error {
		return h.OnEmergencyRecovered(ctx, rec)
	})
}

// EmitAdministrationTransferred emits an administrator change event.
func (r *Registry) EmitAdministrationTransferred(ctx context.Context, oldAdmin, newAdmin types.Address) {
	r.mu.RLock()
	plugins := r.onAdministrationTransferred
	r.mu.RUnlock()

	dispatch(ctx, r, "OnAdministrationTransferred", plugins, func(h OnAdministrationTransferred) error {
		return h.OnAdministrationTransferred(ctx, oldAdmin, newAdmin)
	})
}

// dispatch runs fn for every plugin in order. Failures are logged and never
// propagate to the caller.
func dispatch[T Plugin](ctx context.Context, r *Registry, hook string, plugins []T, fn func(T) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("plugin panic: %s: %v", pluginName, rec)
			}
		}()
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
