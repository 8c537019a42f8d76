// Package plugin provides an extensible plugin system for postledger.
// Plugins hook into ledger notifications to add audit trails, metrics or
// relays without touching the accounting path.
package plugin

import (
	"context"

	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/post"
	"github.com/xraph/postledger/settlement"
	"github.com/xraph/postledger/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Registry hooks
// ──────────────────────────────────────────────────

// OnPostRegistered is called after a post is bound to its owner.
type OnPostRegistered interface {
	Plugin
	OnPostRegistered(ctx context.Context, p *post.Post) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnPaymentReceived is called after a payment is credited to a post owner.
type OnPaymentReceived interface {
	Plugin
	OnPaymentReceived(ctx context.Context, a *earnings.Accrual) error
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnWithdrawalMade is called after an owner has been paid out.
type OnWithdrawalMade interface {
	Plugin
	OnWithdrawalMade(ctx context.Context, w *settlement.Withdrawal) error
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnPlatformFeeUpdated is called when the fee rate changes.
type OnPlatformFeeUpdated interface {
	Plugin
	OnPlatformFeeUpdated(ctx context.Context, oldBasisPoints, newBasisPoints int) error
}

// OnPlatformWalletUpdated is called when the fee recipient changes.
type OnPlatformWalletUpdated interface {
	Plugin
	OnPlatformWalletUpdated(ctx context.Context, oldRecipient, newRecipient types.Address) error
}

// OnPauseChanged is called when the ledger is paused or resumed.
type OnPauseChanged interface {
	Plugin
	OnPauseChanged(ctx context.Context, paused bool, by types.Address) error
}

// OnEmergencyRecovered is called after custody has been drained by the administrator.
type OnEmergencyRecovered interface {
	Plugin
	OnEmergencyRecovered(ctx context.Context, r *admin.Recovery) error
}

// OnAdministrationTransferred is called when the administrator changes.
type OnAdministrationTransferred interface {
	Plugin
	OnAdministrationTransferred(ctx context.Context, oldAdmin, newAdmin types.Address) error
}
