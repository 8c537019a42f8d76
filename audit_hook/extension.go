// Package audithook bridges postledger notifications to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/id"
	"github.com/xraph/postledger/plugin"
	"github.com/xraph/postledger/post"
	"github.com/xraph/postledger/settlement"
	"github.com/xraph/postledger/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                      = (*Extension)(nil)
	_ plugin.OnPostRegistered            = (*Extension)(nil)
	_ plugin.OnPaymentReceived           = (*Extension)(nil)
	_ plugin.OnWithdrawalMade            = (*Extension)(nil)
	_ plugin.OnPlatformFeeUpdated        = (*Extension)(nil)
	_ plugin.OnPlatformWalletUpdated     = (*Extension)(nil)
	_ plugin.OnPauseChanged              = (*Extension)(nil)
	_ plugin.OnEmergencyRecovered        = (*Extension)(nil)
	_ plugin.OnAdministrationTransferred = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single entry in the audit trail.
type AuditEvent struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger notifications to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// OnPostRegistered implements plugin.OnPostRegistered.
func (e *Extension) OnPostRegistered(ctx context.Context, p *post.Post) error {
	return e.record(ctx, ActionPostRegistered, SeverityInfo, OutcomeSuccess,
		ResourcePost, p.ID, CategoryRegistry, nil,
		"owner", p.Owner.Hex(),
	)
}

// OnPaymentReceived implements plugin.OnPaymentReceived.
func (e *Extension) OnPaymentReceived(ctx context.Context, a *earnings.Accrual) error {
	kv := []any{
		"post_id", a.PostID,
		"owner", a.Owner.Hex(),
		"amount", a.Amount.Amount,
		"asset", a.Amount.Asset,
	}
	if a.Reference != "" {
		kv = append(kv, "reference", a.Reference)
	}
	return e.record(ctx, ActionPaymentReceived, SeverityInfo, OutcomeSuccess,
		ResourceAccrual, a.ID.String(), CategoryEarnings, nil,
		kv...,
	)
}

// OnWithdrawalMade implements plugin.OnWithdrawalMade.
func (e *Extension) OnWithdrawalMade(ctx context.Context, w *settlement.Withdrawal) error {
	return e.record(ctx, ActionWithdrawalMade, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, w.ID.String(), CategorySettlement, nil,
		"owner", w.Owner.Hex(),
		"gross", w.Gross.Amount,
		"fee", w.Fee.Amount,
		"net", w.Net.Amount,
		"fee_recipient", w.FeeRecipient.Hex(),
	)
}

// OnPlatformFeeUpdated implements plugin.OnPlatformFeeUpdated.
func (e *Extension) OnPlatformFeeUpdated(ctx context.Context, oldBP, newBP int) error {
	return e.record(ctx, ActionPlatformFeeUpdated, SeverityWarning, OutcomeSuccess,
		ResourceSettings, "", CategoryAdmin, nil,
		"old_fee_basis_points", oldBP,
		"new_fee_basis_points", newBP,
	)
}

// OnPlatformWalletUpdated implements plugin.OnPlatformWalletUpdated.
func (e *Extension) OnPlatformWalletUpdated(ctx context.Context, oldRecipient, newRecipient types.Address) error {
	return e.record(ctx, ActionPlatformWalletUpdated, SeverityWarning, OutcomeSuccess,
		ResourceSettings, "", CategoryAdmin, nil,
		"old_fee_recipient", oldRecipient.Hex(),
		"new_fee_recipient", newRecipient.Hex(),
	)
}

// OnPauseChanged implements plugin.OnPauseChanged.
func (e *Extension) OnPauseChanged(ctx context.Context, paused bool, by types.Address) error {
	action := ActionLedgerResumed
	if paused {
		action = ActionLedgerPaused
	}
	return e.record(ctx, action, SeverityWarning, OutcomeSuccess,
		ResourceSettings, "", CategoryAdmin, nil,
		"by", by.Hex(),
	)
}

// OnEmergencyRecovered implements plugin.OnEmergencyRecovered.
func (e *Extension) OnEmergencyRecovered(ctx context.Context, r *admin.Recovery) error {
	return e.record(ctx, ActionEmergencyRecovered, SeverityCritical, OutcomeSuccess,
		ResourceCustody, r.ID.String(), CategoryAdmin, nil,
		"administrator", r.Administrator.Hex(),
		"amount", r.Amount.Amount,
		"asset", r.Amount.Asset,
	)
}

// OnAdministrationTransferred implements plugin.OnAdministrationTransferred.
func (e *Extension) OnAdministrationTransferred(ctx context.Context, oldAdmin, newAdmin types.Address) error {
	return e.record(ctx, ActionAdministrationTransferred, SeverityCritical, OutcomeSuccess,
		ResourceSettings, "", CategoryAdmin, nil,
		"old_administrator", oldAdmin.Hex(),
		"new_administrator", newAdmin.Hex(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		ID:         id.NewAuditEventID().String(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
		Timestamp:  e.now().UTC(),
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
