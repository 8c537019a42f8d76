// Package observability provides a metrics extension for postledger that
// counts ledger notifications through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/plugin"
	"github.com/xraph/postledger/post"
	"github.com/xraph/postledger/settlement"
	"github.com/xraph/postledger/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                      = (*MetricsExtension)(nil)
	_ plugin.OnInit                      = (*MetricsExtension)(nil)
	_ plugin.OnPostRegistered            = (*MetricsExtension)(nil)
	_ plugin.OnPaymentReceived           = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalMade            = (*MetricsExtension)(nil)
	_ plugin.OnPlatformFeeUpdated        = (*MetricsExtension)(nil)
	_ plugin.OnPlatformWalletUpdated     = (*MetricsExtension)(nil)
	_ plugin.OnPauseChanged              = (*MetricsExtension)(nil)
	_ plugin.OnEmergencyRecovered        = (*MetricsExtension)(nil)
	_ plugin.OnAdministrationTransferred = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger activity.
// Register it as a postledger plugin to track payments and payouts.
type MetricsExtension struct {
	factory MetricFactory

	// Registry metrics
	PostsRegistered Counter

	// Ledger metrics
	PaymentsReceived Counter
	PaymentAmount    Histogram

	// Settlement metrics
	Withdrawals     Counter
	WithdrawalGross Histogram
	FeesCollected   Counter
	NetPaidToOwners Counter

	// Administration metrics
	FeeUpdates            Counter
	FeeRecipientUpdates   Counter
	Pauses                Counter
	Resumes               Counter
	EmergencyRecoveries   Counter
	AdministrationChanges Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		PostsRegistered: factory.Counter("postledger.post.registered"),

		PaymentsReceived: factory.Counter("postledger.payment.received"),
		PaymentAmount:    factory.Histogram("postledger.payment.amount"),

		Withdrawals:     factory.Counter("postledger.withdrawal.made"),
		WithdrawalGross: factory.Histogram("postledger.withdrawal.gross"),
		FeesCollected:   factory.Counter("postledger.withdrawal.fee"),
		NetPaidToOwners: factory.Counter("postledger.withdrawal.net"),

		FeeUpdates:            factory.Counter("postledger.admin.fee_updated"),
		FeeRecipientUpdates:   factory.Counter("postledger.admin.fee_recipient_updated"),
		Pauses:                factory.Counter("postledger.admin.paused"),
		Resumes:               factory.Counter("postledger.admin.resumed"),
		EmergencyRecoveries:   factory.Counter("postledger.admin.emergency_recovered"),
		AdministrationChanges: factory.Counter("postledger.admin.administration_transferred"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// OnPostRegistered implements plugin.OnPostRegistered.
func (m *MetricsExtension) OnPostRegistered(_ context.Context, _ *post.Post) error {
	m.PostsRegistered.Inc()
	return nil
}

// OnPaymentReceived implements plugin.OnPaymentReceived.
func (m *MetricsExtension) OnPaymentReceived(_ context.Context, a *earnings.Accrual) error {
	m.PaymentsReceived.Inc()
	m.PaymentAmount.Observe(float64(a.Amount.Amount))
	return nil
}

// OnWithdrawalMade implements plugin.OnWithdrawalMade.
func (m *MetricsExtension) OnWithdrawalMade(_ context.Context, w *settlement.Withdrawal) error {
	m.Withdrawals.Inc()
	m.WithdrawalGross.Observe(float64(w.Gross.Amount))
	m.FeesCollected.Add(float64(w.Fee.Amount))
	m.NetPaidToOwners.Add(float64(w.Net.Amount))
	return nil
}

// OnPlatformFeeUpdated implements plugin.OnPlatformFeeUpdated.
func (m *MetricsExtension) OnPlatformFeeUpdated(_ context.Context, _, _ int) error {
	m.FeeUpdates.Inc()
	return nil
}

// OnPlatformWalletUpdated implements plugin.OnPlatformWalletUpdated.
func (m *MetricsExtension) OnPlatformWalletUpdated(_ context.Context, _, _ types.Address) error {
	m.FeeRecipientUpdates.Inc()
	return nil
}

// OnPauseChanged implements plugin.OnPauseChanged.
func (m *MetricsExtension) OnPauseChanged(_ context.Context, paused bool, _ types.Address) error {
	if paused {
		m.Pauses.Inc()
	} else {
		m.Resumes.Inc()
	}
	return nil
}

// OnEmergencyRecovered implements plugin.OnEmergencyRecovered.
func (m *MetricsExtension) OnEmergencyRecovered(_ context.Context, _ *admin.Recovery) error {
	m.EmergencyRecoveries.Inc()
	return nil
}

// OnAdministrationTransferred implements plugin.OnAdministrationTransferred.
func (m *MetricsExtension) OnAdministrationTransferred(_ context.Context, _, _ types.Address) error {
	m.AdministrationChanges.Inc()
	return nil
}
