package audithook

// Action constants for audit events.
const (
	// Registry actions
	ActionPostRegistered = "post.registered"

	// Ledger actions
	ActionPaymentReceived = "payment.received"

	// Settlement actions
	ActionWithdrawalMade = "withdrawal.made"

	// Administration actions
	ActionPlatformFeeUpdated        = "platform_fee.updated"
	ActionPlatformWalletUpdated     = "platform_wallet.updated"
	ActionLedgerPaused              = "ledger.paused"
	ActionLedgerResumed             = "ledger.resumed"
	ActionEmergencyRecovered        = "emergency.recovered"
	ActionAdministrationTransferred = "administration.transferred"
)

// Resource constants for audit events.
const (
	ResourcePost       = "post"
	ResourceAccrual    = "accrual"
	ResourceWithdrawal = "withdrawal"
	ResourceSettings   = "settings"
	ResourceCustody    = "custody"
)

// Category constants for audit events.
const (
	CategoryRegistry   = "registry"
	CategoryEarnings   = "earnings"
	CategorySettlement = "settlement"
	CategoryAdmin      = "administration"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
