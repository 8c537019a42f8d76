package postledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/custody"
	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/id"
	"github.com/xraph/postledger/plugin"
	"github.com/xraph/postledger/post"
	"github.com/xraph/postledger/settlement"
	"github.com/xraph/postledger/store"
	"github.com/xraph/postledger/types"
)

// Ledger is the per-post payment engine. Every entry point runs inside a
// single critical section, so callers observe one total order of
// registrations, accruals, withdrawals and administrative changes.
type Ledger struct {
	store      store.Store
	vault      custody.Vault
	authorizer admin.Authorizer
	plugins    *plugin.Registry
	logger     *slog.Logger
	now        func() time.Time

	genesis     *Genesis
	autoMigrate bool

	mu sync.Mutex
}

// New creates a new Ledger instance. Without WithVault an in-memory vault
// is used.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:       s,
		authorizer:  admin.AdministratorAuthorizer{},
		plugins:     plugin.NewRegistry(),
		logger:      slog.Default(),
		now:         time.Now,
		autoMigrate: true,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.vault == nil {
		asset := types.DefaultAsset
		if l.genesis != nil && l.genesis.Asset != "" {
			asset = l.genesis.Asset
		}
		l.vault = custody.NewMemoryVault(types.ZeroAddress, asset)
	}

	return l
}

// Vault returns the custody vault backing owner balances.
func (l *Ledger) Vault() custody.Vault { return l.vault }

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Start migrates the store, writes the genesis settings if the store has
// none, and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if l.autoMigrate {
		if err := l.store.Migrate(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	settings, err := l.ensureSettings(ctx)
	if err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("postledger started",
		"administrator", settings.Administrator.Hex(),
		"fee_recipient", settings.FeeRecipient.Hex(),
		"fee_basis_points", settings.FeeBasisPoints,
		"asset", settings.Asset,
		"paused", settings.Paused,
		"plugins", l.plugins.Count(),
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())
	return l.store.Close()
}

func (l *Ledger) ensureSettings(ctx context.Context) (*admin.Settings, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()

	existing, err := l.store.GetSettings(ctx)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if l.genesis == nil {
		return nil, fmt.Errorf("%w: no settings stored and no genesis configured", ErrStoreNotReady)
	}

	g := l.genesis
	switch {
	case types.IsZeroAddress(g.Administrator):
		return nil, ValidationError{Field: "administrator", Message: "must not be the zero address", Err: ErrInvalidAddress}
	case types.IsZeroAddress(g.FeeRecipient):
		return nil, ValidationError{Field: "fee_recipient", Message: "must not be the zero address", Err: ErrInvalidAddress}
	case !settlement.ValidFeeBasisPoints(g.FeeBasisPoints):
		return nil, ValidationError{Field: "fee_basis_points", Message: "must be between 0 and 1000", Err: ErrInvalidFeePercentage}
	}

	settings := &admin.Settings{
		Entity:         types.NewEntity(l.now()),
		FeeBasisPoints: g.FeeBasisPoints,
		FeeRecipient:   g.FeeRecipient,
		Administrator:  g.Administrator,
		Asset:          types.Zero(g.Asset).Asset,
	}
	if err := l.store.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ──────────────────────────────────────────────────
// Registry
// ──────────────────────────────────────────────────

// Register binds postID to owner. Anyone may register a post, but only once:
// a second registration of the same identifier fails whatever the owner.
func (l *Ledger) Register(ctx context.Context, postID string, owner types.Address) (*post.Post, error) {
	outer := ctx
	ctx, unlock := l.lock(ctx)

	p, err := l.register(ctx, postID, owner)
	unlock()
	if err != nil {
		return nil, err
	}

	l.plugins.EmitPostRegistered(outer, p)
	return p, nil
}

func (l *Ledger) register(ctx context.Context, postID string, owner types.Address) (*post.Post, error) {
	settings, err := l.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings.Paused {
		return nil, ErrPaused
	}

	postID = post.NormalizeID(postID)
	if postID == "" {
		return nil, ErrInvalidIdentifier
	}
	if types.IsZeroAddress(owner) {
		return nil, ErrInvalidAddress
	}

	p := &post.Post{
		ID:        postID,
		Owner:     owner,
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// IsRegistered reports whether postID has an owner.
func (l *Ledger) IsRegistered(ctx context.Context, postID string) (bool, error) {
	owner, err := l.OwnerOf(ctx, postID)
	if err != nil {
		return false, err
	}
	return !types.IsZeroAddress(owner), nil
}

// OwnerOf returns the owner of postID, or the zero address when the post is
// not registered.
func (l *Ledger) OwnerOf(ctx context.Context, postID string) (types.Address, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()

	postID = post.NormalizeID(postID)
	if postID == "" {
		return types.ZeroAddress, nil
	}
	p, err := l.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return types.ZeroAddress, nil
		}
		return types.ZeroAddress, err
	}
	return p.Owner, nil
}

// ──────────────────────────────────────────────────
// Earnings
// ──────────────────────────────────────────────────

// Accrue credits amount to the owner of postID. Only the administrator,
// acting as the payment relay, may accrue. Accrue is not idempotent:
// delivering the same payment twice credits it twice.
func (l *Ledger) Accrue(ctx context.Context, postID string, amount types.Money, opts ...AccrueOption) (*earnings.Accrual, error) {
	cfg := accrueConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	outer := ctx
	ctx, unlock := l.lock(ctx)

	a, err := l.accrue(ctx, postID, amount, cfg)
	unlock()
	if err != nil {
		return nil, err
	}

	l.plugins.EmitPaymentReceived(outer, a)
	return a, nil
}

func (l *Ledger) accrue(ctx context.Context, postID string, amount types.Money, cfg accrueConfig) (*earnings.Accrual, error) {
	settings, err := l.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := l.authorize(ctx, settings); err != nil {
		return nil, err
	}
	if settings.Paused {
		return nil, ErrPaused
	}

	postID = post.NormalizeID(postID)
	if postID == "" {
		return nil, ErrInvalidIdentifier
	}
	if amount.IsNegative() || amount.Asset != settings.Asset {
		return nil, ErrInvalidAmount
	}

	p, err := l.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidIdentifier
		}
		return nil, err
	}

	if err := l.checkHeadroom(ctx, p, amount); err != nil {
		return nil, err
	}

	a := &earnings.Accrual{
		ID:        id.NewAccrualID(),
		PostID:    p.ID,
		Owner:     p.Owner,
		Amount:    amount,
		Reference: cfg.reference,
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.CreditAccrual(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// checkHeadroom rejects an amount that would push the owner's lifetime
// earnings or the post's total past math.MaxInt64.
func (l *Ledger) checkHeadroom(ctx context.Context, p *post.Post, amount types.Money) error {
	acct, err := l.store.GetAccount(ctx, p.Owner)
	switch {
	case err == nil:
		if acct.TotalEarned.Amount > math.MaxInt64-amount.Amount {
			return ErrInvalidAmount
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}

	pe, err := l.store.GetPostEarnings(ctx, p.ID)
	switch {
	case err == nil:
		if pe.Total.Amount > math.MaxInt64-amount.Amount {
			return ErrInvalidAmount
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}
	return nil
}

// Stats returns the earned, withdrawn and available totals for owner.
// Unknown owners get an empty account.
func (l *Ledger) Stats(ctx context.Context, owner types.Address) (*earnings.Account, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()

	acct, err := l.store.GetAccount(ctx, owner)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return earnings.NewAccount(owner, l.asset(ctx)), nil
}

// PostEarnings returns the total accrued against postID, zero if none.
func (l *Ledger) PostEarnings(ctx context.Context, postID string) (types.Money, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()

	pe, err := l.store.GetPostEarnings(ctx, post.NormalizeID(postID))
	if err == nil {
		return pe.Total, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return types.Money{}, err
	}
	return types.Zero(l.asset(ctx)), nil
}

// Accruals lists the payments credited to postID, oldest first.
func (l *Ledger) Accruals(ctx context.Context, postID string, opts earnings.ListOpts) ([]*earnings.Accrual, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()
	return l.store.ListAccruals(ctx, post.NormalizeID(postID), opts)
}

// ──────────────────────────────────────────────────
// Settlement
// ──────────────────────────────────────────────────

// Withdraw pays the caller everything they have earned and not yet
// withdrawn, minus the platform fee at the current rate. The withdrawn
// counter is raised before custody is touched, so a call that re-enters
// from a receiving account sees nothing left to withdraw. If custody fails
// the counter is restored and ErrTransferFailed is returned.
func (l *Ledger) Withdraw(ctx context.Context) (*settlement.Withdrawal, error) {
	outer := ctx
	ctx, unlock := l.lock(ctx)

	w, err := l.withdraw(ctx)
	unlock()
	if err != nil {
		return nil, err
	}

	l.plugins.EmitWithdrawalMade(outer, w)
	return w, nil
}

func (l *Ledger) withdraw(ctx context.Context) (*settlement.Withdrawal, error) {
	settings, err := l.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings.Paused {
		return nil, ErrPaused
	}

	caller := CallerFrom(ctx)
	if types.IsZeroAddress(caller) {
		return nil, ErrInvalidAddress
	}

	acct, err := l.store.GetAccount(ctx, caller)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNothingToWithdraw
		}
		return nil, err
	}
	available := acct.Available()
	if !available.IsPositive() {
		return nil, ErrNothingToWithdraw
	}

	split, err := settlement.Compute(available, settings.FeeBasisPoints)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFeePercentage, err)
	}

	w := &settlement.Withdrawal{
		ID:             id.NewWithdrawalID(),
		Owner:          caller,
		Gross:          split.Gross,
		Fee:            split.Fee,
		Net:            split.Net,
		FeeRecipient:   settings.FeeRecipient,
		FeeBasisPoints: settings.FeeBasisPoints,
		CreatedAt:      l.now().UTC(),
	}
	if err := l.store.RecordWithdrawal(ctx, w); err != nil {
		return nil, err
	}

	transfers := []custody.Transfer{
		{To: settings.FeeRecipient, Amount: split.Fee},
		{To: caller, Amount: split.Net},
	}
	if err := l.vault.Transfer(ctx, transfers); err != nil {
		l.logger.Error("withdrawal transfer failed",
			"owner", caller.Hex(),
			"gross", split.Gross.Amount,
			"error", err,
		)
		if revErr := l.store.ReverseWithdrawal(ctx, w); revErr != nil {
			l.logger.Error("withdrawal reversal failed",
				"withdrawal_id", w.ID.String(),
				"owner", caller.Hex(),
				"error", revErr,
			)
			var errs MultiError
			errs.Add(err)
			errs.Add(revErr)
			return nil, fmt.Errorf("%w: %w", ErrTransferFailed, errs)
		}
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	l.logger.Info("withdrawal made",
		"withdrawal_id", w.ID.String(),
		"owner", caller.Hex(),
		"gross", w.Gross.Amount,
		"fee", w.Fee.Amount,
		"net", w.Net.Amount,
	)
	return w, nil
}

// Withdrawals lists the payouts made to owner, oldest first.
func (l *Ledger) Withdrawals(ctx context.Context, owner types.Address, opts settlement.ListOpts) ([]*settlement.Withdrawal, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()
	return l.store.ListWithdrawals(ctx, owner, opts)
}

// ──────────────────────────────────────────────────
// Administration
// ──────────────────────────────────────────────────

// Settings returns the current platform settings.
func (l *Ledger) Settings(ctx context.Context) (*admin.Settings, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()
	return l.loadSettings(ctx)
}

// SetFeeBasisPoints changes the platform fee. The new rate applies to every
// later withdrawal, including balances accrued before the change.
func (l *Ledger) SetFeeBasisPoints(ctx context.Context, bp int) error {
	outer := ctx
	ctx, unlock := l.lock(ctx)

	var old int
	err := l.updateSettings(ctx, func(s *admin.Settings) error {
		if !settlement.ValidFeeBasisPoints(bp) {
			return ErrInvalidFeePercentage
		}
		old = s.FeeBasisPoints
		s.FeeBasisPoints = bp
		return nil
	})
	unlock()
	if err != nil {
		return err
	}

	l.logger.Info("platform fee updated", "old_fee_basis_points", old, "new_fee_basis_points", bp)
	l.plugins.EmitPlatformFeeUpdated(outer, old, bp)
	return nil
}

// SetFeeRecipient changes the account that receives platform fees.
func (l *Ledger) SetFeeRecipient(ctx context.Context, addr types.Address) error {
	outer := ctx
	ctx, unlock := l.lock(ctx)

	var old types.Address
	err := l.updateSettings(ctx, func(s *admin.Settings) error {
		if types.IsZeroAddress(addr) {
			return ErrInvalidAddress
		}
		old = s.FeeRecipient
		s.FeeRecipient = addr
		return nil
	})
	unlock()
	if err != nil {
		return err
	}

	l.logger.Info("fee recipient updated", "old_fee_recipient", old.Hex(), "new_fee_recipient", addr.Hex())
	l.plugins.EmitPlatformWalletUpdated(outer, old, addr)
	return nil
}

// Pause stops registrations, accruals and withdrawals.
func (l *Ledger) Pause(ctx context.Context) error {
	return l.setPaused(ctx, true)
}

// Resume lifts a pause.
func (l *Ledger) Resume(ctx context.Context) error {
	return l.setPaused(ctx, false)
}

func (l *Ledger) setPaused(ctx context.Context, paused bool) error {
	outer := ctx
	ctx, unlock := l.lock(ctx)

	err := l.updateSettings(ctx, func(s *admin.Settings) error {
		if s.Paused == paused {
			return ErrAlreadyInState
		}
		s.Paused = paused
		return nil
	})
	unlock()
	if err != nil {
		return err
	}

	by := CallerFrom(outer)
	l.logger.Info("pause state changed", "paused", paused, "by", by.Hex())
	l.plugins.EmitPauseChanged(outer, paused, by)
	return nil
}

// TransferAdministration hands every privileged capability to newAdmin.
func (l *Ledger) TransferAdministration(ctx context.Context, newAdmin types.Address) error {
	outer := ctx
	ctx, unlock := l.lock(ctx)

	var old types.Address
	err := l.updateSettings(ctx, func(s *admin.Settings) error {
		if types.IsZeroAddress(newAdmin) {
			return ErrInvalidAddress
		}
		old = s.Administrator
		s.Administrator = newAdmin
		return nil
	})
	unlock()
	if err != nil {
		return err
	}

	l.logger.Info("administration transferred", "old_administrator", old.Hex(), "new_administrator", newAdmin.Hex())
	l.plugins.EmitAdministrationTransferred(outer, old, newAdmin)
	return nil
}

// EmergencyRecover moves amount out of custody to the administrator. It is
// only available while paused and does not touch any owner's counters, so
// recovered funds may leave recorded balances unbacked.
func (l *Ledger) EmergencyRecover(ctx context.Context, amount types.Money) (*admin.Recovery, error) {
	outer := ctx
	ctx, unlock := l.lock(ctx)

	r, err := l.emergencyRecover(ctx, amount)
	unlock()
	if err != nil {
		return nil, err
	}

	l.plugins.EmitEmergencyRecovered(outer, r)
	return r, nil
}

func (l *Ledger) emergencyRecover(ctx context.Context, amount types.Money) (*admin.Recovery, error) {
	settings, err := l.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	caller, err := l.authorize(ctx, settings)
	if err != nil {
		return nil, err
	}
	if !settings.Paused {
		return nil, ErrNotPaused
	}
	if !amount.IsPositive() || amount.Asset != settings.Asset {
		return nil, ErrInvalidAmount
	}

	r := &admin.Recovery{
		ID:            id.NewRecoveryID(),
		Administrator: caller,
		Amount:        amount,
		CreatedAt:     l.now().UTC(),
	}
	if err := l.store.CreateRecovery(ctx, r); err != nil {
		return nil, err
	}

	if err := l.vault.Transfer(ctx, []custody.Transfer{{To: caller, Amount: amount}}); err != nil {
		l.logger.Error("emergency recovery transfer failed",
			"recovery_id", r.ID.String(),
			"amount", amount.Amount,
			"error", err,
		)
		if delErr := l.store.DeleteRecovery(ctx, r); delErr != nil {
			l.logger.Error("emergency recovery not removed",
				"recovery_id", r.ID.String(),
				"error", delErr,
			)
			var errs MultiError
			errs.Add(err)
			errs.Add(delErr)
			return nil, fmt.Errorf("%w: %w", ErrTransferFailed, errs)
		}
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	l.logger.Warn("emergency recovery",
		"recovery_id", r.ID.String(),
		"administrator", caller.Hex(),
		"amount", amount.Amount,
	)
	return r, nil
}

// Recoveries lists every emergency recovery, oldest first.
func (l *Ledger) Recoveries(ctx context.Context) ([]*admin.Recovery, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()
	return l.store.ListRecoveries(ctx)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// updateSettings authorizes the caller, applies fn to a copy of the current
// settings and persists the result. fn's error aborts without writing.
func (l *Ledger) updateSettings(ctx context.Context, fn func(*admin.Settings) error) error {
	current, err := l.loadSettings(ctx)
	if err != nil {
		return err
	}
	if _, err := l.authorize(ctx, current); err != nil {
		return err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return err
	}
	next.Touch(l.now())
	return l.store.SaveSettings(ctx, next)
}

func (l *Ledger) authorize(ctx context.Context, settings *admin.Settings) (types.Address, error) {
	caller := CallerFrom(ctx)
	if err := l.authorizer.Authorize(ctx, caller, settings); err != nil {
		return caller, fmt.Errorf("%w: %w", ErrNotAuthorized, err)
	}
	return caller, nil
}

func (l *Ledger) loadSettings(ctx context.Context) (*admin.Settings, error) {
	s, err := l.store.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: settings not initialized, call Start", ErrStoreNotReady)
		}
		return nil, err
	}
	return s, nil
}

// asset returns the configured custody asset, falling back to the default
// before settings exist.
func (l *Ledger) asset(ctx context.Context) string {
	if s, err := l.store.GetSettings(ctx); err == nil && s.Asset != "" {
		return s.Asset
	}
	if l.genesis != nil && l.genesis.Asset != "" {
		return types.Zero(l.genesis.Asset).Asset
	}
	return types.DefaultAsset
}
