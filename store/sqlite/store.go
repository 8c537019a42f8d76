package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/postledger"
	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/post"
	"github.com/xraph/postledger/settlement"
	ledgerstore "github.com/xraph/postledger/store"
	"github.com/xraph/postledger/types"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("postledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("postledger/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Post Store ====================

func (s *Store) CreatePost(ctx context.Context, p *post.Post) error {
	res, err := s.sdb.NewInsert(toPostModel(p)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return postledger.ErrAlreadyRegistered
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, postID string) (*post.Post, error) {
	m := new(postModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", postID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, postledger.ErrNotFound
		}
		return nil, err
	}
	return fromPostModel(m)
}

func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.sdb.NewRaw(`SELECT COUNT(*) FROM postledger_posts`).Scan(ctx, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// ==================== Earnings Store ====================

func (s *Store) GetAccount(ctx context.Context, owner types.Address) (*earnings.Account, error) {
	m, err := s.getAccountModel(ctx, owner)
	if err != nil {
		return nil, err
	}
	return fromAccountModel(m)
}

func (s *Store) getAccountModel(ctx context.Context, owner types.Address) (*accountModel, error) {
	m := new(accountModel)
	err := s.sdb.NewSelect(m).
		Where("owner = ?", owner.Hex()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, postledger.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// CreditAccrual inserts the accrual and raises the account and post totals
// in one transaction. The totals use upserts so concurrent first credits
// cannot lose an update.
func (s *Store) CreditAccrual(ctx context.Context, a *earnings.Accrual) error {
	existing, err := s.getAccountModel(ctx, a.Owner)
	if err != nil && !errors.Is(err, postledger.ErrNotFound) {
		return err
	}
	if existing != nil && existing.Asset != a.Amount.Asset {
		return fmt.Errorf("postledger/sqlite: credit accrual: %w", postledger.ErrInvalidAmount)
	}

	return s.inTx(ctx, func(tx *sqlitedriver.SqliteTx) error {
		if _, err := tx.NewInsert(toAccrualModel(a)).Exec(ctx); err != nil {
			return err
		}

		acct := &accountModel{
			Owner:       a.Owner.Hex(),
			Asset:       a.Amount.Asset,
			TotalEarned: a.Amount.Amount,
			CreatedAt:   a.CreatedAt,
			UpdatedAt:   a.CreatedAt,
		}
		_, err := tx.NewInsert(acct).
			OnConflict("(owner) DO UPDATE").
			Set("total_earned = postledger_accounts.total_earned + EXCLUDED.total_earned").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("postledger/sqlite: credit account: %w", err)
		}

		pe := &postEarningsModel{
			PostID:    a.PostID,
			Owner:     a.Owner.Hex(),
			Asset:     a.Amount.Asset,
			Total:     a.Amount.Amount,
			UpdatedAt: a.CreatedAt,
		}
		_, err = tx.NewInsert(pe).
			OnConflict("(post_id) DO UPDATE").
			Set("total = postledger_post_earnings.total + EXCLUDED.total").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("postledger/sqlite: credit post earnings: %w", err)
		}
		return nil
	})
}

func (s *Store) GetPostEarnings(ctx context.Context, postID string) (*earnings.PostEarnings, error) {
	m := new(postEarningsModel)
	err := s.sdb.NewSelect(m).
		Where("post_id = ?", postID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, postledger.ErrNotFound
		}
		return nil, err
	}
	return fromPostEarningsModel(m)
}

func (s *Store) ListAccruals(ctx context.Context, postID string, opts earnings.ListOpts) ([]*earnings.Accrual, error) {
	var models []accrualModel
	q := s.sdb.NewSelect(&models).Where("post_id = ?", postID)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*earnings.Accrual, len(models))
	for i := range models {
		a, err := fromAccrualModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// ==================== Settlement Store ====================

// RecordWithdrawal raises total_withdrawn with a guarded update, so the
// counter can never pass total_earned even without the ledger lock. The
// counter and the withdrawal row commit together.
func (s *Store) RecordWithdrawal(ctx context.Context, w *settlement.Withdrawal) error {
	return s.inTx(ctx, func(tx *sqlitedriver.SqliteTx) error {
		res, err := tx.NewUpdate((*accountModel)(nil)).
			Set("total_withdrawn = total_withdrawn + ?", w.Gross.Amount).
			Set("updated_at = ?", w.CreatedAt).
			Where("owner = ?", w.Owner.Hex()).
			Where("total_earned - total_withdrawn >= ?", w.Gross.Amount).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			err := tx.NewSelect(new(accountModel)).
				Where("owner = ?", w.Owner.Hex()).
				Scan(ctx)
			if isNoRows(err) {
				return postledger.ErrNotFound
			}
			if err != nil {
				return err
			}
			return postledger.ErrOverdraw
		}

		_, err = tx.NewInsert(toWithdrawalModel(w)).Exec(ctx)
		return err
	})
}

// ReverseWithdrawal deletes the withdrawal row and releases its gross
// amount from total_withdrawn in one transaction.
func (s *Store) ReverseWithdrawal(ctx context.Context, w *settlement.Withdrawal) error {
	return s.inTx(ctx, func(tx *sqlitedriver.SqliteTx) error {
		res, err := tx.NewDelete((*withdrawalModel)(nil)).
			Where("id = ?", w.ID.String()).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return postledger.ErrNotFound
		}

		res, err = tx.NewUpdate((*accountModel)(nil)).
			Set("total_withdrawn = total_withdrawn - ?", w.Gross.Amount).
			Set("updated_at = ?", now()).
			Where("owner = ?", w.Owner.Hex()).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return postledger.ErrNotFound
		}
		return nil
	})
}

func (s *Store) ListWithdrawals(ctx context.Context, owner types.Address, opts settlement.ListOpts) ([]*settlement.Withdrawal, error) {
	var models []withdrawalModel
	q := s.sdb.NewSelect(&models).Where("owner = ?", owner.Hex())
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*settlement.Withdrawal, len(models))
	for i := range models {
		w, err := fromWithdrawalModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = w
	}
	return result, nil
}

// ==================== Admin Store ====================

func (s *Store) GetSettings(ctx context.Context) (*admin.Settings, error) {
	m := new(settingsModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", settingsRowID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, postledger.ErrNotFound
		}
		return nil, err
	}
	return fromSettingsModel(m)
}

func (s *Store) SaveSettings(ctx context.Context, settings *admin.Settings) error {
	_, err := s.sdb.NewInsert(toSettingsModel(settings)).
		OnConflict("(id) DO UPDATE").
		Set("fee_basis_points = EXCLUDED.fee_basis_points").
		Set("fee_recipient = EXCLUDED.fee_recipient").
		Set("paused = EXCLUDED.paused").
		Set("administrator = EXCLUDED.administrator").
		Set("asset = EXCLUDED.asset").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) CreateRecovery(ctx context.Context, r *admin.Recovery) error {
	_, err := s.sdb.NewInsert(toRecoveryModel(r)).Exec(ctx)
	return err
}

// DeleteRecovery removes a recovery whose transfer never happened.
func (s *Store) DeleteRecovery(ctx context.Context, r *admin.Recovery) error {
	res, err := s.sdb.NewDelete((*recoveryModel)(nil)).
		Where("id = ?", r.ID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return postledger.ErrNotFound
	}
	return nil
}

func (s *Store) ListRecoveries(ctx context.Context) ([]*admin.Recovery, error) {
	var models []recoveryModel
	err := s.sdb.NewSelect(&models).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*admin.Recovery, len(models))
	for i := range models {
		r, err := fromRecoveryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
// inTx runs fn in a transaction, committing when it returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlitedriver.SqliteTx) error) error {
	return ledgerstore.RunTx(ctx, func(ctx context.Context) (*sqlitedriver.SqliteTx, error) {
		tx, err := s.sdb.BeginTxQuery(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("postledger/sqlite: begin: %w", err)
		}
		return tx, nil
	}, fn)
}

func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
