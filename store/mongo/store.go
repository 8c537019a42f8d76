package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/postledger"
	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/post"
	"github.com/xraph/postledger/settlement"
	ledgerstore "github.com/xraph/postledger/store"
	"github.com/xraph/postledger/types"
)

// Collection name constants.
const (
	colPosts        = "postledger_posts"
	colAccounts     = "postledger_accounts"
	colPostEarnings = "postledger_post_earnings"
	colAccruals     = "postledger_accruals"
	colWithdrawals  = "postledger_withdrawals"
	colSettings     = "postledger_settings"
	colRecoveries   = "postledger_recoveries"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all postledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("postledger/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(toPostModel(p)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return postledger.ErrAlreadyRegistered
		}
		return fmt.Errorf("postledger/mongo: create post: %w", err)
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, postID string) (*post.Post, error) {
	var m postModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": postID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, postledger.ErrNotFound
		}
		return nil, fmt.Errorf("postledger/mongo: get post: %w", err)
	}
	return fromPostModel(&m)
}

func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	n, err := s.mdb.Collection(colPosts).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("postledger/mongo: count posts: %w", err)
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
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": owner.Hex()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, postledger.ErrNotFound
		}
		return nil, fmt.Errorf("postledger/mongo: get account: %w", err)
	}
	return &m, nil
}

// CreditAccrual inserts the accrual and raises the account and post totals
// in one session transaction.
func (s *Store) CreditAccrual(ctx context.Context, a *earnings.Accrual) error {
	existing, err := s.getAccountModel(ctx, a.Owner)
	if err != nil && !errors.Is(err, postledger.ErrNotFound) {
		return err
	}
	if existing != nil && existing.Asset != a.Amount.Asset {
		return fmt.Errorf("postledger/mongo: credit accrual: %w", postledger.ErrInvalidAmount)
	}

	return s.inTx(ctx, func(tx *mongodriver.MongoTx) error {
		if _, err := tx.NewInsert(toAccrualModel(a)).Exec(ctx); err != nil {
			return fmt.Errorf("postledger/mongo: create accrual: %w", err)
		}

		_, err := tx.NewUpdate((*accountModel)(nil)).
			Filter(bson.M{"_id": a.Owner.Hex()}).
			SetUpdate(bson.M{
				"$inc": bson.M{"total_earned": a.Amount.Amount},
				"$set": bson.M{"updated_at": a.CreatedAt},
				"$setOnInsert": bson.M{
					"asset":           a.Amount.Asset,
					"total_withdrawn": int64(0),
					"created_at":      a.CreatedAt,
				},
			}).
			Upsert().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("postledger/mongo: credit account: %w", err)
		}

		_, err = tx.NewUpdate((*postEarningsModel)(nil)).
			Filter(bson.M{"_id": a.PostID}).
			SetUpdate(bson.M{
				"$inc": bson.M{"total": a.Amount.Amount},
				"$set": bson.M{"updated_at": a.CreatedAt},
				"$setOnInsert": bson.M{
					"owner": a.Owner.Hex(),
					"asset": a.Amount.Asset,
				},
			}).
			Upsert().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("postledger/mongo: credit post earnings: %w", err)
		}
		return nil
	})
}

func (s *Store) GetPostEarnings(ctx context.Context, postID string) (*earnings.PostEarnings, error) {
	var m postEarningsModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": postID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, postledger.ErrNotFound
		}
		return nil, fmt.Errorf("postledger/mongo: get post earnings: %w", err)
	}
	return fromPostEarningsModel(&m)
}

func (s *Store) ListAccruals(ctx context.Context, postID string, opts earnings.ListOpts) ([]*earnings.Accrual, error) {
	var models []accrualModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"post_id": postID}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("postledger/mongo: list accruals: %w", err)
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

// RecordWithdrawal raises total_withdrawn only while the account still has
// at least w.Gross available, so the counter can never pass total_earned.
// The counter and the withdrawal document commit together.
func (s *Store) RecordWithdrawal(ctx context.Context, w *settlement.Withdrawal) error {
	return s.inTx(ctx, func(tx *mongodriver.MongoTx) error {
		res, err := tx.NewUpdate((*accountModel)(nil)).
			Filter(bson.M{
				"_id": w.Owner.Hex(),
				"$expr": bson.M{"$gte": bson.A{
					bson.M{"$subtract": bson.A{"$total_earned", "$total_withdrawn"}},
					w.Gross.Amount,
				}},
			}).
			SetUpdate(bson.M{
				"$inc": bson.M{"total_withdrawn": w.Gross.Amount},
				"$set": bson.M{"updated_at": w.CreatedAt},
			}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("postledger/mongo: record withdrawal: %w", err)
		}
		if res.MatchedCount() == 0 {
			var m accountModel
			err := tx.NewFind(&m).
				Filter(bson.M{"_id": w.Owner.Hex()}).
				Scan(ctx)
			if isNoDocuments(err) {
				return postledger.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("postledger/mongo: get account: %w", err)
			}
			return postledger.ErrOverdraw
		}

		if _, err := tx.NewInsert(toWithdrawalModel(w)).Exec(ctx); err != nil {
			return fmt.Errorf("postledger/mongo: create withdrawal: %w", err)
		}
		return nil
	})
}

// ReverseWithdrawal deletes the withdrawal document and releases its gross
// amount from total_withdrawn in one session transaction.
func (s *Store) ReverseWithdrawal(ctx context.Context, w *settlement.Withdrawal) error {
	return s.inTx(ctx, func(tx *mongodriver.MongoTx) error {
		res, err := tx.NewDelete((*withdrawalModel)(nil)).
			Filter(bson.M{"_id": w.ID.String()}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("postledger/mongo: reverse withdrawal: %w", err)
		}
		if res.DeletedCount() == 0 {
			return postledger.ErrNotFound
		}

		upd, err := tx.NewUpdate((*accountModel)(nil)).
			Filter(bson.M{"_id": w.Owner.Hex()}).
			SetUpdate(bson.M{
				"$inc": bson.M{"total_withdrawn": -w.Gross.Amount},
				"$set": bson.M{"updated_at": now()},
			}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("postledger/mongo: release withdrawn: %w", err)
		}
		if upd.MatchedCount() == 0 {
			return postledger.ErrNotFound
		}
		return nil
	})
}

func (s *Store) ListWithdrawals(ctx context.Context, owner types.Address, opts settlement.ListOpts) ([]*settlement.Withdrawal, error) {
	var models []withdrawalModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"owner": owner.Hex()}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("postledger/mongo: list withdrawals: %w", err)
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
	var m settingsModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": settingsDocID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, postledger.ErrNotFound
		}
		return nil, fmt.Errorf("postledger/mongo: get settings: %w", err)
	}
	return fromSettingsModel(&m)
}

func (s *Store) SaveSettings(ctx context.Context, settings *admin.Settings) error {
	m := toSettingsModel(settings)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"fee_basis_points": m.FeeBasisPoints,
				"fee_recipient":    m.FeeRecipient,
				"paused":           m.Paused,
				"administrator":    m.Administrator,
				"asset":            m.Asset,
				"updated_at":       m.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": m.CreatedAt},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("postledger/mongo: save settings: %w", err)
	}
	return nil
}

func (s *Store) CreateRecovery(ctx context.Context, r *admin.Recovery) error {
	_, err := s.mdb.NewInsert(toRecoveryModel(r)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("postledger/mongo: create recovery: %w", err)
	}
	return nil
}

// DeleteRecovery removes a recovery whose transfer never happened.
func (s *Store) DeleteRecovery(ctx context.Context, r *admin.Recovery) error {
	res, err := s.mdb.NewDelete((*recoveryModel)(nil)).
		Filter(bson.M{"_id": r.ID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("postledger/mongo: delete recovery: %w", err)
	}
	if res.DeletedCount() == 0 {
		return postledger.ErrNotFound
	}
	return nil
}

func (s *Store) ListRecoveries(ctx context.Context) ([]*admin.Recovery, error) {
	var models []recoveryModel

	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("postledger/mongo: list recoveries: %w", err)
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
// inTx runs fn in a session transaction, committing when it returns nil.
// Transactions need a replica set or sharded cluster.
func (s *Store) inTx(ctx context.Context, fn func(tx *mongodriver.MongoTx) error) error {
	return ledgerstore.RunTx(ctx, func(ctx context.Context) (*mongodriver.MongoTx, error) {
		raw, err := s.mdb.GroveTx(ctx, 0, false)
		if err != nil {
			return nil, fmt.Errorf("postledger/mongo: begin: %w", err)
		}
		return raw.(*mongodriver.MongoTx), nil
	}, fn)
}

func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all postledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colPosts: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		colAccruals: {
			{Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "owner", Value: 1}}},
			{
				Keys:    bson.D{{Key: "reference", Value: 1}},
				Options: options.Index().SetSparse(true),
			},
		},
		colWithdrawals: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colRecoveries: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colAccounts:     {},
		colPostEarnings: {},
		colSettings:     {},
	}
}
