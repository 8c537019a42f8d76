package store

import (
	"context"

	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/post"
	"github.com/xraph/postledger/settlement"
	"github.com/xraph/postledger/types"
)

// Store is the unified storage interface for all postledger entities.
// Methods are declared explicitly rather than by embedding so that the
// sub-interfaces can evolve without name clashes.
type Store interface {
	// Post methods
	CreatePost(ctx context.Context, p *post.Post) error
	GetPost(ctx context.Context, postID string) (*post.Post, error)
	CountPosts(ctx context.Context) (int64, error)

	// Earnings methods
	GetAccount(ctx context.Context, owner types.Address) (*earnings.Account, error)
	CreditAccrual(ctx context.Context, a *earnings.Accrual) error
	GetPostEarnings(ctx context.Context, postID string) (*earnings.PostEarnings, error)
	ListAccruals(ctx context.Context, postID string, opts earnings.ListOpts) ([]*earnings.Accrual, error)

	// Settlement methods
	RecordWithdrawal(ctx context.Context, w *settlement.Withdrawal) error
	ReverseWithdrawal(ctx context.Context, w *settlement.Withdrawal) error
	ListWithdrawals(ctx context.Context, owner types.Address, opts settlement.ListOpts) ([]*settlement.Withdrawal, error)

	// Admin methods
	GetSettings(ctx context.Context) (*admin.Settings, error)
	SaveSettings(ctx context.Context, s *admin.Settings) error
	CreateRecovery(ctx context.Context, r *admin.Recovery) error
	DeleteRecovery(ctx context.Context, r *admin.Recovery) error
	ListRecoveries(ctx context.Context) ([]*admin.Recovery, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ post.Store       = Store(nil)
	_ earnings.Store   = Store(nil)
	_ settlement.Store = Store(nil)
	_ admin.Store      = Store(nil)
)
