package earnings

import (
	"context"

	"github.com/xraph/postledger/types"
)

type Store interface {
	// GetAccount returns ErrNotFound for an owner that has never earned.
	GetAccount(ctx context.Context, owner types.Address) (*Account, error)
	// CreditAccrual records the accrual and adds its amount to the owner's
	// TotalEarned and to the post's running total.
	CreditAccrual(ctx context.Context, a *Accrual) error
	GetPostEarnings(ctx context.Context, postID string) (*PostEarnings, error)
	ListAccruals(ctx context.Context, postID string, opts ListOpts) ([]*Accrual, error)
}
