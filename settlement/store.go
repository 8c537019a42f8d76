package settlement

import (
	"context"

	"github.com/xraph/postledger/types"
)

type Store interface {
	// RecordWithdrawal raises the owner's TotalWithdrawn by w.Gross and
	// stores the receipt. It must refuse to push TotalWithdrawn above
	// TotalEarned.
	RecordWithdrawal(ctx context.Context, w *Withdrawal) error
	// ReverseWithdrawal undoes RecordWithdrawal for a payout whose
	// transfer did not complete.
	ReverseWithdrawal(ctx context.Context, w *Withdrawal) error
	ListWithdrawals(ctx context.Context, owner types.Address, opts ListOpts) ([]*Withdrawal, error)
}
