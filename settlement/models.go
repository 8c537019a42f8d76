package settlement

import (
	"time"

	"github.com/xraph/postledger/id"
	"github.com/xraph/postledger/types"
)

// Withdrawal is the receipt for one successful payout.
type Withdrawal struct {
	ID             id.WithdrawalID `json:"id"`
	Owner          types.Address   `json:"owner"`
	Gross          types.Money     `json:"gross"`
	Fee            types.Money     `json:"fee"`
	Net            types.Money     `json:"net"`
	FeeRecipient   types.Address   `json:"fee_recipient"`
	FeeBasisPoints int             `json:"fee_basis_points"`
	CreatedAt      time.Time       `json:"created_at"`
}

type ListOpts struct {
	Limit  int
	Offset int
}
