// Package earnings holds per-owner and per-post accrual records.
package earnings

import (
	"time"

	"github.com/xraph/postledger/id"
	"github.com/xraph/postledger/types"
)

// Account tracks what an owner has earned and withdrawn.
// Both counters only grow. TotalWithdrawn counts the gross amount
// including the platform fee, so TotalWithdrawn <= TotalEarned.
type Account struct {
	types.Entity
	Owner          types.Address `json:"owner"`
	TotalEarned    types.Money   `json:"total_earned"`
	TotalWithdrawn types.Money   `json:"total_withdrawn"`
}

// NewAccount returns an empty account for owner in the given asset.
func NewAccount(owner types.Address, asset string) *Account {
	return &Account{
		Owner:          owner,
		TotalEarned:    types.Zero(asset),
		TotalWithdrawn: types.Zero(asset),
	}
}

// Available returns the balance that has been earned but not yet withdrawn.
func (a *Account) Available() types.Money {
	return a.TotalEarned.Subtract(a.TotalWithdrawn)
}

// PostEarnings is the running total accrued against one post. Reporting only.
type PostEarnings struct {
	PostID    string        `json:"post_id"`
	Owner     types.Address `json:"owner"`
	Total     types.Money   `json:"total"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Accrual records one credited payment.
type Accrual struct {
	ID        id.AccrualID  `json:"id"`
	PostID    string        `json:"post_id"`
	Owner     types.Address `json:"owner"`
	Amount    types.Money   `json:"amount"`
	Reference string        `json:"reference,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type ListOpts struct {
	Limit  int
	Offset int
}
