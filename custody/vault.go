// Package custody moves the custody asset that backs owner balances.
package custody

import (
	"context"
	"errors"

	"github.com/xraph/postledger/types"
)

var (
	// ErrInsufficientFunds is returned when custody cannot cover a transfer batch.
	ErrInsufficientFunds = errors.New("custody: insufficient funds")
	// ErrAssetMismatch is returned for amounts in an asset the vault does not hold.
	ErrAssetMismatch = errors.New("custody: asset mismatch")
	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("custody: invalid amount")
)

// Transfer moves Amount out of custody to To.
type Transfer struct {
	To     types.Address
	Amount types.Money
}

// Vault holds the custody asset. Transfer applies a batch all-or-nothing:
// either every leg lands or custody is left untouched and an error is
// returned. Zero-amount legs are skipped.
type Vault interface {
	Balance(ctx context.Context) (types.Money, error)
	Deposit(ctx context.Context, amount types.Money) error
	Transfer(ctx context.Context, transfers []Transfer) error
}
