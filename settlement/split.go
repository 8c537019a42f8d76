// Package settlement computes fee splits and records withdrawals.
package settlement

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/xraph/postledger/types"
)

const (
	// BasisPointsDenominator is the divisor that turns basis points into a fraction.
	BasisPointsDenominator = 10_000
	// MaxFeeBasisPoints caps the platform fee at 10%.
	MaxFeeBasisPoints = 1_000
)

var (
	errNegativeGross = errors.New("settlement: gross amount is negative")
	errFeeRange      = errors.New("settlement: fee basis points out of range")
)

// Split is the result of dividing a gross withdrawal between the owner and
// the fee recipient. Fee + Net always equals Gross.
type Split struct {
	Gross types.Money
	Fee   types.Money
	Net   types.Money
}

// ValidFeeBasisPoints reports whether bp is an accepted platform fee.
func ValidFeeBasisPoints(bp int) bool {
	return bp >= 0 && bp <= MaxFeeBasisPoints
}

// Compute splits gross into fee = floor(gross*bp/10000) and net = gross-fee.
// The product is evaluated in 256-bit arithmetic so large balances never wrap.
func Compute(gross types.Money, bp int) (Split, error) {
	if gross.IsNegative() {
		return Split{}, errNegativeGross
	}
	if !ValidFeeBasisPoints(bp) {
		return Split{}, errFeeRange
	}

	fee, overflow := new(uint256.Int).MulDivOverflow(
		uint256.NewInt(uint64(gross.Amount)),
		uint256.NewInt(uint64(bp)),
		uint256.NewInt(BasisPointsDenominator),
	)
	if overflow || !fee.IsUint64() {
		return Split{}, errFeeRange
	}

	feeMoney := types.Units(gross.Asset, int64(fee.Uint64()))
	return Split{
		Gross: gross,
		Fee:   feeMoney,
		Net:   gross.Subtract(feeMoney),
	}, nil
}
