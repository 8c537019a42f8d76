// Package types provides common types used across postledger.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultAsset is the custody asset used when none is configured.
const DefaultAsset = "usdc"

// Money represents an amount of the custody asset in its smallest unit.
// All arithmetic is integer-only.
//
// Examples:
//   - USDC(50_000) = 0.050000 USDC (6 decimals)
//   - Units("dai", 1) = 0.000000000000000001 DAI (18 decimals)
type Money struct {
	Amount int64  `json:"amount"` // Smallest unit of the asset
	Asset  string `json:"asset"`  // Lowercase asset symbol: "usdc", "usdt", "dai"
}

// USDC creates a Money value in USD Coin minor units (6 decimals).
func USDC(units int64) Money { return Money{Amount: units, Asset: "usdc"} }

// Units creates a Money value for an arbitrary asset symbol.
func Units(asset string, amount int64) Money {
	return Money{Amount: amount, Asset: normalizeAsset(asset)}
}

// Zero returns a zero Money value in the specified asset.
func Zero(asset string) Money { return Money{Amount: 0, Asset: normalizeAsset(asset)} }

// Arithmetic operations

// Add adds two Money values. Panics if assets don't match.
func (m Money) Add(other Money) Money {
	m.assertSameAsset(other)
	return Money{Amount: m.Amount + other.Amount, Asset: m.Asset}
}

// Subtract subtracts another Money value. Panics if assets don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameAsset(other)
	return Money{Amount: m.Amount - other.Amount, Asset: m.Asset}
}

// Multiply multiplies the Money by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Asset: m.Asset}
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// SameAsset reports whether both values are denominated in the same asset.
func (m Money) SameAsset(other Money) bool { return m.Asset == other.Asset }

// Equal returns true if both Money values are equal (same amount and asset).
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Asset == other.Asset
}

// LessThan returns true if this Money is less than other. Panics if assets don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameAsset(other)
	return m.Amount < other.Amount
}

// GreaterThan returns true if this Money is greater than other. Panics if assets don't match.
func (m Money) GreaterThan(other Money) bool {
	m.assertSameAsset(other)
	return m.Amount > other.Amount
}

// Formatting methods

// FormatMajor returns the amount in major units without the asset symbol.
// "0.050000" for USDC(50_000).
func (m Money) FormatMajor() string {
	decimals := assetDecimals(m.Asset)
	if decimals == 0 {
		return fmt.Sprintf("%d", m.Amount)
	}

	isNegative := m.Amount < 0
	abs := uint64(m.Amount)
	if isNegative {
		abs = uint64(-m.Amount)
	}

	// 10^18 still fits in a uint64; larger exponents are not supported assets.
	divisor := uint64(1)
	for i := 0; i < decimals; i++ {
		divisor *= 10
	}

	result := fmt.Sprintf("%d.%0*d", abs/divisor, decimals, abs%divisor)
	if isNegative {
		return "-" + result
	}
	return result
}

// String returns a human-readable string such as "0.050000 USDC".
func (m Money) String() string {
	return m.FormatMajor() + " " + strings.ToUpper(m.Asset)
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount  int64  `json:"amount"`
		Asset   string `json:"asset"`
		Display string `json:"display"`
	}{
		Amount:  m.Amount,
		Asset:   m.Asset,
		Display: m.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The display field is ignored.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount int64  `json:"amount"`
		Asset  string `json:"asset"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Amount = raw.Amount
	m.Asset = normalizeAsset(raw.Asset)
	return nil
}

// Helper functions

func (m Money) assertSameAsset(other Money) {
	if m.Asset != other.Asset {
		panic(fmt.Sprintf("money: asset mismatch: %s != %s", m.Asset, other.Asset))
	}
}

func normalizeAsset(asset string) string {
	asset = strings.ToLower(strings.TrimSpace(asset))
	if asset == "" {
		return DefaultAsset
	}
	return asset
}

// assetDecimals returns the number of decimal places for an asset symbol.
func assetDecimals(asset string) int {
	switch strings.ToLower(asset) {
	case "usdc", "usdt", "pyusd":
		return 6
	case "eth", "weth", "dai":
		return 18
	case "wbtc":
		return 8
	default:
		return 6
	}
}

// Sum calculates the sum of multiple Money values. All must share one asset.
func Sum(values ...Money) Money {
	if len(values) == 0 {
		return Zero(DefaultAsset)
	}

	result := values[0]
	for i := 1; i < len(values); i++ {
		result = result.Add(values[i])
	}
	return result
}
