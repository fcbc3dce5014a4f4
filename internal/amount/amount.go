// Package amount converts between decimal display strings and the
// fixed-point integers used on chain. 18 decimals by convention.
package amount

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"launchpad/internal/cerrors"
)

// NativeDecimals is the fixed-point precision of the native currency and
// of every token on the platform.
const NativeDecimals = 18

// Parse converts a decimal string into an 18-decimal fixed-point integer.
// Non-positive or malformed input is rejected.
func Parse(s string) (*big.Int, error) {
	return ParseUnits(s, NativeDecimals)
}

// ParseUnits converts a decimal string into a fixed-point integer with the
// given number of decimals.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", cerrors.ErrInvalidAmount, s)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %q must be positive", cerrors.ErrInvalidAmount, s)
	}
	return d.Shift(decimals).Truncate(0).BigInt(), nil
}

// Format renders an 18-decimal fixed-point integer as a decimal string.
func Format(wei *big.Int) string {
	return FormatUnits(wei, NativeDecimals)
}

// FormatUnits renders a fixed-point integer with the given decimals as a
// decimal string without trailing zeros.
func FormatUnits(value *big.Int, decimals int32) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -decimals).String()
}

// Float converts a fixed-point integer to a float64 for display-only
// arithmetic such as raised = sold * price. Not used on the write path.
func Float(value *big.Int, decimals int32) float64 {
	if value == nil {
		return 0
	}
	f, _ := decimal.NewFromBigInt(value, -decimals).Float64()
	return f
}
