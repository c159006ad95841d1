package engine

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseDisplayAmount converts a display-unit decimal string into raw
// units of a token with the given decimals. Excess fractional
// precision beyond the token's decimals is truncated, never rounded
// up: rounding up even one raw unit can push a withdrawal past the
// position's actual balance.
func ParseDisplayAmount(display string, decimals uint8) (*big.Int, error) {
	if display == "" {
		return big.NewInt(0), nil
	}
	d, err := decimal.NewFromString(display)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", display, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", display)
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// FormatRawAmount converts raw units back into a display-unit string.
func FormatRawAmount(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}

// AdjustForFees adds uncollected fees to a desired withdrawal amount.
// The sum is taken in raw integer units; the display form is derived
// from the exact raw result, so no precision is lost in either
// direction.
func AdjustForFees(display string, feeRaw *big.Int, decimals uint8) (*big.Int, string, error) {
	raw, err := ParseDisplayAmount(display, decimals)
	if err != nil {
		return nil, "", err
	}
	if feeRaw != nil {
		if feeRaw.Sign() < 0 {
			return nil, "", fmt.Errorf("negative fee amount")
		}
		raw = new(big.Int).Add(raw, feeRaw)
	}
	return raw, FormatRawAmount(raw, decimals), nil
}
