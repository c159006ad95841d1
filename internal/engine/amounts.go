package engine

import (
	"fmt"
	"math/big"
)

// FullAmounts computes the exact token amounts obtainable by removing
// 100% of the position liquidity at the current price. All inputs are
// Q96 fixed-point integers; sqrtLower must be below sqrtUpper. The
// arithmetic stays in big.Int throughout: a floating point detour here
// is off by a few wei, which is enough to fail minimum-out checks on
// chain.
func FullAmounts(liquidity, sqrtPrice, sqrtLower, sqrtUpper *big.Int) (*big.Int, *big.Int, error) {
	if liquidity == nil || sqrtPrice == nil || sqrtLower == nil || sqrtUpper == nil {
		return nil, nil, fmt.Errorf("nil input")
	}
	if sqrtLower.Sign() <= 0 || sqrtUpper.Cmp(sqrtLower) <= 0 {
		return nil, nil, fmt.Errorf("sqrt range invalid: lower %s, upper %s", sqrtLower, sqrtUpper)
	}
	if liquidity.Sign() < 0 {
		return nil, nil, fmt.Errorf("negative liquidity")
	}

	switch {
	case sqrtPrice.Cmp(sqrtLower) <= 0:
		// Entirely in currency0: L * (upper - lower) * Q96 / (lower * upper).
		amount0 := new(big.Int).Sub(sqrtUpper, sqrtLower)
		amount0.Mul(amount0, liquidity)
		amount0.Lsh(amount0, 96)
		amount0.Div(amount0, new(big.Int).Mul(sqrtLower, sqrtUpper))
		return amount0, big.NewInt(0), nil

	case sqrtPrice.Cmp(sqrtUpper) >= 0:
		// Entirely in currency1: L * (upper - lower) / Q96.
		amount1 := new(big.Int).Sub(sqrtUpper, sqrtLower)
		amount1.Mul(amount1, liquidity)
		amount1.Rsh(amount1, 96)
		return big.NewInt(0), amount1, nil

	default:
		amount0 := new(big.Int).Sub(sqrtUpper, sqrtPrice)
		amount0.Mul(amount0, liquidity)
		amount0.Lsh(amount0, 96)
		amount0.Div(amount0, new(big.Int).Mul(sqrtPrice, sqrtUpper))

		amount1 := new(big.Int).Sub(sqrtPrice, sqrtLower)
		amount1.Mul(amount1, liquidity)
		amount1.Rsh(amount1, 96)
		return amount0, amount1, nil
	}
}
