package engine

import "math/big"

// MinimumOut derives the slippage floor for one canonical side.
// Concentrated liquidity removal is not exactly invertible in integer
// arithmetic, so demanding the literal desired amount reverts on
// sub-wei rounding; the cushion is the larger of CushionBps of the
// desired amount and CushionFloor raw units. Non-productive sides and,
// for in-range positions, sides the user did not edit get a zero floor.
func (c Config) MinimumOut(desired *big.Int, productive bool, enforce bool) *big.Int {
	if !productive || !enforce || desired == nil || desired.Sign() <= 0 {
		return big.NewInt(0)
	}

	cushion := new(big.Int).Mul(desired, new(big.Int).SetUint64(uint64(c.CushionBps)))
	cushion.Div(cushion, new(big.Int).SetUint64(uint64(c.BasisPoints)))
	floor := big.NewInt(c.CushionFloor)
	if cushion.Cmp(floor) < 0 {
		cushion = floor
	}

	if desired.Cmp(cushion) <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Sub(desired, cushion)
}
