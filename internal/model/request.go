package model

import "math/big"

// EnteredSide marks which display-order token field the user edited.
type EnteredSide int

const (
	EnteredNone EnteredSide = iota
	EnteredToken0
	EnteredToken1
)

// FeeAmounts holds uncollected fees in raw units, UI display order.
type FeeAmounts struct {
	Amount0 *big.Int `json:"amount0"`
	Amount1 *big.Int `json:"amount1"`
}

// DecreaseRequest describes a desired withdrawal. Amounts are
// display-unit decimal strings in the UI's token order; the engine maps
// them into canonical order internally. Immutable once submitted.
type DecreaseRequest struct {
	PositionID *big.Int

	// Amount mode: decimal strings in display units, UI order.
	DesiredAmount0 string
	DesiredAmount1 string
	EnteredSide    EnteredSide

	// Percentage mode: basis points in [1, 10000]. Zero means amount mode.
	PercentBps uint32

	IsFullBurn    bool
	FeesToInclude *FeeAmounts

	// Mapping between the UI's token order and canonical pool order,
	// established once at the boundary.
	Mapping SideMapping

	// Token decimals in UI order, for display-unit parsing.
	Decimals0 uint8
	Decimals1 uint8

	// Last-known displayed totals and liquidity (raw units, UI order)
	// for the proportional fallback when on-chain state is unavailable.
	KnownTotal0    *big.Int
	KnownTotal1    *big.Int
	KnownLiquidity *big.Int
}

// FallbackTier records which calculation path produced a result.
type FallbackTier int

const (
	TierOnChain FallbackTier = iota
	TierProportional
	TierMinimalConstant
)

// DecreaseResult is the outcome of one decrease calculation.
// Min amounts are raw units in canonical order.
type DecreaseResult struct {
	LiquidityToRemove *big.Int     `json:"liquidity_to_remove"`
	MinAmount0        *big.Int     `json:"min_amount0"`
	MinAmount1        *big.Int     `json:"min_amount1"`
	Burn              bool         `json:"burn"`
	Tier              FallbackTier `json:"tier"`
	Warning           string       `json:"warning,omitempty"`
}

// Degraded reports whether the result came from a fallback path.
func (r DecreaseResult) Degraded() bool {
	return r.Tier != TierOnChain
}
