package model

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PoolKey identifies a pool. Currency0 and Currency1 are always in
// canonical byte order; use NewPoolKey to construct one.
type PoolKey struct {
	Currency0   common.Address `json:"currency0"`
	Currency1   common.Address `json:"currency1"`
	Fee         uint32         `json:"fee"`
	TickSpacing int32          `json:"tick_spacing"`
	Hooks       common.Address `json:"hooks"`
}

// NewPoolKey builds a PoolKey from two currencies in any order. The
// returned mapping reports whether the caller's (a, b) order had to be
// flipped to reach canonical order.
func NewPoolKey(a, b common.Address, fee uint32, tickSpacing int32, hooks common.Address) (PoolKey, SideMapping) {
	flipped := bytes.Compare(a.Bytes(), b.Bytes()) > 0
	if flipped {
		a, b = b, a
	}
	key := PoolKey{
		Currency0:   a,
		Currency1:   b,
		Fee:         fee,
		TickSpacing: tickSpacing,
		Hooks:       hooks,
	}
	return key, SideMapping{Flipped: flipped}
}

// Validate checks the canonical-order invariant.
func (k PoolKey) Validate() error {
	if bytes.Compare(k.Currency0.Bytes(), k.Currency1.Bytes()) >= 0 {
		return fmt.Errorf("pool key currencies out of canonical order: %s >= %s", k.Currency0.Hex(), k.Currency1.Hex())
	}
	return nil
}

// HasNative reports whether either currency is the chain's native
// currency (the zero address in the pool manager's currency scheme).
func (k PoolKey) HasNative() bool {
	return k.Currency0 == (common.Address{}) || k.Currency1 == (common.Address{})
}

// SideMapping translates between the UI's token0/token1 display order
// and the pool's canonical currency order. All engine math runs in
// canonical order; callers map at the boundary in both directions.
type SideMapping struct {
	Flipped bool `json:"flipped"`
}

// ToCanonical maps a (displayAmount0, displayAmount1) pair into
// canonical (amount0, amount1).
func (m SideMapping) ToCanonical(display0, display1 *big.Int) (*big.Int, *big.Int) {
	if m.Flipped {
		return display1, display0
	}
	return display0, display1
}

// ToDisplay maps canonical (amount0, amount1) back into display order.
func (m SideMapping) ToDisplay(amount0, amount1 *big.Int) (*big.Int, *big.Int) {
	if m.Flipped {
		return amount1, amount0
	}
	return amount0, amount1
}

// Side identifies one canonical side of a pool.
type Side int

const (
	SideCurrency0 Side = iota
	SideCurrency1
)

// ToCanonicalSide maps a display-order side through the mapping.
func (m SideMapping) ToCanonicalSide(displaySide Side) Side {
	if !m.Flipped {
		return displaySide
	}
	if displaySide == SideCurrency0 {
		return SideCurrency1
	}
	return SideCurrency0
}

// Position is an on-chain concentrated liquidity position snapshot.
// Fetched fresh per calculation; never mutated.
type Position struct {
	ID        *big.Int `json:"id"`
	TickLower int32    `json:"tick_lower"`
	TickUpper int32    `json:"tick_upper"`
	Liquidity *big.Int `json:"liquidity"`
	PoolKey   PoolKey  `json:"pool_key"`
}

// Validate checks structural invariants of the position.
func (p Position) Validate() error {
	if p.ID == nil {
		return fmt.Errorf("position id is nil")
	}
	if p.TickLower >= p.TickUpper {
		return fmt.Errorf("tick range invalid: lower %d >= upper %d", p.TickLower, p.TickUpper)
	}
	if p.Liquidity == nil || p.Liquidity.Sign() < 0 {
		return fmt.Errorf("liquidity must be non-negative")
	}
	return p.PoolKey.Validate()
}

// PoolState is an ephemeral pool price snapshot.
type PoolState struct {
	SqrtPriceX96 *big.Int `json:"sqrt_price_x96"`
	Tick         int32    `json:"tick"`
	Liquidity    *big.Int `json:"liquidity"`
}
