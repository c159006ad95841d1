package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OpKind enumerates the planner's operation types.
type OpKind string

const (
	OpDecrease OpKind = "decrease"
	OpBurn     OpKind = "burn"
	OpTake     OpKind = "take"
	OpSweep    OpKind = "sweep"
)

// Operation is one step of a transaction plan. Take uses both
// currencies; sweep uses only Currency0.
type Operation struct {
	Kind       OpKind         `json:"kind"`
	PositionID *big.Int       `json:"position_id,omitempty"`
	Liquidity  *big.Int       `json:"liquidity,omitempty"`
	MinAmount0 *big.Int       `json:"min_amount0,omitempty"`
	MinAmount1 *big.Int       `json:"min_amount1,omitempty"`
	Currency0  common.Address `json:"currency0,omitempty"`
	Currency1  common.Address `json:"currency1,omitempty"`
	Recipient  common.Address `json:"recipient,omitempty"`
}

// TransactionPlan is an ordered operation list plus the encoded
// calldata for the position manager. Immutable once built; submitted
// as a single atomic transaction.
type TransactionPlan struct {
	Operations []Operation    `json:"operations"`
	To         common.Address `json:"to"`
	Payload    []byte         `json:"payload"`
	Value      *big.Int       `json:"value"`
	Deadline   *big.Int       `json:"deadline"`
}

// PlanRecord is the storage representation of a computed plan, kept in
// the audit trail for later inspection.
type PlanRecord struct {
	ChainID           uint64 `json:"chain_id"`
	PositionID        string `json:"position_id"`
	Version           uint64 `json:"version"`
	LiquidityToRemove string `json:"liquidity_to_remove"`
	MinAmount0        string `json:"min_amount0"`
	MinAmount1        string `json:"min_amount1"`
	Burn              bool   `json:"burn"`
	Degraded          bool   `json:"degraded"`
	PayloadHex        string `json:"payload_hex"`
	CreatedAt         string `json:"created_at"`
}
