package engine

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"liquidityDecrease/internal/dex"
	"liquidityDecrease/internal/model"
)

// BuildPlan turns a decrease result into the ordered on-chain
// operation sequence and its encoded payload. A burn replaces the
// decrease entirely; the take covers both canonical tokens; a sweep is
// appended when one of them is the native currency, because the take
// alone can strand a native remainder in the settlement layer. The
// whole list lands as one atomic transaction or not at all.
func BuildPlan(result model.DecreaseResult, position model.Position, manager, recipient common.Address, deadline *big.Int) (model.TransactionPlan, error) {
	if result.LiquidityToRemove == nil || result.LiquidityToRemove.Sign() <= 0 {
		return model.TransactionPlan{}, fmt.Errorf("nothing to remove")
	}
	if recipient == (common.Address{}) {
		return model.TransactionPlan{}, fmt.Errorf("recipient is required")
	}
	if err := position.Validate(); err != nil {
		return model.TransactionPlan{}, fmt.Errorf("invalid position: %w", err)
	}

	min0 := result.MinAmount0
	if min0 == nil {
		min0 = big.NewInt(0)
	}
	min1 := result.MinAmount1
	if min1 == nil {
		min1 = big.NewInt(0)
	}

	var ops []model.Operation
	if result.Burn {
		ops = append(ops, model.Operation{
			Kind:       model.OpBurn,
			PositionID: position.ID,
			Liquidity:  result.LiquidityToRemove,
			MinAmount0: min0,
			MinAmount1: min1,
		})
	} else {
		ops = append(ops, model.Operation{
			Kind:       model.OpDecrease,
			PositionID: position.ID,
			Liquidity:  result.LiquidityToRemove,
			MinAmount0: min0,
			MinAmount1: min1,
		})
	}

	ops = append(ops, model.Operation{
		Kind:      model.OpTake,
		Currency0: position.PoolKey.Currency0,
		Currency1: position.PoolKey.Currency1,
		Recipient: recipient,
	})

	if position.PoolKey.HasNative() {
		native := position.PoolKey.Currency0
		if native != (common.Address{}) {
			native = position.PoolKey.Currency1
		}
		ops = append(ops, model.Operation{
			Kind:      model.OpSweep,
			Currency0: native,
			Recipient: recipient,
		})
	}

	payload, err := dex.EncodeModifyLiquidities(ops, deadline)
	if err != nil {
		return model.TransactionPlan{}, fmt.Errorf("encode plan: %w", err)
	}

	return model.TransactionPlan{
		Operations: ops,
		To:         manager,
		Payload:    payload,
		Value:      big.NewInt(0),
		Deadline:   deadline,
	}, nil
}
