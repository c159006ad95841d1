package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"liquidityDecrease/internal/model"
)

// Position manager action bytes, as defined by the periphery.
const (
	ActionDecreaseLiquidity byte = 0x01
	ActionBurnPosition      byte = 0x03
	ActionTakePair          byte = 0x11
	ActionSweep             byte = 0x14
)

var (
	decreaseArguments = abi.Arguments{
		{Type: mustType("uint256")},
		{Type: mustType("uint256")},
		{Type: mustType("uint128")},
		{Type: mustType("uint128")},
		{Type: mustType("bytes")},
	}
	burnArguments = abi.Arguments{
		{Type: mustType("uint256")},
		{Type: mustType("uint128")},
		{Type: mustType("uint128")},
		{Type: mustType("bytes")},
	}
	takePairArguments = abi.Arguments{
		{Type: mustType("address")},
		{Type: mustType("address")},
		{Type: mustType("address")},
	}
	sweepArguments = abi.Arguments{
		{Type: mustType("address")},
		{Type: mustType("address")},
	}
	unlockArguments = abi.Arguments{
		{Type: mustType("bytes")},
		{Type: mustType("bytes[]")},
	}
)

// EncodeModifyLiquidities turns an ordered operation list into the
// position manager's modifyLiquidities calldata: one action byte plus
// one ABI-encoded params blob per operation, wrapped with the deadline.
func EncodeModifyLiquidities(ops []model.Operation, deadline *big.Int) ([]byte, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("empty operation list")
	}
	if deadline == nil || deadline.Sign() <= 0 {
		return nil, fmt.Errorf("deadline is required")
	}

	actions := make([]byte, 0, len(ops))
	params := make([][]byte, 0, len(ops))

	for _, op := range ops {
		encoded, action, err := encodeOperation(op)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
		params = append(params, encoded)
	}

	unlockData, err := unlockArguments.Pack(actions, params)
	if err != nil {
		return nil, fmt.Errorf("encode unlock data: %w", err)
	}

	managerABI, err := PositionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse position manager abi: %w", err)
	}
	payload, err := managerABI.Pack("modifyLiquidities", unlockData, deadline)
	if err != nil {
		return nil, fmt.Errorf("pack modifyLiquidities: %w", err)
	}
	return payload, nil
}

func encodeOperation(op model.Operation) ([]byte, byte, error) {
	switch op.Kind {
	case model.OpDecrease:
		encoded, err := decreaseArguments.Pack(op.PositionID, op.Liquidity, op.MinAmount0, op.MinAmount1, []byte{})
		if err != nil {
			return nil, 0, fmt.Errorf("encode decrease: %w", err)
		}
		return encoded, ActionDecreaseLiquidity, nil
	case model.OpBurn:
		encoded, err := burnArguments.Pack(op.PositionID, op.MinAmount0, op.MinAmount1, []byte{})
		if err != nil {
			return nil, 0, fmt.Errorf("encode burn: %w", err)
		}
		return encoded, ActionBurnPosition, nil
	case model.OpTake:
		encoded, err := takePairArguments.Pack(op.Currency0, op.Currency1, op.Recipient)
		if err != nil {
			return nil, 0, fmt.Errorf("encode take pair: %w", err)
		}
		return encoded, ActionTakePair, nil
	case model.OpSweep:
		encoded, err := sweepArguments.Pack(op.Currency0, op.Recipient)
		if err != nil {
			return nil, 0, fmt.Errorf("encode sweep: %w", err)
		}
		return encoded, ActionSweep, nil
	default:
		return nil, 0, fmt.Errorf("unsupported operation kind: %s", op.Kind)
	}
}
