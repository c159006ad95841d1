package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"liquidityDecrease/internal/chain"
	"liquidityDecrease/internal/model"
)

// PositionQuery reads positions from the position manager contract.
// Every fetch hits the chain; positions are never cached because
// liquidity and ticks move between user actions.
type PositionQuery struct {
	chain   *chain.Client
	manager common.Address
	logger  *zap.Logger
}

// NewPositionQuery builds a position query against the manager address.
func NewPositionQuery(chainClient *chain.Client, manager common.Address, logger *zap.Logger) *PositionQuery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PositionQuery{chain: chainClient, manager: manager, logger: logger}
}

// Fetch returns the current on-chain position for the token id.
// A zero packed info word means the token id does not map to a live
// position and surfaces as model.ErrUnresolvableIdentifier.
func (q *PositionQuery) Fetch(ctx context.Context, tokenID *big.Int) (model.Position, error) {
	managerABI, err := PositionManagerABI()
	if err != nil {
		return model.Position{}, fmt.Errorf("parse position manager abi: %w", err)
	}

	values, err := callMethod(ctx, q.chain, q.manager, managerABI, "getPoolAndPositionInfo", tokenID)
	if err != nil {
		return model.Position{}, fmt.Errorf("%w: %v", model.ErrTransientFetch, err)
	}
	if len(values) != 6 {
		return model.Position{}, fmt.Errorf("unexpected getPoolAndPositionInfo values: %d", len(values))
	}

	currency0, err := asAddress(values[0])
	if err != nil {
		return model.Position{}, fmt.Errorf("currency0: %w", err)
	}
	currency1, err := asAddress(values[1])
	if err != nil {
		return model.Position{}, fmt.Errorf("currency1: %w", err)
	}
	feeInt, err := asBigInt(values[2])
	if err != nil {
		return model.Position{}, fmt.Errorf("fee: %w", err)
	}
	tickSpacingInt, err := asBigInt(values[3])
	if err != nil {
		return model.Position{}, fmt.Errorf("tick spacing: %w", err)
	}
	tickSpacing, err := int24FromBig(tickSpacingInt)
	if err != nil {
		return model.Position{}, fmt.Errorf("tick spacing: %w", err)
	}
	hooks, err := asAddress(values[4])
	if err != nil {
		return model.Position{}, fmt.Errorf("hooks: %w", err)
	}
	info, err := asBigInt(values[5])
	if err != nil {
		return model.Position{}, fmt.Errorf("position info: %w", err)
	}

	if info.Sign() == 0 {
		return model.Position{}, fmt.Errorf("%w: token id %s", model.ErrUnresolvableIdentifier, tokenID.String())
	}

	tickLower, tickUpper := unpackPositionInfo(info)

	values, err = callMethod(ctx, q.chain, q.manager, managerABI, "getPositionLiquidity", tokenID)
	if err != nil {
		return model.Position{}, fmt.Errorf("%w: %v", model.ErrTransientFetch, err)
	}
	liquidity, err := asBigInt(values[0])
	if err != nil {
		return model.Position{}, fmt.Errorf("liquidity: %w", err)
	}

	key, _ := model.NewPoolKey(currency0, currency1, uint32(feeInt.Uint64()), tickSpacing, hooks)

	position := model.Position{
		ID:        new(big.Int).Set(tokenID),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Liquidity: liquidity,
		PoolKey:   key,
	}
	if err := position.Validate(); err != nil {
		return model.Position{}, fmt.Errorf("invalid position %s: %w", tokenID.String(), err)
	}

	q.logger.Debug("position fetched",
		zap.String("token_id", tokenID.String()),
		zap.Int32("tick_lower", tickLower),
		zap.Int32("tick_upper", tickUpper),
		zap.String("liquidity", liquidity.String()),
	)
	return position, nil
}

// unpackPositionInfo extracts the tick range from the packed position
// info word: bits 8..31 hold tickLower, bits 32..55 tickUpper.
func unpackPositionInfo(info *big.Int) (int32, int32) {
	word := new(big.Int).Rsh(info, 8)
	tickLower := int24FromPacked(new(big.Int).And(word, big.NewInt(0xffffff)).Uint64())
	word = new(big.Int).Rsh(info, 32)
	tickUpper := int24FromPacked(new(big.Int).And(word, big.NewInt(0xffffff)).Uint64())
	return tickLower, tickUpper
}

// PoolStateQuery reads pool price state from the state view contract.
type PoolStateQuery struct {
	chain     *chain.Client
	stateView common.Address
	logger    *zap.Logger
}

// NewPoolStateQuery builds a pool state query against the state view.
func NewPoolStateQuery(chainClient *chain.Client, stateView common.Address, logger *zap.Logger) *PoolStateQuery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolStateQuery{chain: chainClient, stateView: stateView, logger: logger}
}

// Fetch returns a fresh pool state snapshot for the pool key.
func (q *PoolStateQuery) Fetch(ctx context.Context, key model.PoolKey) (model.PoolState, error) {
	viewABI, err := StateViewABI()
	if err != nil {
		return model.PoolState{}, fmt.Errorf("parse state view abi: %w", err)
	}

	poolID, err := PoolID(key)
	if err != nil {
		return model.PoolState{}, err
	}

	values, err := callMethod(ctx, q.chain, q.stateView, viewABI, "getSlot0", poolID)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("%w: %v", model.ErrTransientFetch, err)
	}
	if len(values) < 2 {
		return model.PoolState{}, fmt.Errorf("unexpected getSlot0 values: %d", len(values))
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick: %w", err)
	}

	values, err = callMethod(ctx, q.chain, q.stateView, viewABI, "getLiquidity", poolID)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("%w: %v", model.ErrTransientFetch, err)
	}
	liquidity, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("pool liquidity: %w", err)
	}

	q.logger.Debug("pool state fetched",
		zap.String("pool_id", common.Hash(poolID).Hex()),
		zap.Int32("tick", tick),
		zap.String("sqrt_price_x96", sqrtPrice.String()),
	)
	return model.PoolState{
		SqrtPriceX96: sqrtPrice,
		Tick:         tick,
		Liquidity:    liquidity,
	}, nil
}

var poolIDArguments = abi.Arguments{
	{Type: mustType("address")},
	{Type: mustType("address")},
	{Type: mustType("uint24")},
	{Type: mustType("int24")},
	{Type: mustType("address")},
}

// PoolID derives the pool identifier as the keccak hash of the
// ABI-encoded pool key.
func PoolID(key model.PoolKey) ([32]byte, error) {
	var id [32]byte
	if err := key.Validate(); err != nil {
		return id, err
	}
	encoded, err := poolIDArguments.Pack(
		key.Currency0,
		key.Currency1,
		new(big.Int).SetUint64(uint64(key.Fee)),
		big.NewInt(int64(key.TickSpacing)),
		key.Hooks,
	)
	if err != nil {
		return id, fmt.Errorf("encode pool key: %w", err)
	}
	copy(id[:], crypto.Keccak256(encoded))
	return id, nil
}

func callMethod(ctx context.Context, chainClient *chain.Client, contract common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	if chainClient == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &contract, Data: data}
	resp, err := chainClient.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := contractABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic("bad abi type: " + name)
	}
	return t
}
