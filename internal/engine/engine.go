package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"liquidityDecrease/internal/dex"
	"liquidityDecrease/internal/model"
)

// PositionSource fetches current on-chain positions.
type PositionSource interface {
	Fetch(ctx context.Context, tokenID *big.Int) (model.Position, error)
}

// PoolSource fetches current pool price state.
type PoolSource interface {
	Fetch(ctx context.Context, key model.PoolKey) (model.PoolState, error)
}

// SqrtRatioFunc is the tick math collaborator.
type SqrtRatioFunc func(tick int32) (*big.Int, error)

// Engine computes decrease results and transaction plans.
type Engine struct {
	cfg       Config
	positions PositionSource
	pools     PoolSource
	sqrtRatio SqrtRatioFunc
	logger    *zap.Logger
}

// New builds an engine. The tick math collaborator defaults to the
// pool contract's exact formula.
func New(cfg Config, positions PositionSource, pools PoolSource, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		positions: positions,
		pools:     pools,
		sqrtRatio: dex.SqrtRatioAtTick,
		logger:    logger,
	}, nil
}

// Config returns the engine constants.
func (e *Engine) Config() Config {
	return e.cfg
}

// Snapshot is a per-calculation view of on-chain state. Position and
// Pool are fresh copies, never patched caches; a transient fetch
// failure is carried in Err so the solver can fall back.
type Snapshot struct {
	Position model.Position
	Pool     model.PoolState
	Err      error
}

// Available reports whether on-chain data was fetched.
func (s Snapshot) Available() bool {
	return s.Err == nil
}

// Snapshot fetches the position and pool state for the request.
// Unresolvable identifiers and resolution timeouts are fatal; other
// fetch failures come back inside the snapshot for the fallback chain.
func (e *Engine) Snapshot(ctx context.Context, req model.DecreaseRequest) (Snapshot, error) {
	if req.PositionID == nil {
		return Snapshot{}, fmt.Errorf("%w: missing position id", model.ErrUnresolvableIdentifier)
	}
	if e.positions == nil || e.pools == nil {
		return Snapshot{Err: fmt.Errorf("%w: no chain sources configured", model.ErrTransientFetch)}, nil
	}

	resolveCtx, cancel := context.WithTimeout(ctx, e.cfg.ResolveTimeout)
	defer cancel()

	var position model.Position
	var permanent error
	err := e.cfg.retry(resolveCtx, func(ctx context.Context) error {
		var err error
		position, err = e.positions.Fetch(ctx, req.PositionID)
		if errors.Is(err, model.ErrUnresolvableIdentifier) {
			// Permanent: a dead token id does not come back on retry.
			permanent = err
			return nil
		}
		if err != nil {
			e.logger.Warn("position fetch failed", zap.String("position_id", req.PositionID.String()), zap.Error(err))
		}
		return err
	})
	if permanent != nil {
		return Snapshot{}, permanent
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Snapshot{}, fmt.Errorf("%w: position %s", model.ErrResolveTimeout, req.PositionID.String())
		}
		return Snapshot{Err: fmt.Errorf("%w: %v", model.ErrTransientFetch, err)}, nil
	}

	var pool model.PoolState
	err = e.cfg.retry(ctx, func(ctx context.Context) error {
		var err error
		pool, err = e.pools.Fetch(ctx, position.PoolKey)
		if err != nil {
			e.logger.Warn("pool state fetch failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return Snapshot{Err: fmt.Errorf("%w: %v", model.ErrTransientFetch, err)}, nil
	}

	return Snapshot{Position: position, Pool: pool}, nil
}

// ComputeDecrease runs one full calculation cycle: fetch fresh state,
// then solve, degrading through the fallback chain when the chain is
// unreachable.
func (e *Engine) ComputeDecrease(ctx context.Context, req model.DecreaseRequest) (model.DecreaseResult, error) {
	snapshot, err := e.Snapshot(ctx, req)
	if err != nil {
		return model.DecreaseResult{}, err
	}
	return e.Solve(req, snapshot)
}

// Solve maps a request onto a decrease result. The strategies are
// tried in order: exact on-chain math, proportional estimate from
// last-known amounts, then a fixed minimal withdrawal. A best-effort
// small withdrawal with a warning beats blocking the user outright.
func (e *Engine) Solve(req model.DecreaseRequest, snapshot Snapshot) (model.DecreaseResult, error) {
	if err := validateRequest(req); err != nil {
		return model.DecreaseResult{}, err
	}

	if snapshot.Available() {
		result, err := e.solveOnChain(req, snapshot.Position, snapshot.Pool)
		if err != nil {
			return model.DecreaseResult{}, err
		}
		return result, nil
	}

	e.logger.Warn("solving without on-chain state", zap.Error(snapshot.Err))

	if result, ok := e.solveProportional(req); ok {
		return result, nil
	}
	return e.solveMinimal(req), nil
}

func validateRequest(req model.DecreaseRequest) error {
	if req.PositionID == nil {
		return fmt.Errorf("%w: missing position id", model.ErrUnresolvableIdentifier)
	}
	if req.PercentBps == 0 && !req.IsFullBurn && req.DesiredAmount0 == "" && req.DesiredAmount1 == "" {
		return fmt.Errorf("request has neither amounts nor a percentage")
	}
	return nil
}

// desiredRaw parses the request's display amounts, folds in
// uncollected fees, and maps the pair into canonical order.
func desiredRaw(req model.DecreaseRequest) (*big.Int, *big.Int, error) {
	var fee0, fee1 *big.Int
	if req.FeesToInclude != nil {
		fee0 = req.FeesToInclude.Amount0
		fee1 = req.FeesToInclude.Amount1
	}
	raw0, _, err := AdjustForFees(req.DesiredAmount0, fee0, req.Decimals0)
	if err != nil {
		return nil, nil, fmt.Errorf("amount0: %w", err)
	}
	raw1, _, err := AdjustForFees(req.DesiredAmount1, fee1, req.Decimals1)
	if err != nil {
		return nil, nil, fmt.Errorf("amount1: %w", err)
	}
	canonical0, canonical1 := req.Mapping.ToCanonical(raw0, raw1)
	return canonical0, canonical1, nil
}

// enteredCanonical maps the edited display side into canonical order.
// Returns false when no side was edited.
func enteredCanonical(req model.DecreaseRequest) (model.Side, bool) {
	switch req.EnteredSide {
	case model.EnteredToken0:
		return req.Mapping.ToCanonicalSide(model.SideCurrency0), true
	case model.EnteredToken1:
		return req.Mapping.ToCanonicalSide(model.SideCurrency1), true
	default:
		return 0, false
	}
}
