package engine

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"liquidityDecrease/internal/model"
	"liquidityDecrease/internal/storage"
)

// State is the orchestrator's lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateComputing
	StateReady
	StateSubmitting
	StateConfirming
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateComputing:
		return "computing"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateConfirming:
		return "confirming"
	case StateSucceeded:
		return "succeeded"
	default:
		return "failed"
	}
}

// Submitter signs and broadcasts a plan. Send returns once the
// transaction is accepted by the mempool; Wait blocks until the
// receipt lands.
type Submitter interface {
	Send(ctx context.Context, plan model.TransactionPlan) (common.Hash, error)
	Wait(ctx context.Context, txHash common.Hash) error
}

// Outcome is one delivered calculation result.
type Outcome struct {
	Version  uint64
	Request  model.DecreaseRequest
	Result   model.DecreaseResult
	Position model.Position
	Plan     model.TransactionPlan
	Err      error
}

// Orchestrator debounces recalculation triggers, discards stale
// results by version, and drives plans through submission. In-flight
// network calls are never aborted; a result whose captured version no
// longer matches the counter is dropped on arrival, so only the latest
// trigger ever reaches the caller.
type Orchestrator struct {
	engine    *Engine
	manager   common.Address
	recipient common.Address
	submitter Submitter
	sink      storage.PlanSink
	chainID   uint64
	logger    *zap.Logger

	version atomic.Uint64
	state   atomic.Int32

	mu    sync.Mutex
	timer *time.Timer

	outcomes chan Outcome
}

// NewOrchestrator wires the orchestrator. The submitter and sink are
// optional; without a submitter, plans stop at Ready.
func NewOrchestrator(eng *Engine, manager, recipient common.Address, submitter Submitter, sink storage.PlanSink, chainID uint64, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		engine:    eng,
		manager:   manager,
		recipient: recipient,
		submitter: submitter,
		sink:      sink,
		chainID:   chainID,
		logger:    logger,
		outcomes:  make(chan Outcome, 8),
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Outcomes delivers results tagged with the version that produced
// them; only the latest version's result is ever sent.
func (o *Orchestrator) Outcomes() <-chan Outcome {
	return o.outcomes
}

// Trigger registers a new user input. Rapid successive triggers
// coalesce into a single trailing calculation after the debounce quiet
// period; each trigger invalidates any in-flight work.
func (o *Orchestrator) Trigger(ctx context.Context, req model.DecreaseRequest) uint64 {
	version := o.version.Add(1)

	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.engine.Config().DebounceInterval, func() {
		o.run(ctx, req, version)
	})
	o.mu.Unlock()

	return version
}

// ComputeNow bypasses the debounce and runs the calculation
// synchronously. Used by the CLI, which has no typing to coalesce.
func (o *Orchestrator) ComputeNow(ctx context.Context, req model.DecreaseRequest) (Outcome, error) {
	version := o.version.Add(1)
	outcome := o.compute(ctx, req, version)
	if outcome.Err != nil {
		return outcome, outcome.Err
	}
	o.record(ctx, outcome)
	return outcome, nil
}

func (o *Orchestrator) run(ctx context.Context, req model.DecreaseRequest, version uint64) {
	if o.stale(version) {
		return
	}

	outcome := o.compute(ctx, req, version)

	// Last write wins by version, not arrival: a slower older fetch
	// must never overwrite the result of a newer trigger.
	if o.stale(version) {
		o.logger.Debug("discarding stale result",
			zap.Uint64("version", version),
			zap.Uint64("current", o.version.Load()),
		)
		return
	}

	if outcome.Err != nil {
		o.state.Store(int32(StateFailed))
	} else {
		o.state.Store(int32(StateReady))
		o.record(ctx, outcome)
	}

	select {
	case o.outcomes <- outcome:
	default:
		o.logger.Warn("outcome channel full, dropping", zap.Uint64("version", version))
	}
}

func (o *Orchestrator) compute(ctx context.Context, req model.DecreaseRequest, version uint64) Outcome {
	outcome := Outcome{Version: version, Request: req}

	o.state.Store(int32(StateFetching))
	snapshot, err := o.engine.Snapshot(ctx, req)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if o.stale(version) {
		outcome.Err = context.Canceled
		return outcome
	}

	o.state.Store(int32(StateComputing))
	result, err := o.engine.Solve(req, snapshot)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Result = result

	position := snapshot.Position
	if !snapshot.Available() {
		// Fallback results have no verified position; the plan is
		// built against the requested id with the caller's known data.
		position = model.Position{
			ID:        req.PositionID,
			TickLower: -1,
			TickUpper: 1,
			Liquidity: result.LiquidityToRemove,
		}
	}
	outcome.Position = position

	if snapshot.Available() {
		deadline := big.NewInt(time.Now().Add(o.engine.Config().DeadlineWindow).Unix())
		plan, err := BuildPlan(result, position, o.manager, o.recipient, deadline)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		outcome.Plan = plan
	}

	return outcome
}

func (o *Orchestrator) stale(version uint64) bool {
	return version != o.version.Load()
}

func (o *Orchestrator) record(ctx context.Context, outcome Outcome) {
	if o.sink == nil {
		return
	}
	record := model.PlanRecord{
		ChainID:           o.chainID,
		PositionID:        outcome.Request.PositionID.String(),
		Version:           outcome.Version,
		LiquidityToRemove: outcome.Result.LiquidityToRemove.String(),
		MinAmount0:        outcome.Result.MinAmount0.String(),
		MinAmount1:        outcome.Result.MinAmount1.String(),
		Burn:              outcome.Result.Burn,
		Degraded:          outcome.Result.Degraded(),
		PayloadHex:        hexutil.Encode(outcome.Plan.Payload),
		CreatedAt:         time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := o.sink.PutPlan(ctx, record); err != nil {
		o.logger.Warn("plan record write failed", zap.Error(err))
	}
}

// Submit drives a ready plan through the signer and broadcaster. A
// user rejection quietly returns the orchestrator to idle; a revert
// surfaces with its transaction hash and is never retried here, since
// retrying a decrease against stale liquidity is unsafe. After a
// failure the orchestrator is idle again so a fresh trigger can start
// over with fresh on-chain state.
func (o *Orchestrator) Submit(ctx context.Context, plan model.TransactionPlan) (common.Hash, error) {
	if o.submitter == nil {
		return common.Hash{}, errors.New("no submitter configured")
	}

	o.state.Store(int32(StateSubmitting))
	txHash, err := o.submitter.Send(ctx, plan)
	if err != nil {
		if errors.Is(err, model.ErrUserRejectedSignature) {
			o.state.Store(int32(StateIdle))
			return common.Hash{}, err
		}
		o.state.Store(int32(StateIdle))
		return txHash, err
	}

	o.state.Store(int32(StateConfirming))
	if err := o.submitter.Wait(ctx, txHash); err != nil {
		var revert *model.OnChainRevertError
		if errors.As(err, &revert) {
			o.logger.Error("plan reverted on chain", zap.String("tx_hash", revert.TxHash))
		}
		o.state.Store(int32(StateIdle))
		return txHash, err
	}

	o.state.Store(int32(StateSucceeded))
	return txHash, nil
}
