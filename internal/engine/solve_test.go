package engine

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"liquidityDecrease/internal/model"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig(), nil, nil, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func testPoolKey() model.PoolKey {
	key, _ := model.NewPoolKey(
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
		common.HexToAddress("0x2222222222222222222222222222222222222222"),
		3000, 60, common.Address{},
	)
	return key
}

// snapshotAt builds an available snapshot for a symmetric position
// around tick zero with the pool price at the given tick.
func snapshotAt(t *testing.T, tick int32, liquidity int64) Snapshot {
	t.Helper()
	return Snapshot{
		Position: model.Position{
			ID:        big.NewInt(42),
			TickLower: -100,
			TickUpper: 100,
			Liquidity: big.NewInt(liquidity),
			PoolKey:   testPoolKey(),
		},
		Pool: model.PoolState{
			SqrtPriceX96: sqrtAt(t, tick),
			Tick:         tick,
			Liquidity:    big.NewInt(liquidity),
		},
	}
}

func TestSolveAmountModeInRange(t *testing.T) {
	e := newTestEngine(t)
	req := model.DecreaseRequest{
		PositionID:     big.NewInt(42),
		DesiredAmount0: "50",
		EnteredSide:    model.EnteredToken0,
		Decimals0:      6,
		Decimals1:      6,
	}

	// Liquidity 1e12 across ticks [-100, 100] at tick 0 fully extracts
	// 4_987_272_070 raw units per side; 50 tokens therefore needs
	// ceil(50e6 * 10000 / 4987272070) = 101 bps of the liquidity.
	result, err := e.Solve(req, snapshotAt(t, 0, 1_000_000_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := result.LiquidityToRemove.String(), "10100000000"; got != want {
		t.Fatalf("liquidity = %s, want %s", got, want)
	}
	if got, want := result.MinAmount0.String(), "49995000"; got != want {
		t.Fatalf("min amount0 = %s, want %s", got, want)
	}
	if result.MinAmount1.Sign() != 0 {
		t.Fatalf("min amount1 should be zero for the untouched side, got %s", result.MinAmount1)
	}
	if result.Burn {
		t.Fatalf("partial withdrawal must not burn")
	}
	if result.Tier != model.TierOnChain || result.Degraded() {
		t.Fatalf("expected on-chain tier, got %v", result.Tier)
	}
}

func TestSolveAmountModeAboveRange(t *testing.T) {
	e := newTestEngine(t)
	req := model.DecreaseRequest{
		PositionID:     big.NewInt(42),
		DesiredAmount0: "50",
		EnteredSide:    model.EnteredToken0,
		Decimals0:      6,
		Decimals1:      6,
	}

	// Above range the position is entirely currency1, so the edited
	// currency0 side has no full amount to anchor its ratio. The other
	// side has no desired amount either, so the ratio clamps to the
	// 1 bps floor instead of failing.
	result, err := e.Solve(req, snapshotAt(t, 200, 1_000_000_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := result.LiquidityToRemove.String(), "100000000"; got != want {
		t.Fatalf("liquidity = %s, want %s", got, want)
	}
	if result.MinAmount0.Sign() != 0 {
		t.Fatalf("min amount0 must be zero on a non-productive side, got %s", result.MinAmount0)
	}
	if result.MinAmount1.Sign() != 0 {
		t.Fatalf("min amount1 must be zero with no desired amount, got %s", result.MinAmount1)
	}
	if result.Burn {
		t.Fatalf("floor-clamped withdrawal must not burn")
	}
}

func TestSolveAmountModeAtUpperBoundary(t *testing.T) {
	e := newTestEngine(t)
	req := model.DecreaseRequest{
		PositionID:     big.NewInt(42),
		DesiredAmount0: "50",
		EnteredSide:    model.EnteredToken0,
		Decimals0:      6,
		Decimals1:      6,
	}

	// At tick == tickUpper the position classifies as in range but the
	// price already sits on the upper bound, so the currency0 side
	// extracts nothing. The ratio degenerates to the other side and no
	// floor may be placed on currency0: a positive minimum against an
	// empty side reverts unconditionally on chain.
	result, err := e.Solve(req, snapshotAt(t, 100, 1_000_000_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.MinAmount0.Sign() != 0 {
		t.Fatalf("min amount0 = %s, must be zero when nothing of currency0 is extractable", result.MinAmount0)
	}
	if result.MinAmount1.Sign() != 0 {
		t.Fatalf("min amount1 = %s, must be zero with no desired amount", result.MinAmount1)
	}
	if got, want := result.LiquidityToRemove.String(), "100000000"; got != want {
		t.Fatalf("liquidity = %s, want the 1 bps floor %s", got, want)
	}
	if result.Burn {
		t.Fatalf("boundary withdrawal must not burn")
	}
}

func TestSolveAmountModeAtLowerBoundary(t *testing.T) {
	e := newTestEngine(t)
	req := model.DecreaseRequest{
		PositionID:     big.NewInt(42),
		DesiredAmount1: "50",
		EnteredSide:    model.EnteredToken1,
		Decimals0:      6,
		Decimals1:      6,
	}

	// The mirror case: at tick == tickLower the currency1 side
	// extracts nothing, so the edited side's floor must vanish.
	result, err := e.Solve(req, snapshotAt(t, -100, 1_000_000_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.MinAmount1.Sign() != 0 {
		t.Fatalf("min amount1 = %s, must be zero when nothing of currency1 is extractable", result.MinAmount1)
	}
	if result.MinAmount0.Sign() != 0 {
		t.Fatalf("min amount0 = %s, must be zero with no desired amount", result.MinAmount0)
	}
	if got, want := result.LiquidityToRemove.String(), "100000000"; got != want {
		t.Fatalf("liquidity = %s, want the 1 bps floor %s", got, want)
	}
}

func TestSolvePercentageMode(t *testing.T) {
	e := newTestEngine(t)
	req := model.DecreaseRequest{
		PositionID: big.NewInt(42),
		PercentBps: 2500,
		Decimals0:  6,
		Decimals1:  6,
	}

	result, err := e.Solve(req, snapshotAt(t, 0, 1_000_000_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := result.LiquidityToRemove.String(), "250000000000"; got != want {
		t.Fatalf("liquidity = %s, want %s", got, want)
	}
	// Expected per side: 4987272070 * 2500 / 10000 = 1246818017,
	// cushioned by 1 bps.
	if got, want := result.MinAmount0.String(), "1246693336"; got != want {
		t.Fatalf("min amount0 = %s, want %s", got, want)
	}
	if got, want := result.MinAmount1.String(), "1246693336"; got != want {
		t.Fatalf("min amount1 = %s, want %s", got, want)
	}
	if result.Burn {
		t.Fatalf("25%% withdrawal must not burn")
	}
}

func TestSolveFullBurn(t *testing.T) {
	e := newTestEngine(t)
	snapshot := snapshotAt(t, 0, 1_000_000_000_000)

	for _, req := range []model.DecreaseRequest{
		{PositionID: big.NewInt(42), IsFullBurn: true},
		{PositionID: big.NewInt(42), PercentBps: 10_000},
		{PositionID: big.NewInt(42), PercentBps: 9_950},
	} {
		result, err := e.Solve(req, snapshot)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Burn {
			t.Fatalf("request %+v should promote to burn", req)
		}
		if result.LiquidityToRemove.Cmp(snapshot.Position.Liquidity) != 0 {
			t.Fatalf("burn must remove exactly the full liquidity, got %s", result.LiquidityToRemove)
		}
	}
}

func TestSolveAmountModeNearCompleteBurns(t *testing.T) {
	e := newTestEngine(t)
	req := model.DecreaseRequest{
		PositionID:     big.NewInt(42),
		DesiredAmount0: "4985",
		EnteredSide:    model.EnteredToken0,
		Decimals0:      6,
		Decimals1:      6,
	}

	// 4985 of the ~4987.27 fully extractable tokens is 9996 bps,
	// beyond the burn threshold: dust liquidity is not left behind.
	result, err := e.Solve(req, snapshotAt(t, 0, 1_000_000_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Burn {
		t.Fatalf("near-complete withdrawal should promote to burn")
	}
	if result.LiquidityToRemove.Cmp(big.NewInt(1_000_000_000_000)) != 0 {
		t.Fatalf("burn must remove exactly the full liquidity, got %s", result.LiquidityToRemove)
	}
}

func TestSolveFlippedMapping(t *testing.T) {
	e := newTestEngine(t)
	req := model.DecreaseRequest{
		PositionID:     big.NewInt(42),
		DesiredAmount0: "50",
		EnteredSide:    model.EnteredToken0,
		Decimals0:      6,
		Decimals1:      6,
		Mapping:        model.SideMapping{Flipped: true},
	}

	// The UI's token0 is the pool's currency1, so the floor lands on
	// the canonical currency1 side.
	result, err := e.Solve(req, snapshotAt(t, 0, 1_000_000_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := result.LiquidityToRemove.String(), "10100000000"; got != want {
		t.Fatalf("liquidity = %s, want %s", got, want)
	}
	if result.MinAmount0.Sign() != 0 {
		t.Fatalf("min amount0 should be zero, got %s", result.MinAmount0)
	}
	if got, want := result.MinAmount1.String(), "49995000"; got != want {
		t.Fatalf("min amount1 = %s, want %s", got, want)
	}
}

func TestSolveFeesRaiseDesired(t *testing.T) {
	e := newTestEngine(t)
	req := model.DecreaseRequest{
		PositionID:     big.NewInt(42),
		DesiredAmount0: "50",
		EnteredSide:    model.EnteredToken0,
		Decimals0:      6,
		Decimals1:      6,
		FeesToInclude:  &model.FeeAmounts{Amount0: big.NewInt(5_000_000)},
	}

	// 50 tokens plus 5 tokens of fees: 55e6 raw needs 111 bps.
	result, err := e.Solve(req, snapshotAt(t, 0, 1_000_000_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := result.LiquidityToRemove.String(), "11100000000"; got != want {
		t.Fatalf("liquidity = %s, want %s", got, want)
	}
	if got, want := result.MinAmount0.String(), "54994500"; got != want {
		t.Fatalf("min amount0 = %s, want %s", got, want)
	}
}

func TestSolveProportionalFallback(t *testing.T) {
	e := newTestEngine(t)
	req := model.DecreaseRequest{
		PositionID:     big.NewInt(42),
		DesiredAmount0: "50",
		EnteredSide:    model.EnteredToken0,
		Decimals0:      6,
		Decimals1:      6,
		KnownTotal0:    big.NewInt(100_000_000),
		KnownLiquidity: big.NewInt(1_000_000_000_000),
	}

	result, err := e.Solve(req, Snapshot{Err: model.ErrTransientFetch})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tier != model.TierProportional {
		t.Fatalf("expected proportional tier, got %v", result.Tier)
	}
	// 50 of a known total of 100 is exactly half the liquidity.
	if got, want := result.LiquidityToRemove.String(), "500000000000"; got != want {
		t.Fatalf("liquidity = %s, want %s", got, want)
	}
	if result.MinAmount0.Sign() != 0 || result.MinAmount1.Sign() != 0 {
		t.Fatalf("proportional fallback must not enforce floors")
	}
	if !result.Degraded() {
		t.Fatalf("proportional result should report as degraded")
	}
}

func TestSolveProportionalFallbackPercentage(t *testing.T) {
	e := newTestEngine(t)
	req := model.DecreaseRequest{
		PositionID:     big.NewInt(42),
		PercentBps:     10_000,
		KnownLiquidity: big.NewInt(777),
	}

	result, err := e.Solve(req, Snapshot{Err: model.ErrTransientFetch})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Burn {
		t.Fatalf("full percentage should burn even in fallback")
	}
	if result.LiquidityToRemove.Cmp(big.NewInt(777)) != 0 {
		t.Fatalf("liquidity = %s, want 777", result.LiquidityToRemove)
	}
}

func TestSolveMinimalFallback(t *testing.T) {
	e := newTestEngine(t)
	req := model.DecreaseRequest{
		PositionID:     big.NewInt(42),
		DesiredAmount0: "50",
		Decimals0:      6,
	}

	result, err := e.Solve(req, Snapshot{Err: model.ErrTransientFetch})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tier != model.TierMinimalConstant {
		t.Fatalf("expected minimal tier, got %v", result.Tier)
	}
	if result.LiquidityToRemove.Cmp(e.Config().MinFallbackLiquidity) != 0 {
		t.Fatalf("liquidity = %s, want the configured minimum", result.LiquidityToRemove)
	}
	if result.Warning == "" {
		t.Fatalf("minimal fallback must carry a warning")
	}
	if result.Burn {
		t.Fatalf("minimal fallback must never burn")
	}
}

func TestSolveRejectsEmptyRequest(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Solve(model.DecreaseRequest{PositionID: big.NewInt(1)}, snapshotAt(t, 0, 1000))
	if err == nil {
		t.Fatalf("expected error for a request with neither amounts nor percentage")
	}

	_, err = e.Solve(model.DecreaseRequest{PercentBps: 100}, snapshotAt(t, 0, 1000))
	if !errors.Is(err, model.ErrUnresolvableIdentifier) {
		t.Fatalf("expected unresolvable identifier for nil position id, got %v", err)
	}
}

func TestSolveRatioMonotonic(t *testing.T) {
	e := newTestEngine(t)
	snapshot := snapshotAt(t, 0, 1_000_000_000_000)

	prev := big.NewInt(0)
	for _, display := range []string{"1", "10", "100", "1000", "4000"} {
		req := model.DecreaseRequest{
			PositionID:     big.NewInt(42),
			DesiredAmount0: display,
			EnteredSide:    model.EnteredToken0,
			Decimals0:      6,
			Decimals1:      6,
		}
		result, err := e.Solve(req, snapshot)
		if err != nil {
			t.Fatalf("amount %s: %v", display, err)
		}
		if result.LiquidityToRemove.Cmp(prev) <= 0 {
			t.Fatalf("liquidity must grow with the desired amount: %s then %s", prev, result.LiquidityToRemove)
		}
		if result.LiquidityToRemove.Cmp(snapshot.Position.Liquidity) > 0 {
			t.Fatalf("liquidity %s exceeds the position total", result.LiquidityToRemove)
		}
		prev = result.LiquidityToRemove
	}
}
