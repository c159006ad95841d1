package engine

import (
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"liquidityDecrease/internal/model"
)

// ceilRatio returns ceil(desired * BasisPoints / full), capped at
// BasisPoints. Zero when either operand is zero: a side with no full
// amount cannot anchor a ratio.
func (c Config) ceilRatio(desired, full *big.Int) uint32 {
	if desired == nil || full == nil || desired.Sign() <= 0 || full.Sign() <= 0 {
		return 0
	}
	n := new(big.Int).Mul(desired, new(big.Int).SetUint64(uint64(c.BasisPoints)))
	n.Add(n, new(big.Int).Sub(full, big.NewInt(1)))
	n.Div(n, full)
	if !n.IsUint64() || n.Uint64() >= uint64(c.BasisPoints) {
		return c.BasisPoints
	}
	return uint32(n.Uint64())
}

func (c Config) clampBps(bps uint32) uint32 {
	if bps < 1 {
		return 1
	}
	if bps > c.BasisPoints {
		return c.BasisPoints
	}
	return bps
}

// scaleByBps returns value * bps / BasisPoints, rounded down.
func (c Config) scaleByBps(value *big.Int, bps uint32) *big.Int {
	if value == nil || value.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(value, new(big.Int).SetUint64(uint64(bps)))
	return out.Div(out, new(big.Int).SetUint64(uint64(c.BasisPoints)))
}

// solveOnChain is the exact path: classify the range, derive the full
// extractable amounts, and turn the request into a liquidity fraction.
func (e *Engine) solveOnChain(req model.DecreaseRequest, position model.Position, pool model.PoolState) (model.DecreaseResult, error) {
	sqrtLower, err := e.sqrtRatio(position.TickLower)
	if err != nil {
		return model.DecreaseResult{}, fmt.Errorf("sqrt ratio at lower tick: %w", err)
	}
	sqrtUpper, err := e.sqrtRatio(position.TickUpper)
	if err != nil {
		return model.DecreaseResult{}, fmt.Errorf("sqrt ratio at upper tick: %w", err)
	}

	rangePos := ClassifyRange(pool.Tick, position.TickLower, position.TickUpper)
	full0, full1, err := FullAmounts(position.Liquidity, pool.SqrtPriceX96, sqrtLower, sqrtUpper)
	if err != nil {
		return model.DecreaseResult{}, fmt.Errorf("full extraction amounts: %w", err)
	}

	if req.PercentBps > 0 || req.IsFullBurn {
		return e.solvePercentage(req, position.Liquidity, full0, full1, rangePos), nil
	}

	desired0, desired1, err := desiredRaw(req)
	if err != nil {
		return model.DecreaseResult{}, err
	}

	bps, burn := e.selectRatio(req, desired0, desired1, full0, full1)

	liquidity := e.cfg.scaleByBps(position.Liquidity, bps)
	if burn {
		liquidity = new(big.Int).Set(position.Liquidity)
	}

	enforce0, enforce1 := enforcementSides(req, rangePos, desired0, desired1, full0, full1)
	result := model.DecreaseResult{
		LiquidityToRemove: liquidity,
		MinAmount0:        e.cfg.MinimumOut(desired0, rangePos.Productive0(), enforce0),
		MinAmount1:        e.cfg.MinimumOut(desired1, rangePos.Productive1(), enforce1),
		Burn:              burn,
		Tier:              model.TierOnChain,
	}

	e.logger.Debug("decrease solved",
		zap.String("range", rangePos.String()),
		zap.Uint32("ratio_bps", bps),
		zap.Bool("burn", burn),
		zap.String("liquidity", liquidity.String()),
	)
	return result, nil
}

// solvePercentage handles the slider path: the fraction is explicit,
// expected amounts are pro-rata shares of the full extraction, and
// floors are enforced on every productive side.
func (e *Engine) solvePercentage(req model.DecreaseRequest, totalLiquidity, full0, full1 *big.Int, rangePos RangePosition) model.DecreaseResult {
	bps := req.PercentBps
	if req.IsFullBurn {
		bps = e.cfg.BasisPoints
	}
	bps = e.cfg.clampBps(bps)
	burn := bps >= e.cfg.FullBurnBps

	liquidity := e.cfg.scaleByBps(totalLiquidity, bps)
	if burn {
		liquidity = new(big.Int).Set(totalLiquidity)
	}

	expected0 := e.cfg.scaleByBps(full0, bps)
	expected1 := e.cfg.scaleByBps(full1, bps)

	return model.DecreaseResult{
		LiquidityToRemove: liquidity,
		MinAmount0:        e.cfg.MinimumOut(expected0, rangePos.Productive0(), true),
		MinAmount1:        e.cfg.MinimumOut(expected1, rangePos.Productive1(), true),
		Burn:              burn,
		Tier:              model.TierOnChain,
	}
}

// selectRatio applies the amount-mode side rules. When the user edited
// one side, only that side's ratio counts: the untouched side rounds
// unpredictably and must not inflate the removal. With no edited side
// the maximum of both ratios is used, guaranteeing at least the
// requested amount on each. An edited side with no full amount (the
// pool moved out of its range) degenerates to the other side's ratio,
// which for a zero desired amount clamps to the 1 bps floor instead of
// erroring.
func (e *Engine) selectRatio(req model.DecreaseRequest, desired0, desired1, full0, full1 *big.Int) (uint32, bool) {
	ratio0 := e.cfg.ceilRatio(desired0, full0)
	ratio1 := e.cfg.ceilRatio(desired1, full1)

	entered, hasEntered := enteredCanonical(req)

	var selected uint32
	switch {
	case hasEntered && entered == model.SideCurrency0 && full0.Sign() > 0:
		selected = ratio0
	case hasEntered && entered == model.SideCurrency1 && full1.Sign() > 0:
		selected = ratio1
	case hasEntered && entered == model.SideCurrency0:
		selected = ratio1
	case hasEntered && entered == model.SideCurrency1:
		selected = ratio0
	default:
		selected = ratio0
		if ratio1 > selected {
			selected = ratio1
		}
	}
	selected = e.cfg.clampBps(selected)

	burn := e.burnDecision(hasEntered, entered, ratio0, ratio1, full0, full1)
	return selected, burn
}

// burnDecision promotes a near-complete withdrawal to a burn so no
// dust liquidity is left behind. Every productive side with a nonzero
// full amount must clear the threshold; in entered mode only the
// edited side's ratio is meaningful.
func (e *Engine) burnDecision(hasEntered bool, entered model.Side, ratio0, ratio1 uint32, full0, full1 *big.Int) bool {
	if hasEntered {
		if entered == model.SideCurrency0 && full0.Sign() > 0 {
			return ratio0 >= e.cfg.FullBurnBps
		}
		if entered == model.SideCurrency1 && full1.Sign() > 0 {
			return ratio1 >= e.cfg.FullBurnBps
		}
		return false
	}

	any := false
	if full0.Sign() > 0 {
		if ratio0 < e.cfg.FullBurnBps {
			return false
		}
		any = true
	}
	if full1.Sign() > 0 {
		if ratio1 < e.cfg.FullBurnBps {
			return false
		}
		any = true
	}
	return any
}

// enforcementSides decides which canonical sides carry a slippage
// floor in amount mode. In range, only the side the user edited is
// constrained; the other side is a best-effort ratio match. With no
// edited side, every side with a nonzero desired amount is enforced.
// A side whose full extractable amount is zero never carries a floor:
// at a range boundary the price still classifies as in range while one
// side already extracts nothing, and a positive floor there would make
// the transaction revert unconditionally.
func enforcementSides(req model.DecreaseRequest, rangePos RangePosition, desired0, desired1, full0, full1 *big.Int) (bool, bool) {
	enforce0 := full0.Sign() > 0
	enforce1 := full1.Sign() > 0
	if rangePos != InRange {
		return enforce0, enforce1
	}

	entered, hasEntered := enteredCanonical(req)
	if !hasEntered {
		return enforce0 && desired0.Sign() > 0, enforce1 && desired1.Sign() > 0
	}
	return enforce0 && entered == model.SideCurrency0, enforce1 && entered == model.SideCurrency1
}

// solveProportional estimates the fraction from the position's
// last-known displayed amounts when the chain is unreachable.
func (e *Engine) solveProportional(req model.DecreaseRequest) (model.DecreaseResult, bool) {
	if req.KnownLiquidity == nil || req.KnownLiquidity.Sign() <= 0 {
		return model.DecreaseResult{}, false
	}

	var bps uint32
	var burn bool
	if req.PercentBps > 0 || req.IsFullBurn {
		bps = req.PercentBps
		if req.IsFullBurn {
			bps = e.cfg.BasisPoints
		}
		bps = e.cfg.clampBps(bps)
		burn = bps >= e.cfg.FullBurnBps
	} else {
		if req.KnownTotal0 == nil && req.KnownTotal1 == nil {
			return model.DecreaseResult{}, false
		}
		desired0, desired1, err := desiredRaw(req)
		if err != nil {
			return model.DecreaseResult{}, false
		}
		// Totals are display order; the desired pair was mapped to
		// canonical, so map it back before comparing like with like.
		display0, display1 := req.Mapping.ToDisplay(desired0, desired1)
		ratio0 := e.cfg.ceilRatio(display0, req.KnownTotal0)
		ratio1 := e.cfg.ceilRatio(display1, req.KnownTotal1)

		switch req.EnteredSide {
		case model.EnteredToken0:
			bps = ratio0
		case model.EnteredToken1:
			bps = ratio1
		default:
			bps = ratio0
			if ratio1 > bps {
				bps = ratio1
			}
		}
		bps = e.cfg.clampBps(bps)
		burn = bps >= e.cfg.FullBurnBps
	}

	liquidity := e.cfg.scaleByBps(req.KnownLiquidity, bps)
	if burn {
		liquidity = new(big.Int).Set(req.KnownLiquidity)
	}

	// Without a price snapshot there is no safe floor to enforce.
	return model.DecreaseResult{
		LiquidityToRemove: liquidity,
		MinAmount0:        big.NewInt(0),
		MinAmount1:        big.NewInt(0),
		Burn:              burn,
		Tier:              model.TierProportional,
	}, true
}

// solveMinimal is the last resort: a fixed, economically small
// withdrawal with an explicit warning, rather than a hard failure.
func (e *Engine) solveMinimal(req model.DecreaseRequest) model.DecreaseResult {
	e.logger.Warn("falling back to minimal constant withdrawal",
		zap.String("position_id", req.PositionID.String()),
	)
	return model.DecreaseResult{
		LiquidityToRemove: new(big.Int).Set(e.cfg.MinFallbackLiquidity),
		MinAmount0:        big.NewInt(0),
		MinAmount1:        big.NewInt(0),
		Burn:              false,
		Tier:              model.TierMinimalConstant,
		Warning:           "on-chain state unavailable; proceeding with a minimal withdrawal at reduced precision",
	}
}
