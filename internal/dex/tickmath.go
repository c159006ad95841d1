package dex

import (
	"fmt"
	"math/big"
)

// Tick bounds of the concentrated liquidity price space.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

var (
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	tickRatioBase, _ = new(big.Int).SetString("fffcb933bd6fad37aa2d162d1a594001", 16)
	tickRatioOne, _  = new(big.Int).SetString("100000000000000000000000000000000", 16)

	tickRatioSteps = mustHexInts(
		"fff97272373d413259a46990580e213a",
		"fff2e50f5f656932ef12357cf3c7fdcc",
		"ffe5caca7e10e4e61c3624eaa0941cd0",
		"ffcb9843d60f6159c9db58835c926644",
		"ff973b41fa98c081472e6896dfb254c0",
		"ff2ea16466c96a3843ec78b326b52861",
		"fe5dee046a99a2a811c461f1969c3053",
		"fcbe86c7900a88aedcffc83b479aa3a4",
		"f987a7253ac413176f2b074cf7815e54",
		"f3392b0822b70005940c7a398e4b70f3",
		"e7159475a2c29b7443b29c7fa6e889d9",
		"d097f3bdfd2022b8845ad8f792aa5825",
		"a9f746462d870fdf8a65dc1f90e061e5",
		"70d869a156d2a1b890bb3df62baf32f7",
		"31be135f97d08fd981231505542fcfa6",
		"9aa508b5b7a84e1c677de54f3e99bc9",
		"5d6af8dedb81196699c329225ee604",
		"2216e584f5fa1ea926041bedfe98",
		"48a170391f7dc42444e8fa2",
	)
)

func mustHexInts(values ...string) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, value := range values {
		n, ok := new(big.Int).SetString(value, 16)
		if !ok {
			panic("bad tick ratio constant: " + value)
		}
		out[i] = n
	}
	return out
}

// SqrtRatioAtTick returns sqrt(1.0001^tick) as a Q96 fixed-point
// integer, matching the pool contract bit for bit. Integer-only; any
// floating point here would drift by a few wei and break minimum-out
// checks downstream.
func SqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("tick %d out of range [%d, %d]", tick, MinTick, MaxTick)
	}

	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(big.Int).Set(tickRatioOne)
	if absTick&1 != 0 {
		ratio.Set(tickRatioBase)
	}
	for i, step := range tickRatioSteps {
		if absTick&(1<<(uint(i)+1)) != 0 {
			ratio.Mul(ratio, step)
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Q128 -> Q96 with round-up, as the pool contract does.
	rem := new(big.Int).And(ratio, big.NewInt((1<<32)-1))
	ratio.Rsh(ratio, 32)
	if rem.Sign() != 0 {
		ratio.Add(ratio, big.NewInt(1))
	}
	return ratio, nil
}
