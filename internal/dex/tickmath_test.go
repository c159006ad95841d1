package dex

import (
	"math/big"
	"testing"
)

func TestSqrtRatioAtTickKnownValues(t *testing.T) {
	cases := []struct {
		tick int32
		want string
	}{
		{tick: MinTick, want: "4295128739"},
		{tick: -1, want: "79224201403219477170569942574"},
		{tick: 0, want: "79228162514264337593543950336"},
		{tick: 1, want: "79232123823359799118286999568"},
		{tick: MaxTick, want: "1461446703485210103287273052203988822378723970342"},
	}
	for _, tc := range cases {
		got, err := SqrtRatioAtTick(tc.tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tc.tick, err)
		}
		if got.String() != tc.want {
			t.Fatalf("tick %d: got %s, want %s", tc.tick, got, tc.want)
		}
	}
}

func TestSqrtRatioAtTickZeroIsQ96(t *testing.T) {
	got, err := SqrtRatioAtTick(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(big.Int).Lsh(big.NewInt(1), 96)
	if got.Cmp(want) != 0 {
		t.Fatalf("tick 0 must be exactly 2^96, got %s", got)
	}
}

func TestSqrtRatioAtTickMonotonic(t *testing.T) {
	ticks := []int32{MinTick, -500000, -100000, -100, -1, 0, 1, 100, 100000, 500000, MaxTick}
	prev, err := SqrtRatioAtTick(ticks[0])
	if err != nil {
		t.Fatalf("tick %d: %v", ticks[0], err)
	}
	for _, tick := range ticks[1:] {
		got, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if got.Cmp(prev) <= 0 {
			t.Fatalf("ratio must strictly increase with tick: %s at %d not above %s", got, tick, prev)
		}
		prev = got
	}
}

func TestSqrtRatioAtTickOutOfRange(t *testing.T) {
	for _, tick := range []int32{MinTick - 1, MaxTick + 1} {
		if _, err := SqrtRatioAtTick(tick); err == nil {
			t.Fatalf("tick %d should be rejected", tick)
		}
	}
}
