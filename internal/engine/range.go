package engine

// RangePosition classifies the pool price against a position's range.
type RangePosition int

const (
	BelowRange RangePosition = iota
	InRange
	AboveRange
)

func (r RangePosition) String() string {
	switch r {
	case BelowRange:
		return "below_range"
	case AboveRange:
		return "above_range"
	default:
		return "in_range"
	}
}

// ClassifyRange places the current tick relative to [tickLower, tickUpper].
// Below the range the position holds only currency0; above it only
// currency1; inside it holds both.
func ClassifyRange(tick, tickLower, tickUpper int32) RangePosition {
	switch {
	case tick < tickLower:
		return BelowRange
	case tick > tickUpper:
		return AboveRange
	default:
		return InRange
	}
}

// Productive0 reports whether currency0 is extractable in this range.
func (r RangePosition) Productive0() bool {
	return r != AboveRange
}

// Productive1 reports whether currency1 is extractable in this range.
func (r RangePosition) Productive1() bool {
	return r != BelowRange
}
