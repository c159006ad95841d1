package engine

import (
	"fmt"
	"math/big"
	"time"
)

// Config carries the engine's tunable constants. The three source
// flows of this calculation historically hard-coded slightly different
// values for these; they live here once instead.
type Config struct {
	// BasisPoints is the ratio denominator (10000 = 100%).
	BasisPoints uint32

	// CushionBps is the proportional slippage cushion subtracted from
	// desired amounts when deriving minimum outputs.
	CushionBps uint32

	// CushionFloor is the smallest cushion in raw units.
	CushionFloor int64

	// FullBurnBps is the ratio at or above which a decrease is promoted
	// to a full burn instead of leaving dust liquidity behind.
	FullBurnBps uint32

	// MinFallbackLiquidity is the last-resort withdrawal size when no
	// position data is available at all.
	MinFallbackLiquidity *big.Int

	// DebounceInterval is the quiet period before a recalculation runs.
	DebounceInterval time.Duration

	// ResolveTimeout bounds position identifier resolution.
	ResolveTimeout time.Duration

	// DeadlineWindow is how far in the future plan deadlines are set.
	DeadlineWindow time.Duration

	// Retry settings for the on-chain queries.
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		BasisPoints:          10000,
		CushionBps:           1,
		CushionFloor:         3,
		FullBurnBps:          9900,
		MinFallbackLiquidity: big.NewInt(1000),
		DebounceInterval:     300 * time.Millisecond,
		ResolveTimeout:       10 * time.Second,
		DeadlineWindow:       20 * time.Minute,
		MaxRetries:           3,
		RetryBackoff:         250 * time.Millisecond,
	}
}

// Validate rejects configurations the solver cannot work with.
func (c Config) Validate() error {
	if c.BasisPoints == 0 {
		return fmt.Errorf("basis points must be positive")
	}
	if c.FullBurnBps == 0 || c.FullBurnBps > c.BasisPoints {
		return fmt.Errorf("full burn threshold %d out of (0, %d]", c.FullBurnBps, c.BasisPoints)
	}
	if c.CushionBps >= c.BasisPoints {
		return fmt.Errorf("cushion %d bps must be below %d", c.CushionBps, c.BasisPoints)
	}
	if c.MinFallbackLiquidity == nil || c.MinFallbackLiquidity.Sign() <= 0 {
		return fmt.Errorf("min fallback liquidity must be positive")
	}
	return nil
}
