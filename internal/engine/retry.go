package engine

import (
	"context"
	"time"
)

// maxRetryDelay caps the exponential backoff so the attempt budget
// stays meaningful inside the resolve timeout.
const maxRetryDelay = 2 * time.Second

// retry runs fn under the config's retry policy: MaxRetries additional
// attempts after the first, with the delay doubling from RetryBackoff
// up to maxRetryDelay. Cancellation interrupts the wait between
// attempts, not a call already in flight.
func (c Config) retry(ctx context.Context, fn func(context.Context) error) error {
	attempts := c.MaxRetries
	if attempts < 0 {
		attempts = 0
	}
	delay := c.RetryBackoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= attempts {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}
