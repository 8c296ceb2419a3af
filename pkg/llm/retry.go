package llm

import (
	"context"
	"time"
)

const retryBaseDelay = 500 * time.Millisecond

// withRetry runs fn up to attempts times with exponential backoff
// between failures. The context cancels both the waits and the loop.
func withRetry(ctx context.Context, attempts int, fn func() error) error {
	var err error
	delay := retryBaseDelay

	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
