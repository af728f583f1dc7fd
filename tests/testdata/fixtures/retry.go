package fixtures

import (
	"context"
	"math/rand"
	"time"
)

// Backoff calls fn until it succeeds, sleeping between attempts with
// exponential delay and full jitter. It gives up when the context is
// canceled or after maxAttempts tries, returning the last error.
func Backoff(ctx context.Context, maxAttempts int, base time.Duration, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter(base << attempt)):
		}
	}
	return err
}

// jitter picks a uniform random delay in [0, d).
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d)))
}
