package cleanup

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// retryPolicy controls write retries with exponential backoff and jitter.
type retryPolicy struct {
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	jitterFraction float64
}

// writeRetries is the policy for store writes during a cleanup run. Backoff
// stays short so a flaky connection does not stall the whole batch.
var writeRetries = retryPolicy{
	maxAttempts:    3,
	initialBackoff: 100 * time.Millisecond,
	maxBackoff:     2 * time.Second,
	multiplier:     2.0,
	jitterFraction: 0.25,
}

// withRetry runs fn, retrying transient store failures per the policy.
// Context cancellation and non-transient errors stop retries immediately.
func withRetry(ctx context.Context, policy retryPolicy, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < policy.maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt >= policy.maxAttempts-1 {
			break
		}

		zap.L().Warn("retrying store write",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)

		timer := time.NewTimer(policy.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

// isTransient reports whether a store failure is worth retrying: network
// trouble or a query the driver guarantees never reached the server.
// Validation errors and missing records never are.
func isTransient(err error) bool {
	var se *StoreError
	if !errors.As(err, &se) {
		return false
	}
	var netErr net.Error
	if errors.As(se.Err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(se.Err)
}

func (p retryPolicy) backoff(attempt int) time.Duration {
	delay := float64(p.initialBackoff) * math.Pow(p.multiplier, float64(attempt))
	if delay > float64(p.maxBackoff) {
		delay = float64(p.maxBackoff)
	}
	if p.jitterFraction > 0 {
		jitter := (rand.Float64()*2 - 1) * delay * p.jitterFraction
		delay += jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
