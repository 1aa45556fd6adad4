// Package retry implements the async retrier every remote call goes
// through: bounded attempts, a per-attempt timeout, and exponential delay.
package retry

import (
	"context"
	"time"

	"github.com/visao360/ledger/internal/logger"
)

// Config bounds one retried operation.
type Config struct {
	// MaxRetries is the total number of attempts.
	MaxRetries int
	// InitialDelay is the sleep after the first failed attempt; it doubles
	// after each subsequent failure. No jitter: convergence timing stays
	// deterministic for the debounce layer above.
	InitialDelay time.Duration
	// Timeout bounds each individual attempt.
	Timeout time.Duration
	// OperationName tags log lines.
	OperationName string
}

// DefaultRemoteConfig is tuned for the remote-store round trips.
var DefaultRemoteConfig = Config{
	MaxRetries:    3,
	InitialDelay:  time.Second,
	Timeout:       5 * time.Second,
	OperationName: "remote",
}

// Do runs op until it succeeds or attempts are exhausted, returning the
// operation's result or the last error. Each attempt gets its own timeout
// context; every failure is logged with operation name, attempt count and
// duration before retrying or giving up.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	log := logger.FromContext(ctx)
	var zero T
	var lastErr error

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		start := time.Now()
		attemptCtx := ctx
		var cancel context.CancelFunc
		if cfg.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		}
		result, err := op(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("operation", cfg.OperationName).
					Int("attempt", attempt).
					Dur("elapsed", time.Since(start)).
					Msg("retry succeeded")
			}
			return result, nil
		}
		lastErr = err

		log.Warn().
			Err(err).
			Str("operation", cfg.OperationName).
			Int("attempt", attempt).
			Int("max_retries", maxRetries).
			Dur("elapsed", time.Since(start)).
			Msg("attempt failed")

		if attempt == maxRetries {
			break
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		delay := cfg.InitialDelay << (attempt - 1)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}
