package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		Timeout:       100 * time.Millisecond,
		OperationName: "test",
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	attempts := 0
	got, err := Do(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
		attempts++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, attempts)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	got, err := Do(context.Background(), fastConfig(), func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, attempts)
}

func TestDoExhaustsAndReturnsLastError(t *testing.T) {
	want := errors.New("still down")
	attempts := 0
	_, err := Do(context.Background(), fastConfig(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, want
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, want)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	cfg := fastConfig()
	cfg.InitialDelay = 50 * time.Millisecond

	_, err := Do(ctx, cfg, func(ctx context.Context) (int, error) {
		attempts++
		cancel()
		return 0, errors.New("transient")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "cancellation during the backoff sleep must not spawn another attempt")
}

func TestDoEnforcesPerAttemptTimeout(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxRetries = 1
	cfg.Timeout = 10 * time.Millisecond

	start := time.Now()
	_, err := Do(context.Background(), cfg, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
