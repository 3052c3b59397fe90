package retry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplement/internal/config"
	"supplement/pkg/errors"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(3), func() error {
		calls++
		if calls < 3 {
			return stderrors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(2), func() error {
		calls++
		return stderrors.New("still failing")
	})

	require.EqualError(t, err, "still failing")
	assert.Equal(t, 2, calls)
}

func TestRetryStopsOnFatal(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		return NewFatalError(stderrors.New("bad request"))
	})

	require.EqualError(t, err, "bad request")
	assert.Equal(t, 1, calls)
}

func TestRetryHonoursAppErrorClassification(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(3), func() error {
		calls++
		return errors.ErrPublish.WithCause(stderrors.New("timeout"))
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls, "publish failures are retried")

	calls = 0
	err = Retry(context.Background(), fastPolicy(3), func() error {
		calls++
		return errors.ErrValidation
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 1, calls, "validation failures are fatal")
}

func TestRetryWithCallback(t *testing.T) {
	var attempts []int
	err := RetryWithCallback(context.Background(), fastPolicy(3), func() error {
		return stderrors.New("nope")
	}, func(attempt int, err error, next time.Duration) {
		attempts = append(attempts, attempt)
		assert.EqualError(t, err, "nope")
		assert.Greater(t, next, time.Duration(0))
	})

	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRetryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, Policy{MaxAttempts: 5, InitialInterval: time.Second, MaxInterval: time.Second, Multiplier: 1}, func() error {
		calls++
		return stderrors.New("transient")
	})

	require.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.RetryConfig{MaxAttempts: 7, Multiplier: 1.5})
	assert.Equal(t, 7, p.MaxAttempts)
	assert.Equal(t, 1.5, p.Multiplier)
	assert.Equal(t, DefaultPolicy().InitialInterval, p.InitialInterval)
	assert.Equal(t, DefaultPolicy().MaxInterval, p.MaxInterval)
}
