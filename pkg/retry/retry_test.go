package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastRetrier(opts ...Option) *Retrier {
	base := []Option{WithInitialDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond)}
	return New(append(base, opts...)...)
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	attempts := 0
	err := fastRetrier().Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoRetriesRetryableErrors(t *testing.T) {
	attempts := 0
	err := fastRetrier(WithMaxAttempts(3)).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errTransient)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnPlainError(t *testing.T) {
	attempts := 0
	err := fastRetrier(WithMaxAttempts(5)).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, attempts)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := fastRetrier(
		WithMaxAttempts(5),
		WithRetryIf(func(error) bool { return true }),
	).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(errTransient)
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, attempts)
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := fastRetrier(WithMaxAttempts(3)).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Retryable(errTransient)
	})
	// El error devuelto es el original, sin el envoltorio de reintento.
	assert.Equal(t, errTransient, err)
	assert.Equal(t, 3, attempts)
}

func TestDoRetryIfPredicate(t *testing.T) {
	attempts := 0
	err := fastRetrier(
		WithMaxAttempts(3),
		WithRetryIf(func(err error) bool { return errors.Is(err, errTransient) }),
	).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, attempts)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := New(
		WithMaxAttempts(10),
		WithInitialDelay(50*time.Millisecond),
		WithRetryIf(func(error) bool { return true }),
	).Do(ctx, func(ctx context.Context) error {
		attempts++
		cancel()
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, attempts)
}

func TestDoOnRetryCallback(t *testing.T) {
	var retried []int
	err := fastRetrier(
		WithMaxAttempts(3),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			retried = append(retried, attempt)
		}),
	).Do(context.Background(), func(ctx context.Context) error {
		return Retryable(errTransient)
	})
	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestCalculateDelayGrowsAndCaps(t *testing.T) {
	r := New(
		WithInitialDelay(10*time.Millisecond),
		WithMaxDelay(25*time.Millisecond),
	)
	r.config.JitterFactor = 0

	assert.Equal(t, 10*time.Millisecond, r.calculateDelay(1))
	assert.Equal(t, 20*time.Millisecond, r.calculateDelay(2))
	assert.Equal(t, 25*time.Millisecond, r.calculateDelay(3))
}

func TestRetryableAndPermanentWrappers(t *testing.T) {
	assert.True(t, IsRetryable(Retryable(errTransient)))
	assert.False(t, IsRetryable(errTransient))
	assert.True(t, IsPermanent(Permanent(errTransient)))
	assert.Nil(t, Retryable(nil))
	assert.Nil(t, Permanent(nil))
	assert.ErrorIs(t, Retryable(errTransient), errTransient)
}
