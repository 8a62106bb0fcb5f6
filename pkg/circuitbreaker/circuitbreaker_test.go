package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func failing(ctx context.Context) error { return errBackend }
func succeeding(ctx context.Context) error { return nil }

func tripBreaker(t *testing.T, cb *CircuitBreaker, failures int) {
	t.Helper()
	for i := 0; i < failures; i++ {
		err := cb.Execute(context.Background(), failing)
		require.ErrorIs(t, err, errBackend)
	}
}

func TestBreakerStaysClosedBelowThreshold(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	tripBreaker(t, cb, 2)
	assert.Equal(t, StateClosed, cb.State())

	// A success resets the consecutive failure streak.
	require.NoError(t, cb.Execute(context.Background(), succeeding))
	tripBreaker(t, cb, 2)
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var transitions []string
	cb := New("test",
		WithFailureThreshold(3),
		WithOnStateChange(func(name string, from, to State) {
			transitions = append(transitions, from.String()+">"+to.String())
		}),
	)

	tripBreaker(t, cb, 3)

	assert.Equal(t, StateOpen, cb.State())
	assert.True(t, cb.IsOpen())
	assert.Equal(t, []string{"closed>open"}, transitions)

	err := cb.Execute(context.Background(), succeeding)
	assert.ErrorIs(t, err, ErrCircuitOpen)

	counts := cb.Counts()
	assert.Equal(t, 3, counts.TotalFailures)
	assert.Equal(t, 3, counts.Requests)
}

func TestBreakerHalfOpenProbeClosesOnSuccess(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(2),
		WithSuccessThreshold(1),
		WithTimeout(20*time.Millisecond),
	)

	tripBreaker(t, cb, 2)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	require.NoError(t, cb.Execute(context.Background(), succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerHalfOpenProbeReopensOnFailure(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(2),
		WithTimeout(20*time.Millisecond),
	)

	tripBreaker(t, cb, 2)
	time.Sleep(30 * time.Millisecond)

	err := cb.Execute(context.Background(), failing)
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreakerLimitsHalfOpenProbes(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithTimeout(10*time.Millisecond),
		WithMaxHalfOpenRequests(1),
	)

	tripBreaker(t, cb, 1)
	time.Sleep(20 * time.Millisecond)

	blocked := make(chan error, 1)
	release := make(chan struct{})
	go func() {
		blocked <- cb.Execute(context.Background(), func(ctx context.Context) error {
			<-release
			return nil
		})
	}()

	// Wait until the probe is in flight, then the budget is spent.
	require.Eventually(t, func() bool {
		return cb.State() == StateHalfOpen
	}, time.Second, time.Millisecond)

	err := cb.Execute(context.Background(), succeeding)
	assert.ErrorIs(t, err, ErrTooManyRequests)

	close(release)
	require.NoError(t, <-blocked)
}

func TestExecuteWithFallback(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	tripBreaker(t, cb, 1)

	var fallbackErr error
	err := cb.ExecuteWithFallback(context.Background(), succeeding, func(cause error) error {
		fallbackErr = cause
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, fallbackErr, ErrCircuitOpen)

	// Backend errors pass through without invoking the fallback.
	cb.Reset()
	err = cb.ExecuteWithFallback(context.Background(), failing, func(cause error) error {
		t.Fatal("fallback should not run on a backend error")
		return nil
	})
	assert.ErrorIs(t, err, errBackend)
}

func TestBreakerIsFailureFilter(t *testing.T) {
	ignorable := errors.New("not found")
	cb := New("test",
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool { return !errors.Is(err, ignorable) }),
	)

	err := cb.Execute(context.Background(), func(ctx context.Context) error { return ignorable })
	require.ErrorIs(t, err, ignorable)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 1, cb.Counts().TotalSuccesses)

	require.Error(t, cb.Execute(context.Background(), failing))
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreakerReset(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	tripBreaker(t, cb, 1)
	require.True(t, cb.IsOpen())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Counts().Requests)
	require.NoError(t, cb.Execute(context.Background(), succeeding))
}

func TestCacheBreakerPreset(t *testing.T) {
	cb := CacheBreaker(nil)
	assert.Equal(t, "snapshot-cache", cb.Name())

	tripBreaker(t, cb, 3)
	assert.True(t, cb.IsOpen())
}
