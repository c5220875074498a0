package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-tax/internal/resilience"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	breaker := resilience.NewBreaker(3, 50*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, breaker.Allow(ctx))
		breaker.Report(ctx, false)
	}

	require.False(t, breaker.Allow(ctx), "breaker should open after threshold reached")
	require.Equal(t, resilience.Open, breaker.CurrentState())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	breaker := resilience.NewBreaker(3, 50*time.Millisecond)
	ctx := context.Background()

	breaker.Report(ctx, false)
	breaker.Report(ctx, false)
	breaker.Report(ctx, true)
	breaker.Report(ctx, false)
	breaker.Report(ctx, false)

	require.True(t, breaker.Allow(ctx), "interleaved success should reset the count")
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	breaker := resilience.NewBreaker(1, 30*time.Millisecond)
	ctx := context.Background()

	breaker.Report(ctx, false)
	require.False(t, breaker.Allow(ctx))

	time.Sleep(40 * time.Millisecond)
	require.True(t, breaker.Allow(ctx), "breaker should move to half-open after reset timeout")
	breaker.Report(ctx, true)
	require.Equal(t, resilience.Closed, breaker.CurrentState())
}

func TestDoShortCircuitsWithoutCallingFn(t *testing.T) {
	breaker := resilience.NewBreaker(2, time.Minute)
	ctx := context.Background()
	boom := errors.New("boom")

	calls := 0
	fail := func(context.Context) error {
		calls++
		return boom
	}

	require.ErrorIs(t, breaker.Do(ctx, fail), boom)
	require.ErrorIs(t, breaker.Do(ctx, fail), boom)
	require.Equal(t, 2, calls)

	err := breaker.Do(ctx, fail)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.Equal(t, 2, calls, "open breaker must not invoke fn")
}
