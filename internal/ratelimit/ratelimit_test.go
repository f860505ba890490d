package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLimiterBudget(t *testing.T) {
	l := New(0, 1, 2, time.Hour, discard())
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))

	err := l.Acquire(ctx)
	require.True(t, errors.Is(err, ErrBudgetExceeded))
	require.Equal(t, 2, l.GetStats()["used"])
}

func TestLimiterBudgetResets(t *testing.T) {
	l := New(0, 1, 1, time.Hour, discard())
	now := time.Now()
	l.now = func() time.Time { return now }
	l.resetTime = now.Add(time.Hour)

	require.NoError(t, l.Acquire(context.Background()))
	require.Error(t, l.Acquire(context.Background()))

	now = now.Add(2 * time.Hour)
	require.NoError(t, l.Acquire(context.Background()))
}

func TestLimiterUnlimited(t *testing.T) {
	l := New(0, 0, 0, 0, nil)
	for n := 0; n < 100; n++ {
		require.NoError(t, l.Acquire(context.Background()))
	}
}

func TestLimiterWaitHonoursContext(t *testing.T) {
	l := New(0.001, 1, 0, time.Hour, discard())
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, l.Acquire(ctx))
}
