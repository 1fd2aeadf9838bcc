package loopkit_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evan-idocoding/loopkit"
	"github.com/evan-idocoding/loopkit/rt/watchdog"
)

type tick struct {
	steps   atomic.Int64
	cleaned atomic.Int64
}

func (l *tick) LoopInit(context.Context, ...any) error { return nil }

func (l *tick) LoopRun(ctx context.Context) error {
	l.steps.Add(1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Millisecond):
		return nil
	}
}

func (l *tick) LoopStop(context.Context) error {
	l.cleaned.Add(1)
	return nil
}

func TestWatchdogFireStopsRunningLooper(t *testing.T) {
	t.Parallel()

	w := loopkit.NewWatchdog(watchdog.WithoutSignals())

	task := &tick{}
	lp := loopkit.NewLooper(task,
		loopkit.WithName("ticker"),
		loopkit.WithThreaded(true),
		loopkit.WithWatchdog(w),
	)
	require.NoError(t, lp.Start())
	done := lp.Done()

	w.Fire()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("looper did not stop after watchdog fired")
	}
	require.Equal(t, int64(1), task.cleaned.Load())
	require.Equal(t, loopkit.StateStopped, lp.State())
}

func TestSupervisorUnderWatchdog(t *testing.T) {
	t.Parallel()

	w := loopkit.NewWatchdog(watchdog.WithoutSignals())

	a := &tick{}
	b := &tick{}
	sup := loopkit.NewSupervisor(
		loopkit.WithName("pair"),
		loopkit.WithThreaded(true),
		loopkit.WithWatchdog(w),
	)
	require.NoError(t, sup.Register(a))
	require.NoError(t, sup.Register(b))
	require.NoError(t, sup.Start())
	done := sup.Done()

	w.Fire()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("supervisor did not stop after watchdog fired")
	}
	require.Equal(t, int64(1), a.cleaned.Load())
	require.Equal(t, int64(1), b.cleaned.Load())
	require.NoError(t, sup.Err())
}
