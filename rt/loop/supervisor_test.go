package loop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// waitCount returns a channel closed once c reaches at least want.
func waitCount(c *atomic.Int64, want int64) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		for c.Load() < want {
			time.Sleep(time.Millisecond)
		}
		close(ch)
	}()
	return ch
}

func idleStep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return nil
	}
}

func TestSupervisor_SingleStopWindsDownAllLoops(t *testing.T) {
	t.Parallel()

	a := &testLoop{onRun: idleStep}
	b := &testLoop{onRun: idleStep}

	sup := NewSupervisor(WithThreaded(true))
	require.NoError(t, sup.RegisterNamed("a", a))
	require.NoError(t, sup.RegisterNamed("b", b))
	require.Equal(t, 2, sup.Len())

	require.NoError(t, sup.Start())
	require.NoError(t, sup.Shutdown(context.Background()))

	// Shutdown returned, so every loop has run its cleanup.
	require.Equal(t, int64(1), a.stops.Load())
	require.Equal(t, int64(1), b.stops.Load())
	require.NoError(t, sup.Err())
}

func TestSupervisor_RegisterAfterStart(t *testing.T) {
	t.Parallel()

	a := &testLoop{onRun: idleStep}
	sup := NewSupervisor(WithThreaded(true))
	require.NoError(t, sup.Register(a))

	require.NoError(t, sup.Start())
	require.ErrorIs(t, sup.Register(&testLoop{}), ErrRegisterAfterStart)
	require.NoError(t, sup.Shutdown(context.Background()))
}

func TestSupervisor_StartTwice(t *testing.T) {
	t.Parallel()

	sup := NewSupervisor(WithThreaded(true))
	require.NoError(t, sup.Register(&testLoop{onRun: idleStep}))

	require.NoError(t, sup.Start())
	require.ErrorIs(t, sup.Start(), ErrAlreadyStarted)
	require.NoError(t, sup.Shutdown(context.Background()))
}

func TestSupervisor_SiblingSurvivesFailure(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("a exploded")
	a := &testLoop{onRun: func(context.Context) error { return wantErr }}

	bIterating := make(chan struct{}, 16)
	b := &testLoop{onRun: func(ctx context.Context) error {
		select {
		case bIterating <- struct{}{}:
		default:
		}
		return idleStep(ctx)
	}}

	sup := NewSupervisor(WithThreaded(true))
	require.NoError(t, sup.RegisterNamed("a", a))
	require.NoError(t, sup.RegisterNamed("b", b))
	require.NoError(t, sup.Start())

	// a has already failed and cleaned up; b must still be iterating.
	waitClosed(t, waitCount(&a.stops, 1))
	select {
	case <-bIterating:
	case <-time.After(2 * time.Second):
		t.Fatalf("sibling loop stopped iterating")
	}

	require.NoError(t, sup.Shutdown(context.Background()))
	require.Equal(t, int64(1), a.stops.Load())
	require.Equal(t, int64(1), b.stops.Load())
	require.ErrorIs(t, sup.Err(), wantErr)
}

func TestSupervisor_StopFromInsideOneLoop(t *testing.T) {
	t.Parallel()

	var sup *Supervisor
	a := &testLoop{}
	a.onRun = func(context.Context) error { return sup.Stop() }
	b := &testLoop{onRun: idleStep}

	sup = NewSupervisor(WithThreaded(true))
	require.NoError(t, sup.Register(a))
	require.NoError(t, sup.Register(b))
	require.NoError(t, sup.Start())

	waitClosed(t, sup.Done())
	require.Equal(t, int64(1), a.stops.Load())
	require.Equal(t, int64(1), b.stops.Load())
}

func TestSupervisor_InitArgsPerRegistration(t *testing.T) {
	t.Parallel()

	var sup *Supervisor
	a := &testLoop{}
	a.onRun = func(context.Context) error { return sup.Stop() }
	b := &testLoop{onRun: idleStep}

	sup = NewSupervisor(WithThreaded(true))
	require.NoError(t, sup.Register(a, "left", 1))
	require.NoError(t, sup.Register(b, "right", 2))
	require.NoError(t, sup.Start())
	waitClosed(t, sup.Done())

	require.Equal(t, []any{"left", 1}, a.initArgs)
	require.Equal(t, []any{"right", 2}, b.initArgs)
}

func TestSupervisor_EmptyStartStops(t *testing.T) {
	t.Parallel()

	sup := NewSupervisor(WithThreaded(true))
	require.NoError(t, sup.Start())
	waitClosed(t, sup.Done())
	require.NoError(t, sup.Err())
}
