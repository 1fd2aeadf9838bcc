package loop

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/evan-idocoding/loopkit/rt/spawn"
)

// Looper drives a single TaskLoop: LoopInit once, LoopRun until stopped,
// LoopStop exactly once after the last step.
type Looper struct {
	host  *Host
	task  TaskLoop
	state atomic.Int32
}

var _ Runner = (*Looper)(nil)

// NewLooper creates a Looper for task. It panics if task is nil.
func NewLooper(task TaskLoop, opts ...Option) *Looper {
	if task == nil {
		panic("loop: NewLooper called with nil TaskLoop")
	}
	l := &Looper{task: task}
	l.host = New(l.execute, append(opts, withTermAware())...)
	return l
}

// State returns the loop's lifecycle state.
func (l *Looper) State() State {
	return State(l.state.Load())
}

func (l *Looper) setState(s State) {
	l.state.Store(int32(s))
	if l.host.cfg.debug {
		l.host.log.Debug("state change", "state", s)
	}
}

// ID returns the underlying host's unique id.
func (l *Looper) ID() string { return l.host.ID() }

// Name returns the configured name, possibly empty.
func (l *Looper) Name() string { return l.host.Name() }

// Start begins an activation; args are handed to LoopInit.
// See Host.Start for threaded vs non-threaded behavior.
func (l *Looper) Start(args ...any) error { return l.host.Start(args...) }

// Stop requests termination from inside a run step.
func (l *Looper) Stop() error { return l.host.Stop() }

// StopDetached requests termination from any goroutine without waiting.
func (l *Looper) StopDetached() error { return l.host.StopDetached() }

// Shutdown requests termination and waits for shutdown-complete or ctx.
func (l *Looper) Shutdown(ctx context.Context) error { return l.host.Shutdown(ctx) }

// Finalize retires the loop. See Host.Finalize.
func (l *Looper) Finalize() error { return l.host.Finalize() }

// Err returns the result of the most recently completed activation.
func (l *Looper) Err() error { return l.host.Err() }

// Done returns the current activation's shutdown-complete channel.
func (l *Looper) Done() <-chan struct{} { return l.host.Done() }

func (l *Looper) execute(ctx context.Context, args ...any) error {
	return runCycle(ctx, l.host, l.task, args, l.setState)
}

// runCycle is one complete init→iterate→cleanup cycle of a task loop on h.
// The Supervisor runs one cycle per registered loop on a shared host, so it
// passes a nil setState.
func runCycle(ctx context.Context, h *Host, task TaskLoop, args []any, setState func(State)) error {
	if setState == nil {
		setState = func(State) {}
	}

	setState(StateInitializing)
	if err := spawn.Catch(ctx, func(ctx context.Context) error {
		return task.LoopInit(ctx, args...)
	}); err != nil {
		// Init never completed, so there is nothing for LoopStop to undo.
		setState(StateFailed)
		return fmt.Errorf("loop init: %w", err)
	}

	setState(StateIterating)
	var runErr error
	for !h.interrupted() {
		err := stepCycle(ctx, h, task)
		if err == nil {
			continue
		}
		if isCancel(err) {
			break
		}
		runErr = fmt.Errorf("loop run: %w", err)
		break
	}

	setState(StateStopping)

	// Cleanup happens no matter how iteration ended, and a concurrent stop
	// request must not be able to truncate it.
	stopCtx := context.WithoutCancel(ctx)
	stopErr := spawn.Catch(stopCtx, task.LoopStop)
	if stopErr != nil {
		stopErr = fmt.Errorf("loop stop: %w", stopErr)
	}

	if runErr != nil || stopErr != nil {
		setState(StateFailed)
		return errors.Join(runErr, stopErr)
	}
	setState(StateStopped)
	return nil
}

// stepCycle runs one LoopRun iteration, racing it against the term flag. Both
// outcomes are checked: a step that finishes in the same instant the stop
// lands is returned normally, never cancelled and dropped.
func stepCycle(ctx context.Context, h *Host, task TaskLoop) error {
	stepCtx, cancelStep := context.WithCancel(ctx)
	defer cancelStep()

	done := make(chan error, 1)
	go func() {
		done <- spawn.Catch(stepCtx, task.LoopRun)
	}()

	select {
	case err := <-done:
		return err
	case <-h.termChan():
	}

	select {
	case err := <-done:
		return err
	default:
	}

	// Interrupted with the step still in flight: cancel exactly the step and
	// give it a bounded grace to settle before cleanup starts.
	cancelStep()
	select {
	case err := <-done:
		if err != nil && !isCancel(err) {
			h.log.Warn("run step failed during stop", "err", err)
		}
	case <-time.After(h.cfg.grace):
		h.log.Warn("run step did not settle within grace period", "grace", h.cfg.grace)
	}
	return nil
}
