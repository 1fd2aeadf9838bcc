package loop

import "context"

// Routine is the function a Host runs for one activation. The args are the
// ones passed to Start, verbatim. The ctx is canceled when the host gives up
// waiting for the routine after a stop request.
type Routine func(ctx context.Context, args ...any) error

// TaskLoop is the contract for an iterative task: one LoopInit, repeated
// LoopRun steps, one LoopStop.
//
// LoopInit receives the Start args. If it fails, the loop fails immediately
// and LoopStop is NOT called: cleanup is owned by whoever completed
// initialization, and init did not.
//
// LoopRun is one iteration. Returning nil schedules the next iteration;
// returning an error ends the loop (a context cancellation counts as a normal
// stop cause, anything else as a failure). Steps should be short; a stop
// request interrupts between steps, and an in-flight step is canceled via its
// ctx with a bounded grace.
//
// LoopStop runs exactly once after the last step, under a non-cancellable
// context, whether the loop stopped normally or failed mid-run.
type TaskLoop interface {
	LoopInit(ctx context.Context, args ...any) error
	LoopRun(ctx context.Context) error
	LoopStop(ctx context.Context) error
}

// Runner is the lifecycle surface shared by Host, Looper and Supervisor.
type Runner interface {
	Stop() error
	StopDetached() error
	Shutdown(ctx context.Context) error
	Finalize() error
	Err() error
	Done() <-chan struct{}
}

// State is the lifecycle state of a Looper.
type State int32

const (
	StateCreated State = iota
	StateInitializing
	StateIterating
	StateStopping
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateIterating:
		return "iterating"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
