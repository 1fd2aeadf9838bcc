// Package spawn provides helpers for starting worker goroutines with panic/error
// containment, plus a Thread type whose target and arguments are bound after
// construction.
//
// spawn is intentionally small and standard-library flavored. Background failures
// are made observable by default: errors and panics from Go/Run are reported via
// handlers (if configured) or to stderr, never silently dropped.
//
// # Thread
//
// Thread exists for callers that must separate "allocate the worker" from "decide
// what it runs". Construct it with options, bind the target and its arguments
// later with SetTarget, then Start it exactly once:
//
//	th := spawn.NewThread(spawn.WithName("poller"))
//	th.SetTarget(run, 1, 2, 3)
//	_ = th.Start(ctx)
//	_ = th.Join(context.Background())
//
// # Go and Run
//
// Go starts fn in a new goroutine. Run executes fn synchronously. In both cases
// the returned error is reported, not returned to the caller. By default,
// context.Canceled and context.DeadlineExceeded are not reported because they are
// common during shutdown; use WithReportContextCancel(true) to report them.
//
// # Catch
//
// Catch executes fn synchronously and returns its error, converting a panic into
// a *PanicError (which matches ErrPanicked via errors.Is). Use it when the caller
// wants the failure rather than a report.
//
// # Finalizers
//
// WithFinally functions always execute (on success, error, panic, and repanic),
// in LIFO order. A panicking finalizer is contained and reported.
package spawn
