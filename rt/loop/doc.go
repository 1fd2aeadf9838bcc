// Package loop provides cooperative loop lifecycle primitives: a single-routine
// Host, an iterative Looper, and a Supervisor that runs many task loops under
// one shared activation.
//
// # Design highlights
//
//   - Host: runs one routine per activation, with race-free start/stop signaling
//     from any goroutine and an exactly-once shutdown-complete guarantee.
//   - Looper: the "Arduino of loops": one LoopInit, repeated LoopRun steps, one
//     LoopStop, with an explicit Created→Initializing→Iterating→Stopping→Stopped
//     state machine (Failed on unhandled failure).
//   - Supervisor: an ordered registry of task loops started together on one Host
//     activation and stopped by a single shared signal.
//
// # Lifecycle
//
// A Host activation is one complete start-to-shutdown-complete cycle:
//
//	h := loop.New(routine, loop.WithThreaded(true))
//	_ = h.Start()
//	...
//	_ = h.Shutdown(context.Background())
//
// Start on a threaded host returns once startup is complete (or after the
// advisory start timeout). Start on a non-threaded host runs the whole
// activation on the calling goroutine and returns its result.
//
// Stop ordering is enforced: any stop request before startup-complete fails
// with ErrStopBeforeStartup. Shutdown-complete is signaled exactly once per
// activation, in a non-cancellable finalization path, no matter how the
// activation ended, so a goroutine blocked in Shutdown is never left hanging.
//
// By default a host is single-shot: when the activation ends, the host is
// finalized and cannot be started again. Use WithReusable(true) to run several
// activations, and call Finalize explicitly when done.
//
// # Task loops
//
// A task loop implements TaskLoop:
//
//	type poller struct{ ... }
//
//	func (p *poller) LoopInit(ctx context.Context, args ...any) error { ... }
//	func (p *poller) LoopRun(ctx context.Context) error               { ... }
//	func (p *poller) LoopStop(ctx context.Context) error              { ... }
//
// LoopRun repeats until the loop is stopped, either from inside (call Stop from
// within a run step) or from any other goroutine (StopDetached/Shutdown). Each
// iteration races the run step against the stop signal and checks both
// outcomes, so a step that finishes in the same instant the stop lands is
// neither dropped nor double-cancelled. LoopStop runs under a non-cancellable
// context: a concurrent stop request cannot truncate cleanup.
//
// A run step error that is a context cancellation counts as a normal stop
// cause; any other error fails the loop (state Failed) and becomes the
// activation result. Sibling loops under a Supervisor are not stopped by one
// loop's failure; the first failure is surfaced once all cycles have ended.
//
// # Stop semantics
//
//   - Stop: only from inside the running routine; sets the term flag directly.
//   - StopDetached: from any goroutine, non-blocking; no-op once finalized.
//   - Shutdown: StopDetached + wait for shutdown-complete (or ctx).
//
// Shutdown may return ctx.Err() before shutdown actually completed; the caller
// re-checks via Done or a later Shutdown call.
package loop
