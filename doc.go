// Package loopkit provides cooperative lifecycle supervision for long-running
// loops: start them, let them iterate, and stop them from anywhere with
// race-free, exactly-once shutdown signaling.
//
// The main entry points are:
//   - NewLooper: run one task loop (LoopInit once, LoopRun repeatedly,
//     LoopStop exactly once) with an explicit lifecycle state machine.
//   - NewSupervisor: run many task loops under one shared activation, stopped
//     together by a single request.
//   - NewWatchdog: a process-end guardian holding weak references to running
//     hosts and stopping them all, best effort, when the process is asked to
//     end.
//
// You can start using loopkit by implementing TaskLoop on your worker type and
// handing it to NewLooper. When you need more control, the building blocks
// live in subpackages:
//
//   - rt/loop: Host (single-routine activations), Looper, Supervisor.
//   - rt/watchdog: the weak-reference guardian.
//   - rt/spawn: contained goroutines and single-use worker threads with
//     panic recovery and pluggable failure reporting.
//
// # Quick start
//
//	type poller struct{ src *feed.Client }
//
//	func (p *poller) LoopInit(ctx context.Context, args ...any) error { ... }
//	func (p *poller) LoopRun(ctx context.Context) error               { ... }
//	func (p *poller) LoopStop(ctx context.Context) error              { ... }
//
//	func main() {
//		w := loopkit.NewWatchdog()
//		defer w.Fire()
//
//		l := loopkit.NewLooper(&poller{src: client},
//			loopkit.WithThreaded(true),
//			loopkit.WithWatchdog(w),
//		)
//		if err := l.Start(); err != nil {
//			log.Fatal(err)
//		}
//
//		<-l.Done()
//	}
//
// Start returns once the loop's startup is complete. A stop can come from
// inside a run step (Stop), from any goroutine (StopDetached, Shutdown), or
// from the watchdog at process end; all of them funnel into one term flag, and
// shutdown-complete fires exactly once after cleanup has run.
package loopkit
