// Package watchdog provides a process-end guardian: a registry of stoppable
// things ("guardlings") that are all asked to stop, in order, exactly once,
// when the process is asked to end.
//
// The watchdog holds only weak references. Registering a guardling never
// extends its lifetime: if nothing else keeps it alive, it is collected and
// the watchdog silently skips it at fire time.
//
// Firing is best effort and idempotent. Each guardling's StopDetached is
// called at most once per watchdog lifetime; a failure or panic in one
// guardling is logged and the sweep continues with the rest.
//
// A watchdog arms itself on process signals (SIGINT/SIGTERM on unix) by
// default. It can also be fired explicitly, which suits a defer in main:
//
//	w := watchdog.New()
//	defer w.Fire()
//
//	h := loop.New(routine, loop.WithThreaded(true), loop.WithWatchdog(w))
//	_ = h.Start()
package watchdog
