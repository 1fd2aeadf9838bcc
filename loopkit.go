// Package loopkit re-exports the loop and watchdog types and constructors from
// the rt subpackages so callers can assemble a supervised application without
// importing them individually.
package loopkit

import (
	"github.com/evan-idocoding/loopkit/rt/loop"
	"github.com/evan-idocoding/loopkit/rt/watchdog"
)

// Routine is the function a Host runs for one activation.
type Routine = loop.Routine

// TaskLoop is the init/run/stop contract driven by Looper and Supervisor.
type TaskLoop = loop.TaskLoop

// Host runs one routine per activation with race-free lifecycle signaling.
type Host = loop.Host

// Looper drives a single TaskLoop.
type Looper = loop.Looper

// Supervisor runs many task loops under one shared activation.
type Supervisor = loop.Supervisor

// State is the lifecycle state of a Looper.
type State = loop.State

// Option configures a Host, Looper or Supervisor.
type Option = loop.Option

// Watchdog is the process-end guardian for running hosts.
type Watchdog = watchdog.Watchdog

// Guardling is the stop contract the watchdog requires of its charges.
type Guardling = watchdog.Guardling

// Lifecycle states of a Looper.
const (
	StateCreated      = loop.StateCreated
	StateInitializing = loop.StateInitializing
	StateIterating    = loop.StateIterating
	StateStopping     = loop.StateStopping
	StateStopped      = loop.StateStopped
	StateFailed       = loop.StateFailed
)

// NewHost creates a Host for routine.
func NewHost(routine Routine, opts ...Option) *Host { return loop.New(routine, opts...) }

// NewLooper creates a Looper for task.
func NewLooper(task TaskLoop, opts ...Option) *Looper { return loop.NewLooper(task, opts...) }

// NewSupervisor creates an empty Supervisor; register loops before Start.
func NewSupervisor(opts ...Option) *Supervisor { return loop.NewSupervisor(opts...) }

// NewWatchdog creates a Watchdog armed on process signals.
func NewWatchdog(opts ...watchdog.Option) *Watchdog { return watchdog.New(opts...) }

// WithName sets a human-friendly name used in log records.
func WithName(name string) Option { return loop.WithName(name) }

// WithThreaded controls whether the activation runs on its own goroutine.
func WithThreaded(threaded bool) Option { return loop.WithThreaded(threaded) }

// WithReusable allows multiple sequential activations.
func WithReusable(reusable bool) Option { return loop.WithReusable(reusable) }

// WithWatchdog registers the host with w at the front of the stop order.
func WithWatchdog(w *Watchdog) Option { return loop.WithWatchdog(w) }
