package loop

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Supervisor runs many task loops under one shared activation: all registered
// loops start together, share the host's term flag, and one stop request winds
// all of them down. Registration order is preserved; loops start in that order.
type Supervisor struct {
	host *Host

	mu      sync.Mutex
	started bool
	entries []supervised
}

type supervised struct {
	name string
	task TaskLoop
	args []any
}

var _ Runner = (*Supervisor)(nil)

// NewSupervisor creates an empty Supervisor. Register loops before Start.
func NewSupervisor(opts ...Option) *Supervisor {
	s := &Supervisor{}
	s.host = New(s.execute, append(opts, withTermAware())...)
	return s
}

// Register adds task to the back of the start order; args are handed to its
// LoopInit. It panics if task is nil.
//
// Errors: ErrRegisterAfterStart once the supervisor has started. The registry
// is fixed at start time; there is no dynamic membership.
func (s *Supervisor) Register(task TaskLoop, args ...any) error {
	return s.RegisterNamed("", task, args...)
}

// RegisterNamed is Register with a name used in log records.
func (s *Supervisor) RegisterNamed(name string, task TaskLoop, args ...any) error {
	if task == nil {
		panic("loop: Register called with nil TaskLoop")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrRegisterAfterStart
	}
	s.entries = append(s.entries, supervised{name: name, task: task, args: args})
	return nil
}

// Len returns the number of registered loops.
func (s *Supervisor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start begins the shared activation. Per-loop args were bound at
// registration, so Start takes none.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	if err := s.host.Start(); err != nil {
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		return err
	}
	return nil
}

// ID returns the underlying host's unique id.
func (s *Supervisor) ID() string { return s.host.ID() }

// Name returns the configured name, possibly empty.
func (s *Supervisor) Name() string { return s.host.Name() }

// Stop requests termination from inside one of the supervised loops.
func (s *Supervisor) Stop() error { return s.host.Stop() }

// StopDetached requests termination of all supervised loops from any
// goroutine, without waiting.
func (s *Supervisor) StopDetached() error { return s.host.StopDetached() }

// Shutdown requests termination and waits until every supervised loop has
// finished its cleanup, or until ctx is done.
func (s *Supervisor) Shutdown(ctx context.Context) error { return s.host.Shutdown(ctx) }

// Finalize retires the supervisor. See Host.Finalize.
func (s *Supervisor) Finalize() error { return s.host.Finalize() }

// Err returns the result of the most recently completed activation: the first
// loop failure, or nil when every loop stopped cleanly.
func (s *Supervisor) Err() error { return s.host.Err() }

// Done returns the current activation's shutdown-complete channel. It is
// closed only after every supervised loop has run its cleanup.
func (s *Supervisor) Done() <-chan struct{} { return s.host.Done() }

func (s *Supervisor) execute(ctx context.Context, _ ...any) error {
	s.mu.Lock()
	entries := make([]supervised, len(s.entries))
	copy(entries, s.entries)
	s.mu.Unlock()

	// One failing loop does not stop its siblings: each cycle runs to its own
	// cleanup, and the first failure becomes the activation result once all
	// cycles have ended.
	var eg errgroup.Group
	for i, e := range entries {
		eg.Go(func() error {
			err := runCycle(ctx, s.host, e.task, e.args, nil)
			if err != nil {
				s.host.log.Error("supervised loop failed",
					"task", taskLabel(e, i), "err", err)
			}
			return err
		})
	}
	return eg.Wait()
}

func taskLabel(e supervised, i int) string {
	if e.name != "" {
		return e.name
	}
	return fmt.Sprintf("#%d", i)
}
