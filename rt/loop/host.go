package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evan-idocoding/loopkit/rt/spawn"
	"github.com/evan-idocoding/loopkit/rt/watchdog"
)

// termSignal is the oneshot termination flag for a single activation.
type termSignal struct {
	once sync.Once
	ch   chan struct{}
}

func newTermSignal() *termSignal {
	return &termSignal{ch: make(chan struct{})}
}

func (t *termSignal) set() {
	t.once.Do(func() { close(t.ch) })
}

func (t *termSignal) isSet() bool {
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}

// Host runs one routine per activation and owns the activation's lifecycle
// signals: startup-complete, the term flag, and shutdown-complete.
//
// All methods are safe for concurrent use.
type Host struct {
	cfg config
	id  string
	log *slog.Logger

	routine Routine

	mu         sync.Mutex
	active     bool
	finalized  bool
	startedUp  bool
	activation uint64
	term       *termSignal
	startupCh  chan struct{}
	shutdownCh chan struct{}
	lastErr    error
}

var _ Runner = (*Host)(nil)

// New creates a Host for routine. It panics if routine is nil: a host without
// a routine is a programming error, not a runtime condition.
func New(routine Routine, opts ...Option) *Host {
	if routine == nil {
		panic("loop: New called with nil Routine")
	}
	c := buildConfig(opts)

	h := &Host{
		cfg:        c,
		id:         uuid.NewString(),
		routine:    routine,
		startupCh:  make(chan struct{}),
		shutdownCh: make(chan struct{}),
	}

	log := c.logger
	if log == nil {
		log = slog.Default()
	}
	if c.name != "" {
		log = log.With("name", c.name)
	}
	h.log = log.With("host_id", h.id)

	if c.guard != nil {
		watchdog.Prepend(c.guard, h)
	}
	return h
}

// ID returns the host's unique id.
func (h *Host) ID() string { return h.id }

// Name returns the configured name, possibly empty.
func (h *Host) Name() string { return h.cfg.name }

// Running reports whether an activation is in progress.
func (h *Host) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Err returns the result of the most recently completed activation.
func (h *Host) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// Done returns a channel closed when the current activation's shutdown is
// complete. The channel is replaced on every Start; grab it after Start
// returns to observe that activation.
func (h *Host) Done() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shutdownCh
}

// Start begins an activation, passing args to the routine.
//
// On a threaded host, Start returns once startup is complete (or after the
// advisory start timeout) and the routine keeps running on its own goroutine.
// On a non-threaded host, Start runs the whole activation on the calling
// goroutine and returns its result, nil if it was stopped.
//
// Errors: ErrFinalized after Finalize, ErrAlreadyStarted during an activation.
func (h *Host) Start(args ...any) error {
	h.mu.Lock()
	if h.finalized {
		h.mu.Unlock()
		return ErrFinalized
	}
	if h.active {
		h.mu.Unlock()
		return ErrAlreadyStarted
	}
	h.active = true
	h.activation++
	h.startedUp = false
	h.lastErr = nil
	h.startupCh = make(chan struct{})
	h.shutdownCh = make(chan struct{})
	startupCh := h.startupCh
	activation := h.activation
	h.mu.Unlock()

	h.log.Debug("starting activation", "activation", activation, "threaded", h.cfg.threaded)

	if !h.cfg.threaded {
		return h.run(context.Background(), args...)
	}

	// The activation result is recorded and logged by run's finalization, so
	// the thread itself reports nothing.
	th := spawn.NewThread(
		spawn.WithName(h.cfg.name),
		spawn.WithTag("host_id", h.id),
		spawn.WithErrorHandler(func(context.Context, spawn.ErrorInfo) {}),
		spawn.WithPanicHandler(func(context.Context, spawn.PanicInfo) {}),
	)
	th.SetTarget(h.run, args...)
	if err := th.Start(context.Background()); err != nil {
		h.mu.Lock()
		h.active = false
		h.mu.Unlock()
		return err
	}

	if h.cfg.startTimeout <= 0 {
		<-startupCh
		return nil
	}
	select {
	case <-startupCh:
	case <-time.After(h.cfg.startTimeout):
		// Advisory only: the activation keeps going, the caller just stops
		// waiting for it.
		h.log.Warn("startup wait timed out", "activation", activation, "timeout", h.cfg.startTimeout)
	}
	return nil
}

// run is one whole activation. Its outermost finalization records the result,
// retires the host unless it is reusable, and signals shutdown-complete
// exactly once. Nothing can cancel that path.
func (h *Host) run(ctx context.Context, args ...any) (err error) {
	defer func() {
		h.mu.Lock()
		h.lastErr = err
		h.active = false
		h.startedUp = false
		if !h.cfg.reusable {
			h.finalized = true
		}
		shutdownCh := h.shutdownCh
		activation := h.activation
		h.mu.Unlock()

		if err != nil {
			h.log.Error("activation failed", "activation", activation, "err", err)
		} else {
			h.log.Debug("activation complete", "activation", activation)
		}
		close(shutdownCh)
	}()

	err = h.execute(ctx, args)
	return err
}

// execute installs a fresh term flag, runs the routine, and resolves the race
// between the routine finishing and the term flag firing.
func (h *Host) execute(ctx context.Context, args []any) error {
	term := newTermSignal()
	h.mu.Lock()
	h.term = term
	h.mu.Unlock()
	defer func() {
		// Retire the term flag; the next activation gets a fresh one.
		h.mu.Lock()
		h.term = nil
		h.mu.Unlock()
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- spawn.Catch(runCtx, func(ctx context.Context) error {
			return h.routine(ctx, args...)
		})
	}()

	// Startup is observable only once the routine has been scheduled, so a
	// stop request that follows startup-complete always finds a term flag.
	h.signalStartup()

	if h.cfg.termAware {
		// The routine watches the term flag itself and owns its cleanup; wait
		// for it rather than cutting it short.
		if err := <-done; err != nil && !isCancel(err) {
			return err
		}
		return nil
	}

	select {
	case err := <-done:
		if isCancel(err) {
			return nil
		}
		return err
	case <-term.ch:
	}

	// The term flag fired, but the routine may have finished in the same
	// instant. Drain it first so a simultaneous completion is never dropped.
	select {
	case err := <-done:
		if isCancel(err) {
			return nil
		}
		return err
	default:
	}

	// Cancel exactly the routine and give it a bounded grace to settle.
	cancel()
	select {
	case err := <-done:
		if err != nil && !isCancel(err) {
			h.log.Error("routine failed during stop", "err", err)
		}
	case <-time.After(h.cfg.grace):
		h.log.Warn("routine did not settle within grace period", "grace", h.cfg.grace)
	}
	return nil
}

func (h *Host) signalStartup() {
	h.mu.Lock()
	if !h.startedUp {
		h.startedUp = true
		close(h.startupCh)
	}
	h.mu.Unlock()
}

// termChan returns the current activation's term flag channel, or nil (which
// blocks forever in a select) when no activation is running.
func (h *Host) termChan() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.term == nil {
		return nil
	}
	return h.term.ch
}

// interrupted reports whether the current activation's term flag is set.
func (h *Host) interrupted() bool {
	h.mu.Lock()
	term := h.term
	h.mu.Unlock()
	return term != nil && term.isSet()
}

// Stop requests termination from inside the running routine. It sets the term
// flag and returns immediately; the routine winds down after the current unit
// of work.
//
// Errors: ErrStopBeforeStartup when no startup has completed.
func (h *Host) Stop() error {
	h.mu.Lock()
	term := h.term
	startedUp := h.startedUp
	h.mu.Unlock()

	if !startedUp || term == nil {
		return ErrStopBeforeStartup
	}
	term.set()
	return nil
}

// StopDetached requests termination from any goroutine without waiting for it
// to take effect. Once the host is finalized it is a no-op, so process-end
// sweeps can fire it blindly.
//
// Errors: ErrStopBeforeStartup when an activation exists but its startup has
// not completed yet.
func (h *Host) StopDetached() error {
	h.mu.Lock()
	if h.finalized {
		h.mu.Unlock()
		return nil
	}
	term := h.term
	startedUp := h.startedUp
	h.mu.Unlock()

	if !startedUp {
		return ErrStopBeforeStartup
	}
	if term != nil {
		term.set()
	}
	return nil
}

// Shutdown requests termination and waits for shutdown-complete or ctx.
//
// Returning ctx.Err() does not mean the stop was abandoned: the activation
// still winds down, the caller just stopped waiting for it.
func (h *Host) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	h.mu.Lock()
	if h.finalized {
		h.mu.Unlock()
		return nil
	}
	if !h.startedUp {
		h.mu.Unlock()
		return ErrStopBeforeStartup
	}
	term := h.term
	shutdownCh := h.shutdownCh
	h.mu.Unlock()

	if term != nil {
		term.set()
	}
	select {
	case <-shutdownCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finalize retires the host: no further activations are possible. It is
// idempotent. Non-reusable hosts are finalized automatically when their
// activation ends.
//
// Errors: ErrActive while an activation is in progress.
func (h *Host) Finalize() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active {
		return ErrActive
	}
	h.finalized = true
	return nil
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
