package watchdog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"weak"
)

// ErrUnknownGuardling is returned by Remove for a guardling that is not
// registered (or has already been collected).
var ErrUnknownGuardling = errors.New("watchdog: unknown guardling")

// Guardling is the contract required for registration: a non-blocking,
// goroutine-safe stop request that tolerates being called after the guardling
// already stopped.
type Guardling interface {
	StopDetached() error
}

type entry struct {
	// resolve returns the registered guardling, or nil once it has been
	// garbage collected.
	resolve func() Guardling
	label   string
}

// Watchdog is a registry of weakly-held guardlings, all stopped in order when
// the watchdog fires. See the package documentation for the full contract.
type Watchdog struct {
	log     *slog.Logger
	sigs    []os.Signal
	closeCh chan struct{}
	doneCh  chan struct{}

	closeOnce sync.Once

	mu    sync.Mutex
	order []entry
	fired bool
}

type config struct {
	logger  *slog.Logger
	signals []os.Signal
	noArm   bool
}

// Option configures a Watchdog.
type Option func(*config)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithSignals replaces the default trigger signals (SIGINT and SIGTERM on
// unix, os.Interrupt elsewhere).
func WithSignals(sigs ...os.Signal) Option {
	return func(c *config) { c.signals = sigs }
}

// WithoutSignals disables signal arming entirely; the watchdog then fires only
// via an explicit Fire call.
func WithoutSignals() Option {
	return func(c *config) { c.noArm = true }
}

// New creates a Watchdog and arms it on its trigger signals.
func New(opts ...Option) *Watchdog {
	c := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	log := c.logger
	if log == nil {
		log = slog.Default()
	}

	w := &Watchdog{
		log:     log,
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	if !c.noArm {
		w.sigs = c.signals
		if len(w.sigs) == 0 {
			w.sigs = defaultSignals()
		}
		go w.watch()
	}
	return w
}

func (w *Watchdog) watch() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, w.sigs...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		w.log.Info("watchdog triggered by signal", "signal", sig.String())
		w.Fire()
	case <-w.closeCh:
	}
}

// Append registers g at the back of the stop order. Only a weak reference is
// kept; registration never extends g's lifetime.
func Append[T any, P interface {
	Guardling
	*T
}](w *Watchdog, g P) {
	w.add(makeEntry[T, P](g), false)
}

// Prepend registers g at the front of the stop order, so the most recently
// registered guardling is stopped first.
func Prepend[T any, P interface {
	Guardling
	*T
}](w *Watchdog, g P) {
	w.add(makeEntry[T, P](g), true)
}

// Remove drops g from the stop order.
//
// Errors: ErrUnknownGuardling if g is not registered.
func Remove[T any, P interface {
	Guardling
	*T
}](w *Watchdog, g P) error {
	return w.remove(Guardling(g))
}

func makeEntry[T any, P interface {
	Guardling
	*T
}](g P) entry {
	wp := weak.Make((*T)(g))
	return entry{
		resolve: func() Guardling {
			if p := wp.Value(); p != nil {
				return P(p)
			}
			return nil
		},
		label: fmt.Sprintf("%T", g),
	}
}

func (w *Watchdog) add(e entry, front bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if front {
		w.order = append([]entry{e}, w.order...)
		return
	}
	w.order = append(w.order, e)
}

func (w *Watchdog) remove(g Guardling) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, e := range w.order {
		if r := e.resolve(); r != nil && r == g {
			w.order = append(w.order[:i], w.order[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %T", ErrUnknownGuardling, g)
}

// Fire stops every registered guardling, in order, then returns. It is
// idempotent: only the first call performs the sweep, later calls (and a
// concurrent signal trigger) are no-ops.
func (w *Watchdog) Fire() {
	w.mu.Lock()
	if w.fired {
		w.mu.Unlock()
		return
	}
	w.fired = true
	order := make([]entry, len(w.order))
	copy(order, w.order)
	w.mu.Unlock()

	for _, e := range order {
		g := e.resolve()
		if g == nil {
			w.log.Debug("guardling already collected", "guardling", e.label)
			continue
		}
		if err := stopGuardling(g); err != nil {
			// One misbehaving guardling must not block the rest of the sweep.
			w.log.Error("guardling stop failed", "guardling", e.label, "err", err)
		}
	}
	close(w.doneCh)
}

// Fired reports whether the watchdog has fired.
func (w *Watchdog) Fired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fired
}

// Done returns a channel closed once the stop sweep has completed.
func (w *Watchdog) Done() <-chan struct{} {
	return w.doneCh
}

// Close disarms the signal watcher without firing. Registered guardlings are
// left running. Close is idempotent and safe to combine with Fire.
func (w *Watchdog) Close() {
	w.closeOnce.Do(func() { close(w.closeCh) })
}

func stopGuardling(g Guardling) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("watchdog: guardling panicked: %v", p)
		}
	}()
	return g.StopDetached()
}
