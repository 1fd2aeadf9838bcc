package loop

import (
	"log/slog"
	"time"

	"github.com/evan-idocoding/loopkit/rt/watchdog"
)

const defaultGraceTimeout = 1 * time.Second

type config struct {
	name     string
	threaded bool
	reusable bool
	debug    bool

	startTimeout time.Duration
	grace        time.Duration

	logger *slog.Logger
	guard  *watchdog.Watchdog

	// termAware routines observe the term flag themselves (Looper, Supervisor);
	// the host then waits for them instead of racing an aborter against them.
	termAware bool
}

// Option configures a Host (and, through it, a Looper or Supervisor).
type Option func(*config)

func defaultConfig() config {
	return config{
		grace: defaultGraceTimeout,
	}
}

func buildConfig(opts []Option) config {
	c := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c
}

// WithName sets a human-friendly name used in log records.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithThreaded controls where the activation runs. Threaded hosts run on their
// own goroutine and Start returns after startup is complete; non-threaded
// hosts run the whole activation on the calling goroutine.
func WithThreaded(threaded bool) Option {
	return func(c *config) { c.threaded = threaded }
}

// WithReusable allows multiple sequential activations. Reusable hosts are not
// finalized automatically; call Finalize when done.
func WithReusable(reusable bool) Option {
	return func(c *config) { c.reusable = reusable }
}

// WithDebug enables chatty per-iteration debug logging.
func WithDebug(debug bool) Option {
	return func(c *config) { c.debug = debug }
}

// WithStartTimeout bounds how long a threaded Start waits for startup to
// complete. The timeout is advisory: on expiry Start returns and logs a
// warning, the activation keeps going. Zero means wait indefinitely.
func WithStartTimeout(d time.Duration) Option {
	return func(c *config) { c.startTimeout = d }
}

// WithGraceTimeout bounds how long the host waits for in-flight work to settle
// after canceling it during a stop.
func WithGraceTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.grace = d
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithWatchdog registers the host with w at the front of the stop order, so
// the most recently created host is stopped first at process end.
func WithWatchdog(w *watchdog.Watchdog) Option {
	return func(c *config) { c.guard = w }
}

func withTermAware() Option {
	return func(c *config) { c.termAware = true }
}
