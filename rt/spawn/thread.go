package spawn

import (
	"context"
	"sync"
)

// Target is the function a Thread runs. The args are the ones bound by
// SetTarget, passed through verbatim.
type Target func(ctx context.Context, args ...any) error

// Thread is a single-use worker goroutine whose target and arguments are bound
// after construction.
//
// The zero value is not usable; use NewThread. A Thread runs its target at most
// once: Start returns ErrThreadStarted on reuse.
type Thread struct {
	cfg config

	mu      sync.Mutex
	target  Target
	args    []any
	started bool

	done chan struct{}
	err  error
}

// NewThread creates a Thread. The target is bound later via SetTarget.
func NewThread(opts ...Option) *Thread {
	return &Thread{
		cfg:  buildConfig(opts),
		done: make(chan struct{}),
	}
}

// SetTarget binds the target function and its arguments. It may be called
// again before Start to rebind; calling it after Start has no effect on the
// running goroutine.
func (t *Thread) SetTarget(fn Target, args ...any) {
	t.mu.Lock()
	t.target = fn
	t.args = args
	t.mu.Unlock()
}

// Start launches the target on a new goroutine with exactly the bound
// arguments. The target's error (or recovered panic, as *PanicError) is
// retained for Err and also reported via the configured handlers.
//
// Errors: ErrNoTarget if SetTarget was never called; ErrThreadStarted if the
// thread already ran.
func (t *Thread) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return ErrThreadStarted
	}
	if t.target == nil {
		t.mu.Unlock()
		return ErrNoTarget
	}
	t.started = true
	fn := t.target
	args := t.args
	t.mu.Unlock()

	go func() {
		defer close(t.done)
		err := Catch(ctx, func(ctx context.Context) error {
			return fn(ctx, args...)
		})
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
		report(ctx, t.cfg, err)
	}()
	return nil
}

// Join blocks until the thread exits or ctx is done. On thread exit it returns
// the target's error (possibly a *PanicError); otherwise it returns ctx.Err().
func (t *Thread) Join(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed when the thread has exited.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Err returns the target's result. It is only meaningful after Done is closed.
func (t *Thread) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
