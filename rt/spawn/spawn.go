package spawn

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

// Catch executes fn synchronously and returns its error. A panic inside fn is
// recovered and returned as a *PanicError (which matches ErrPanicked).
//
// Catch does not report anything; it is the building block for callers that
// want to own the failure, e.g. a lifecycle host that records the activation
// result.
//
// If ctx is nil, it is treated as context.Background().
func Catch(ctx context.Context, fn func(context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}

// Go starts fn in a new goroutine, applying the configured panic/error handling.
//
// The error returned by fn is not returned to the caller. Instead, it is
// reported via WithErrorHandler (or stderr by default, subject to filtering
// such as context cancellation).
func Go(ctx context.Context, fn func(context.Context) error, opts ...Option) {
	go Run(ctx, fn, opts...)
}

// Run executes fn synchronously (it does not start a goroutine), applying the
// configured panic/error handling.
//
// If you want to start your own goroutine (e.g. with custom scheduling), call
// Run inside it.
//
// If ctx is nil, it is treated as context.Background().
func Run(ctx context.Context, fn func(context.Context) error, opts ...Option) {
	if ctx == nil {
		ctx = context.Background()
	}
	c := buildConfig(opts)

	// Always run finalizers (LIFO), even when we repanic.
	defer runFinalizers(ctx, c)

	err := Catch(ctx, fn)
	report(ctx, c, err)

	var pe *PanicError
	if c.panicPolicy == RepanicAfterReport && errors.As(err, &pe) {
		panic(pe.Value)
	}
}

// report dispatches err to the configured handlers, applying filtering.
func report(ctx context.Context, c config, err error) {
	if err == nil {
		return
	}

	var pe *PanicError
	if errors.As(err, &pe) {
		if c.panicPolicy == RecoverOnly {
			return
		}
		info := PanicInfo{
			Name:  c.name,
			Tags:  cloneTags(c.tags),
			Value: pe.Value,
			Stack: pe.Stack,
		}
		if c.onPanic != nil {
			callPanicHandlerNoPanic(ctx, c.onPanic, info)
			return
		}
		reportPanicToStderr(info)
		return
	}

	if !c.reportContextCancel && isContextCancel(err) {
		return
	}
	info := ErrorInfo{
		Name: c.name,
		Tags: cloneTags(c.tags),
		Err:  err,
	}
	if c.onError != nil {
		callErrorHandlerNoPanic(ctx, c.onError, info)
		return
	}
	reportErrorToStderr(info)
}

func runFinalizers(ctx context.Context, c config) {
	// LIFO, like defer.
	for i := len(c.finally) - 1; i >= 0; i-- {
		fn := c.finally[i]
		if fn == nil {
			continue
		}
		func() {
			defer func() {
				p := recover()
				if p == nil {
					return
				}

				// A finalizer panic must not take down the goroutine/process,
				// but it must be observable for debugging.
				info := PanicInfo{
					Name:  c.name,
					Tags:  cloneTags(c.tags),
					Value: fmt.Sprintf("spawn: finalizer panicked: %v", p),
					Stack: debug.Stack(),
				}

				if c.onPanic != nil {
					callPanicHandlerNoPanic(ctx, c.onPanic, info)
				} else {
					reportPanicToStderr(info)
				}
			}()
			fn()
		}()
	}
}

func cloneTags(tags []Tag) []Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]Tag, len(tags))
	copy(out, tags)
	return out
}

func isContextCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func callErrorHandlerNoPanic(ctx context.Context, h ErrorHandler, info ErrorInfo) {
	defer func() {
		if p := recover(); p != nil {
			reportPanicToStderr(PanicInfo{
				Name:  info.Name,
				Tags:  info.Tags,
				Value: fmt.Sprintf("spawn: error handler panicked: %v", p),
				Stack: debug.Stack(),
			})
		}
	}()
	h(ctx, info)
}

func callPanicHandlerNoPanic(ctx context.Context, h PanicHandler, info PanicInfo) {
	defer func() {
		if p := recover(); p != nil {
			reportPanicToStderr(PanicInfo{
				Name:  info.Name,
				Tags:  info.Tags,
				Value: fmt.Sprintf("spawn: panic handler panicked: %v", p),
				Stack: debug.Stack(),
			})
		}
	}()
	h(ctx, info)
}
