package spawn

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrPanicked indicates a function panicked (the panic was recovered).
	// *PanicError matches it via errors.Is.
	ErrPanicked = errors.New("spawn: function panicked")
	// ErrNoTarget is returned by Thread.Start when SetTarget was never called.
	ErrNoTarget = errors.New("spawn: thread target not set")
	// ErrThreadStarted is returned by Thread.Start when called more than once.
	ErrThreadStarted = errors.New("spawn: thread already started")
)

// Tag is a lightweight key/value pair carried by panic/error reports.
// Tags are kept as a slice to preserve insertion order for stable output.
type Tag struct {
	Key   string
	Value string
}

// ErrorHandler is called when a function returns a non-nil error (subject to filtering).
type ErrorHandler func(ctx context.Context, info ErrorInfo)

// ErrorInfo describes an error returned from a function.
type ErrorInfo struct {
	Name string
	Tags []Tag
	Err  error
}

// PanicHandler is called when a function panics (subject to policy).
type PanicHandler func(ctx context.Context, info PanicInfo)

// PanicInfo describes a recovered panic.
type PanicInfo struct {
	Name  string
	Tags  []Tag
	Value any
	Stack []byte
}

// PanicPolicy controls how panics are handled by Go/Run.
type PanicPolicy int

const (
	// RecoverAndReport recovers the panic and reports it via PanicHandler (or stderr by default).
	RecoverAndReport PanicPolicy = iota
	// RecoverOnly recovers the panic without reporting it.
	RecoverOnly
	// RepanicAfterReport recovers the panic, reports it, then panics again with the same value.
	RepanicAfterReport
)

// PanicError is the error produced by Catch (and stored by Thread) when the
// executed function panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("spawn: panic: %v", e.Value)
}

// Is reports a match against ErrPanicked so callers can use errors.Is without
// depending on the concrete type.
func (e *PanicError) Is(target error) bool { return target == ErrPanicked }
