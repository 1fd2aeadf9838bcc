package spawn

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestCatch_ReturnsFnError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("x")
	err := Catch(context.Background(), func(context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err=%v, want %v", err, wantErr)
	}
}

func TestCatch_ConvertsPanic(t *testing.T) {
	t.Parallel()

	err := Catch(context.Background(), func(context.Context) error {
		panic("boom")
	})
	if !errors.Is(err, ErrPanicked) {
		t.Fatalf("err=%v, want match ErrPanicked", err)
	}

	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err=%T, want *PanicError", err)
	}
	if pe.Value != "boom" {
		t.Fatalf("panic value=%v, want boom", pe.Value)
	}
	if len(pe.Stack) == 0 {
		t.Fatalf("panic stack is empty")
	}
}

func TestCatch_NilContext(t *testing.T) {
	t.Parallel()

	err := Catch(nil, func(ctx context.Context) error {
		if ctx == nil {
			t.Errorf("ctx is nil inside fn")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err=%v, want nil", err)
	}
}

func TestRun_FinallyRunsOnSuccess(t *testing.T) {
	t.Parallel()

	var called atomic.Int64
	Run(context.Background(), func(context.Context) error {
		return nil
	}, WithFinally(func() { called.Add(1) }))

	if got := called.Load(); got != 1 {
		t.Fatalf("finally called=%d, want 1", got)
	}
}

func TestRun_FinallyRunsOnPanic_RecoverAndReport(t *testing.T) {
	t.Parallel()

	var finally atomic.Int64
	var panicCalls atomic.Int64

	Run(context.Background(), func(context.Context) error {
		panic("boom")
	}, WithFinally(func() { finally.Add(1) }),
		WithPanicPolicy(RecoverAndReport),
		WithPanicHandler(func(context.Context, PanicInfo) { panicCalls.Add(1) }),
	)

	if got := finally.Load(); got != 1 {
		t.Fatalf("finally called=%d, want 1", got)
	}
	if got := panicCalls.Load(); got != 1 {
		t.Fatalf("panic handler called=%d, want 1", got)
	}
}

func TestRun_FinallyRunsOnPanic_RepanicAfterReport(t *testing.T) {
	t.Parallel()

	var finally atomic.Int64
	var panicCalls atomic.Int64

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic to propagate")
		}
		if got := finally.Load(); got != 1 {
			t.Fatalf("finally called=%d, want 1", got)
		}
		if got := panicCalls.Load(); got != 1 {
			t.Fatalf("panic handler called=%d, want 1", got)
		}
	}()

	Run(context.Background(), func(context.Context) error {
		panic("boom")
	}, WithFinally(func() { finally.Add(1) }),
		WithPanicPolicy(RepanicAfterReport),
		WithPanicHandler(func(context.Context, PanicInfo) { panicCalls.Add(1) }),
	)
}

func TestRun_PanicPolicy_RecoverOnly(t *testing.T) {
	t.Parallel()

	var panicCalls atomic.Int64

	Run(context.Background(), func(context.Context) error {
		panic("boom")
	}, WithPanicPolicy(RecoverOnly),
		WithPanicHandler(func(context.Context, PanicInfo) { panicCalls.Add(1) }),
	)

	if got := panicCalls.Load(); got != 0 {
		t.Fatalf("panic handler called=%d, want 0", got)
	}
}

func TestRun_ErrorHandler_DefaultIgnoreCancel(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64

	Run(context.Background(), func(context.Context) error {
		return context.Canceled
	}, WithErrorHandler(func(context.Context, ErrorInfo) { calls.Add(1) }))

	if got := calls.Load(); got != 0 {
		t.Fatalf("error handler called=%d, want 0", got)
	}
}

func TestRun_ErrorHandler_ReportCancel(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64

	Run(context.Background(), func(context.Context) error {
		return context.DeadlineExceeded
	}, WithReportContextCancel(true),
		WithErrorHandler(func(context.Context, ErrorInfo) { calls.Add(1) }),
	)

	if got := calls.Load(); got != 1 {
		t.Fatalf("error handler called=%d, want 1", got)
	}
}

func TestRun_ErrorHandler_CalledWithNameTags(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("x")

	var gotName string
	var gotTags []Tag
	var gotErr error

	Run(context.Background(), func(context.Context) error {
		return wantErr
	}, WithName("n"),
		WithTags(Tag{Key: "k", Value: "v"}),
		WithErrorHandler(func(_ context.Context, info ErrorInfo) {
			gotName = info.Name
			gotTags = info.Tags
			gotErr = info.Err
		}),
	)

	if gotName != "n" {
		t.Fatalf("name=%q, want n", gotName)
	}
	if len(gotTags) != 1 || gotTags[0].Key != "k" || gotTags[0].Value != "v" {
		t.Fatalf("tags=%v, want [{k v}]", gotTags)
	}
	if !errors.Is(gotErr, wantErr) {
		t.Fatalf("err=%v, want %v", gotErr, wantErr)
	}
}

func TestRun_ErrorHandlerPanicIsContained(t *testing.T) {
	t.Parallel()

	// Must not panic out of Run.
	Run(context.Background(), func(context.Context) error {
		return errors.New("x")
	}, WithErrorHandler(func(context.Context, ErrorInfo) {
		panic("handler boom")
	}))
}

func TestRun_FinalizersLIFO(t *testing.T) {
	t.Parallel()

	var order []int
	Run(context.Background(), func(context.Context) error {
		return nil
	}, WithFinally(func() { order = append(order, 1) }),
		WithFinally(func() { order = append(order, 2) }),
	)

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("finalizer order=%v, want [2 1]", order)
	}
}

func TestGo_ReportsViaHandler(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("x")
	got := make(chan error, 1)

	Go(context.Background(), func(context.Context) error {
		return wantErr
	}, WithErrorHandler(func(_ context.Context, info ErrorInfo) {
		got <- info.Err
	}))

	if err := <-got; !errors.Is(err, wantErr) {
		t.Fatalf("err=%v, want %v", err, wantErr)
	}
}
