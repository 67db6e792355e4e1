// Package resilience wraps calls to external collaborators.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is reported when a call does not finish within its budget.
var ErrTimeout = errors.New("call timed out")

// Result is the outcome of CallWithFallback. Fallback is true when Value is the fallback,
// in which case Err holds the reason.
type Result[T any] struct {
	Value    T
	Fallback bool
	Err      error
}

// CallWithFallback runs fn with a bounded timeout. Errors, panics and timeouts never reach the
// caller: they resolve to fallback with Result.Fallback set. A timeout <= 0 means no extra bound
// beyond ctx.
func CallWithFallback[T any](ctx context.Context, timeout time.Duration, fallback T, fn func(ctx context.Context) (T, error)) Result[T] {
	callCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn(callCtx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) {
				out.err = fmt.Errorf("%w: %v", ErrTimeout, out.err)
			}
			return Result[T]{Value: fallback, Fallback: true, Err: out.err}
		}
		return Result[T]{Value: out.value}
	case <-callCtx.Done():
		err := callCtx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
		return Result[T]{Value: fallback, Fallback: true, Err: err}
	}
}
