package async

import (
	"context"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the computation completes and returns its result and error.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext waits for completion or for ctx to be done, whichever comes
// first. The computation itself keeps running when ctx expires.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// IsComplete reports whether the computation has finished, without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Async runs fn(ctx, param) in its own goroutine and returns a Future for its result.
// If ctx is already cancelled fn is not called and the Future completes with ctx.Err().
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}

		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// WaitAll waits for every future and returns their results in order along
// with the first error encountered, if any. Unlike a fail-fast join it always
// waits for all futures, so no goroutine outlives the call.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	var firstErr error

	for i, future := range futures {
		result, err := future.Await()
		results[i] = result
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return results, firstErr
}

// Outcome is the settled state of a single future.
type Outcome[U any] struct {
	Value U
	Err   error
}

// Settle waits for every future and reports each outcome individually.
func Settle[U any](futures ...*Future[U]) []Outcome[U] {
	out := make([]Outcome[U], len(futures))
	for i, future := range futures {
		out[i].Value, out[i].Err = future.Await()
	}
	return out
}

// Map starts fn for every item concurrently and settles all of them.
func Map[T any, U any](ctx context.Context, items []T, fn func(context.Context, T) (U, error)) []Outcome[U] {
	futures := make([]*Future[U], len(items))
	for i, item := range items {
		futures[i] = Async(ctx, item, fn)
	}
	return Settle(futures...)
}
