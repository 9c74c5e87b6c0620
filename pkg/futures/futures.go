// Package futures provides the asynchronous half of the store API.
//
// Every store operation has a blocking form and an Async form. The Async
// form returns a [Future] that settles exactly once with the operation's
// outcome. Callers choose how to consume it: wait with [Future.Await],
// compose with [Future.Done] in a select, or register completion
// callbacks with [Future.Subscribe].
package futures

import (
	"context"
	"sync"
)

// Future holds the eventual outcome of an operation started with [Go].
// A future settles exactly once; after that its value and error never
// change.
type Future[T any] struct {
	done chan struct{}

	mu   sync.Mutex
	val  T
	err  error
	subs []func(T, error)
}

// Go runs fn in its own goroutine and returns a future that settles with
// fn's outcome. The context is handed to fn as-is; cancelling it is fn's
// concern, not the future's.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		val, err := fn(ctx)
		f.settle(val, err)
	}()
	return f
}

// Settled returns a future that has already settled with the given
// outcome. No goroutine is started.
func Settled[T any](val T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.settle(val, err)
	return f
}

func (f *Future[T]) settle(val T, err error) {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		return
	default:
	}
	f.val = val
	f.err = err
	subs := f.subs
	f.subs = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range subs {
		cb(val, err)
	}
}

// Await blocks until the future settles or ctx is done, whichever comes
// first. On cancellation it returns the zero value and ctx's error; the
// underlying operation keeps running and the future may still settle
// later.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed once the future has settled.
// After Done is closed, [Future.Result] returns without blocking.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the future settles and returns its outcome. Unlike
// [Future.Await] it cannot be cancelled.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

// Subscribe registers cb to run once with the settled outcome. If the
// future has already settled, cb runs synchronously before Subscribe
// returns; otherwise it runs in the settling goroutine, in registration
// order. Each callback fires exactly once.
func (f *Future[T]) Subscribe(cb func(T, error)) {
	f.mu.Lock()
	select {
	case <-f.done:
		val, err := f.val, f.err
		f.mu.Unlock()
		cb(val, err)
		return
	default:
	}
	f.subs = append(f.subs, cb)
	f.mu.Unlock()
}
