// Package async provides the asynchronous result primitives a business
// object method may return instead of a plain value.
//
// A method that completes later without a value returns a [Task] (or a
// receive-only error channel); a method that completes later with a value
// returns a [Future], usually a *[Promise]. The data portal awaits both and
// hands the caller a plain value.
//
//	func (o *Order) Fetch(id int) *async.Promise[*OrderDTO] {
//	    return async.Async(func() (*OrderDTO, error) {
//	        return o.repo.Load(id)
//	    })
//	}
package async

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrPanic is matched by errors produced from a recovered panic.
var ErrPanic = errors.New("panic in asynchronous operation")

// Task is an asynchronous operation that produces no value.
type Task interface {
	// Wait blocks until the operation completes or ctx is done.
	Wait(ctx context.Context) error
}

// Future is an asynchronous operation that produces a value.
type Future interface {
	// Await blocks until the operation completes or ctx is done and
	// returns the produced value.
	Await(ctx context.Context) (any, error)
}

// PanicError carries a value recovered from a panic together with the
// goroutine stack at the point of recovery.
type PanicError struct {
	Value any
	Stack []byte
}

// Recovered builds a PanicError from a value returned by recover.
func Recovered(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%v: %v", ErrPanic, e.Value)
}

// Is matches ErrPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrPanic
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Promise is a Future with a typed result.
type Promise[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Async runs fn in a new goroutine and returns a promise of its result.
// A panic in fn rejects the promise with a *PanicError.
func Async[T any](fn func() (T, error)) *Promise[T] {
	p := &Promise[T]{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		defer func() {
			if r := recover(); r != nil {
				p.err = Recovered(r)
			}
		}()
		p.value, p.err = fn()
	}()
	return p
}

// Resolved returns a promise already fulfilled with v.
func Resolved[T any](v T) *Promise[T] {
	p := &Promise[T]{done: make(chan struct{}), value: v}
	close(p.done)
	return p
}

// Rejected returns a promise already failed with err.
func Rejected[T any](err error) *Promise[T] {
	p := &Promise[T]{done: make(chan struct{}), err: err}
	close(p.done)
	return p
}

// Done is closed once the promise settles.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Get waits for the promise and returns its typed result.
func (p *Promise[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Await implements Future.
func (p *Promise[T]) Await(ctx context.Context) (any, error) {
	v, err := p.Get(ctx)
	if err != nil {
		return nil, err
	}
	return v, nil
}

type task struct {
	done chan struct{}
	err  error
}

// Go runs fn in a new goroutine and returns a Task that completes with its
// error. A panic in fn fails the task with a *PanicError.
func Go(fn func() error) Task {
	t := &task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.err = Recovered(r)
			}
		}()
		t.err = fn()
	}()
	return t
}

// Completed returns a Task that has already finished with err.
func Completed(err error) Task {
	t := &task{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ChanTask adapts a channel that delivers a single error (or is closed
// without one) into a Task.
type ChanTask <-chan error

// Wait implements Task.
func (c ChanTask) Wait(ctx context.Context) error {
	if c == nil {
		return nil
	}
	select {
	case err := <-c:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
