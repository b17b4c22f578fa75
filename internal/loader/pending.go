package loader

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/atomic"
)

var ErrNotReady = errors.New("result not ready")

// Pending is a one-shot result published by a background load. The first
// resolution wins; later ones are ignored.
type Pending[T any] struct {
	done  chan struct{}
	once  sync.Once
	ready atomic.Bool
	value T
	err   error
}

func newPending[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan struct{})}
}

// Resolved returns an already completed Pending.
func Resolved[T any](value T, err error) *Pending[T] {
	p := newPending[T]()
	p.resolve(value, err)
	return p
}

func (p *Pending[T]) resolve(value T, err error) bool {
	won := false
	p.once.Do(func() {
		p.value, p.err = value, err
		p.ready.Store(true)
		close(p.done)
		won = true
	})
	return won
}

// Done is closed once the result is available.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

func (p *Pending[T]) Ready() bool {
	return p.ready.Load()
}

// Result returns the outcome without blocking, or ErrNotReady.
func (p *Pending[T]) Result() (T, error) {
	if !p.Ready() {
		var zero T
		return zero, ErrNotReady
	}
	return p.value, p.err
}

// Wait blocks until the result is available or ctx is done.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
