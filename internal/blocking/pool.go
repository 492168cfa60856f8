// Package blocking runs synchronous work, such as database calls, on a
// bounded set of slots so request handlers never queue unbounded work on the
// connection pool.
package blocking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrPoolExhausted is returned when no slot frees up within the checkout
// timeout.
var ErrPoolExhausted = errors.New("blocking pool exhausted")

// Pool bounds concurrent blocking work to size slots.
//
// Work handed to Do is not cancellable once it starts: it runs with a
// context detached from the caller's cancellation and always completes. If
// the caller gives up first, the result is dropped.
type Pool struct {
	sem             *semaphore.Weighted
	checkoutTimeout time.Duration
}

func New(size int, checkoutTimeout time.Duration) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		sem:             semaphore.NewWeighted(int64(size)),
		checkoutTimeout: checkoutTimeout,
	}
}

// Do waits for a slot (at most the checkout timeout, and never past ctx)
// and runs fn on it. A panic in fn is returned as an error.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	acquireCtx, cancel := context.WithTimeout(ctx, p.checkoutTimeout)
	defer cancel()
	if err := p.sem.Acquire(acquireCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return ErrPoolExhausted
	}

	done := make(chan error, 1)
	go func() {
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("blocking task panicked: %v", r)
			}
		}()
		done <- fn(context.WithoutCancel(ctx))
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run is Do for functions that produce a value.
func Run[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
