// Package offload runs blocking calls on a bounded set of goroutines so an
// activation can wait for them without stalling the rest of the host.
package offload

import (
	"context"
	"sync"

	"github.com/aretw0/lattice/pkg/value"
	"golang.org/x/sync/semaphore"
)

// DefaultSize is the number of concurrent blocking calls a Pool allows when
// no size is given.
const DefaultSize = 4

// Func is a blocking call. It must only compute its result: shared state is
// updated by the caller once Do returns.
type Func func(ctx context.Context) (value.Value, error)

// Pool bounds the number of blocking calls in flight.
type Pool struct {
	sem  *semaphore.Weighted
	wg   sync.WaitGroup
	size int64
}

type result struct {
	err error
	out value.Value
}

// NewPool creates a pool allowing size concurrent calls. A size below one
// uses DefaultSize.
func NewPool(size int) *Pool {
	if size < 1 {
		size = DefaultSize
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Size returns the concurrency limit.
func (p *Pool) Size() int { return int(p.size) }

// Do runs fn on a pool goroutine and waits for it. If ctx is done first, Do
// returns ctx.Err() and the eventual result of fn is discarded. fn receives
// ctx and should stop early when it is cancelled.
func (p *Pool) Do(ctx context.Context, fn Func) (value.Value, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return value.None(), err
	}

	done := make(chan result, 1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)

		out, err := fn(ctx)
		done <- result{out: out, err: err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		return value.None(), ctx.Err()
	}
}

// Wait blocks until every call started by Do has returned, including the
// ones whose callers gave up.
func (p *Pool) Wait() {
	p.wg.Wait()
}
