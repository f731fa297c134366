package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/lattice/pkg/ports"
	"golang.org/x/sync/semaphore"
)

// Locker implements ports.Locker for a single process. Locks do not
// expire; the ttl argument is ignored.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*semaphore.Weighted)}
}

// Lock blocks until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	sem := l.semaphore(key)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { sem.Release(1) })
		return nil
	}, nil
}

func (l *Locker) semaphore(key string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.locks[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.locks[key] = sem
	}
	return sem
}
