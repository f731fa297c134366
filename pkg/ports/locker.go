package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock acquired through a Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes access to a snapshot across concurrent runs, possibly
// on different replicas.
type Locker interface {
	// Lock blocks until the lock for key is held or ctx is done. The
	// returned UnlockFunc must be called to release it. Implementations
	// may expire the lock after ttl.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
