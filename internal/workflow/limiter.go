package workflow

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Limiter is a FIFO permit pool bounding concurrent execution. A nil
// Limiter grants every acquisition, so callers can treat "unbounded" and
// "bounded" uniformly.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter builds a pool of the given size. A non-positive size is a
// configuration error: such a pool could never grant a permit.
func NewLimiter(permits int) (*Limiter, error) {
	if permits <= 0 {
		return nil, fmt.Errorf("limiter requires at least one permit, got %d", permits)
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(permits))}, nil
}

// Acquire blocks until a permit is available or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.sem.Acquire(ctx, 1)
}

// Release returns a permit. Callers must pair every successful Acquire with
// exactly one Release on every exit path.
func (l *Limiter) Release() {
	if l == nil {
		return
	}
	l.sem.Release(1)
}
