package scheduler

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter hands out network permits. Acquire blocks until a permit is free;
// an error from Acquire aborts the whole batch.
type Limiter interface {
	Acquire(ctx context.Context) error
	Release()
}

type semaphoreLimiter struct {
	sem *semaphore.Weighted
}

// NewLimiter returns a counting limiter with n permits.
func NewLimiter(n int) Limiter {
	if n <= 0 {
		n = 1
	}
	return &semaphoreLimiter{sem: semaphore.NewWeighted(int64(n))}
}

func (l *semaphoreLimiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *semaphoreLimiter) Release() {
	l.sem.Release(1)
}
