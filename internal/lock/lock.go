// Package lock serializes auto-assignment evaluations so two callers never read the same
// moderator workload before either has written.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when a lock could not be obtained in time.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker grants exclusive access. The returned release func must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Local is an in-process Locker.
type Local struct {
	sem chan struct{}
}

// NewLocal returns an unlocked in-process lock.
func NewLocal() *Local {
	return &Local{sem: make(chan struct{}, 1)}
}

// Acquire blocks until the lock is free or ctx is done.
func (l *Local) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
