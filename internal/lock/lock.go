// Package lock serialises queue writers.
//
// A single dashboard process uses LocalLocker. When several processes write to
// the same patient store, RedisLocker extends the guarantee across them.
package lock

import (
	"context"
)

// Locker hands out the single writer slot
type Locker interface {
	// Acquire blocks until the slot is held or ctx is done
	Acquire(ctx context.Context) (release func(), err error)
}

// LocalLocker is an in-process mutex that honours context cancellation
type LocalLocker struct {
	slot chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slot: make(chan struct{}, 1)}
}

func (l *LocalLocker) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.slot <- struct{}{}:
		return func() { <-l.slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
