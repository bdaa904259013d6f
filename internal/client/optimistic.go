package client

import (
	"context"
	"sync"
)

// Optimistic holds a locally cached value that is changed in two phases:
// a proposal is visible to readers immediately, then the server either
// confirms it (and its answer becomes the value) or it is reverted.
//
// Updates are serialized. Propose must not mutate its argument in place.
type Optimistic[T any] struct {
	update sync.Mutex
	mu     sync.RWMutex
	value  T
}

func NewOptimistic[T any](initial T) *Optimistic[T] {
	return &Optimistic[T]{value: initial}
}

func (o *Optimistic[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

func (o *Optimistic[T]) Set(v T) {
	o.mu.Lock()
	o.value = v
	o.mu.Unlock()
}

// Update applies propose, calls confirm with the proposed value and keeps
// what confirm returns. When confirm fails the previous value is restored
// and rollback, if set, is called with it and the error.
func (o *Optimistic[T]) Update(
	ctx context.Context,
	propose func(current T) T,
	confirm func(ctx context.Context, proposed T) (T, error),
	rollback func(previous T, err error),
) (T, error) {
	o.update.Lock()
	defer o.update.Unlock()

	previous := o.Get()
	o.Set(propose(previous))

	confirmed, err := confirm(ctx, o.Get())
	if err != nil {
		o.Set(previous)
		if rollback != nil {
			rollback(previous, err)
		}
		return previous, err
	}
	o.Set(confirmed)
	return confirmed, nil
}
