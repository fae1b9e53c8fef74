// Package pool is a small, concrete illustration of the kind of thing
// this module's primitives are meant to be embedded in: a fixed-capacity
// slot pool, as an allocator might hand out reusable buffers to many
// concurrent callers without ever growing the backing array.
//
// It is not part of the four core primitives; it composes one of them
// (mpmc.Queue) with a flat slice of storage to get a lock-free free-list.
package pool

import "github.com/olearczuk/lockfree/mpmc"

// Pool hands out indices into a fixed-size backing array of T. Acquire
// and Release may both be called concurrently from any number of
// goroutines. The pool never grows; once all slots are checked out,
// Acquire reports failure instead of allocating.
type Pool[T any] struct {
	free *mpmc.Queue[int]
	data []T
}

// New returns a pool of the given fixed capacity, which must be a power
// of two greater than zero.
func New[T any](capacity uint64) (*Pool[T], error) {
	free, err := mpmc.New[int](capacity)
	if err != nil {
		return nil, err
	}
	p := &Pool[T]{
		free: free,
		data: make([]T, capacity),
	}
	for i := 0; i < int(capacity); i++ {
		if !p.free.Push(i) {
			panic("pool: unreachable, backing queue rejected a slot at init")
		}
	}
	return p, nil
}

// Acquire checks out one slot and returns its index and true, or
// (0, false) if every slot is currently checked out.
func (p *Pool[T]) Acquire() (int, bool) {
	return p.free.Pop()
}

// At returns a pointer to the slot at the given index. The caller must
// hold that index from a successful Acquire that it has not yet
// Released.
func (p *Pool[T]) At(i int) *T {
	return &p.data[i]
}

// Release returns a checked-out slot to the pool. Releasing an index the
// caller did not acquire, or releasing it twice, corrupts the free list.
func (p *Pool[T]) Release(i int) {
	var zero T
	p.data[i] = zero
	if !p.free.Push(i) {
		panic("pool: unreachable, backing queue rejected a release")
	}
}

// Capacity returns the pool's fixed number of slots.
func (p *Pool[T]) Capacity() uint64 {
	return p.free.Capacity()
}
