// Package stickycounter implements zero-sticky reference counters: a
// counter that behaves normally above zero but, once it reaches zero,
// latches there permanently. Useful for reference counting where a resource
// must never be revived after its last reference drops.
//
// Two variants share the same external contract: LockFree (a CAS loop) and
// WaitFree (bounded steps per call, via two reserved high bits). Pick
// WaitFree when callers run on threads that cannot tolerate unbounded
// retries (e.g. a real-time or interrupt-driven consumer); LockFree is
// simpler and just as correct otherwise.
package stickycounter

import (
	"runtime"
	"sync/atomic"

	"github.com/olearczuk/lockfree/internal/cacheline"
)

// LockFree is a lock-free, zero-sticky reference counter. Once Read
// returns 0, it never returns anything else again.
type LockFree struct {
	_       cacheline.Pad
	counter atomic.Uint64
	_       cacheline.Pad
}

// NewLockFree returns a counter with an initial logical value of 1.
func NewLockFree() *LockFree {
	return NewLockFreeWithInitial(1)
}

// NewLockFreeWithInitial returns a counter with the given initial logical
// value.
func NewLockFreeWithInitial(initial uint64) *LockFree {
	c := &LockFree{}
	c.counter.Store(initial)
	return c
}

// IncrementIfNotZero increments the counter and returns true, unless the
// counter has already latched to zero, in which case it returns false and
// leaves the counter unchanged.
func (c *LockFree) IncrementIfNotZero() bool {
	var spins uint32
	v := c.counter.Load()
	for v != 0 {
		if c.counter.CompareAndSwap(v, v+1) {
			return true
		}
		v = c.counter.Load()
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
	return false
}

// Decrement decrements the counter and reports whether this call is the
// one that drove it to zero. At most one Decrement call across the
// counter's lifetime ever returns true.
func (c *LockFree) Decrement() bool {
	return c.counter.Add(^uint64(0)) == 0
}

// Read returns the counter's current logical value, or 0 if it has
// latched.
func (c *LockFree) Read() uint64 {
	return c.counter.Load()
}

const goschedEvery = 64
