package stickycounter

import (
	"sync/atomic"

	"github.com/olearczuk/lockfree/internal/cacheline"
)

// zero marks that the counter has latched to zero. helped marks that a
// concurrent Read observed a transient zero and latched the counter on
// behalf of the Decrement call that actually drove the count there, which
// then claims that latch as its own. Both live in the
// top two bits of the word; the low 62 bits carry the count while it is
// still meaningful (i.e. before latching).
const (
	zero   uint64 = 1 << 63
	helped uint64 = 1 << 62
)

// WaitFree is a wait-free, zero-sticky reference counter with the same
// external contract as LockFree: every operation completes in a bounded
// number of atomic steps regardless of contention.
type WaitFree struct {
	_       cacheline.Pad
	counter atomic.Uint64
	_       cacheline.Pad
}

// NewWaitFree returns a counter with an initial logical value of 1.
func NewWaitFree() *WaitFree {
	return NewWaitFreeWithInitial(1)
}

// NewWaitFreeWithInitial returns a counter with the given initial logical
// value.
func NewWaitFreeWithInitial(initial uint64) *WaitFree {
	c := &WaitFree{}
	c.counter.Store(initial)
	return c
}

// IncrementIfNotZero increments the counter and returns true, unless the
// counter had already latched to zero, in which case it returns false.
//
// The increment is unconditional: it always runs a single fetch-add, even
// when the counter has latched. The low 62 bits of a latched word are
// never read by any operation, so the brief, meaningless bump they take
// here is invisible to every external observer.
func (c *WaitFree) IncrementIfNotZero() bool {
	prior := c.counter.Add(1) - 1
	return prior&zero == 0
}

// Decrement decrements the counter and reports whether this call is the
// one that latched it to zero. Exactly one Decrement call across the
// counter's lifetime ever returns true.
func (c *WaitFree) Decrement() bool {
	if c.counter.Add(^uint64(0))+1 != 1 {
		return false
	}
	// This call drove the count to 0. Try to claim the latch.
	v := c.counter.Load()
	if c.counter.CompareAndSwap(v, zero) {
		return true
	}
	// CompareAndSwap doesn't hand back the current word on failure the
	// way compare_exchange_strong does, so reload before inspecting it -
	// v is otherwise stale and still 0 here.
	v = c.counter.Load()
	// Someone else moved the word first. If it was a Read that helped
	// latch it, take credit for the latch it performed on our behalf.
	if v&helped != 0 {
		if old := c.counter.Swap(zero); old&helped != 0 {
			return true
		}
	}
	// A concurrent increment raised the count before we could latch;
	// from the outside this is indistinguishable from an increment that
	// happened just after our decrement.
	return false
}

// Read returns the counter's current logical value, or 0 if it has
// latched. A Read that observes a transient zero (mid-latch) helps
// complete the latch and flags the in-flight Decrement so it can still
// report having reached zero.
func (c *WaitFree) Read() uint64 {
	v := c.counter.Load()
	if v == 0 {
		if c.counter.CompareAndSwap(0, zero|helped) {
			return 0
		}
		v = c.counter.Load()
	}
	if v&zero != 0 {
		return 0
	}
	return v
}
