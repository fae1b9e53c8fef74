// Package mpmc implements a bounded, lock-free multi-producer/multi-
// consumer ring queue using per-slot sequence numbers (the scheme
// described by Dmitry Vyukov: https://www.1024cores.net/home/lock-free-algorithms/queues/bounded-mpmc-queue).
package mpmc

import (
	"runtime"
	"sync/atomic"

	"github.com/olearczuk/lockfree/internal/cacheline"
	"github.com/olearczuk/lockfree/internal/capacity"
)

// ErrInvalidCapacity is returned by New when capacity is zero or not a
// power of two.
var ErrInvalidCapacity = capacity.ErrInvalidCapacity

// goschedEvery bounds how often a contending Push/Pop yields the
// scheduler instead of spinning; lock-free progress only guarantees some
// thread advances per round, so a busy loser should get out of the way.
const goschedEvery = 64

// slot holds one element's storage plus the sequence number that encodes
// whether it is empty, full, or mid-transition. seq and storage are kept
// on separate cache lines: producers publish by writing storage then seq,
// consumers read seq then storage, and an unrelated slot's producer must
// not contend with this slot's consumer over a shared line.
type slot[T any] struct {
	_       cacheline.Pad
	seq     atomic.Uint64
	_       cacheline.Pad
	storage T
	_       cacheline.Pad
}

// Queue is a bounded multi-producer/multi-consumer ring buffer. Push and
// Pop may be called concurrently from any number of goroutines.
type Queue[T any] struct {
	mask uint64
	cap  uint64
	ring []slot[T]

	_    cacheline.Pad
	tail atomic.Uint64
	_    cacheline.Pad
	head atomic.Uint64
	_    cacheline.Pad
}

// New returns an empty queue with the given capacity, which must be a
// power of two greater than zero.
func New[T any](cap uint64) (*Queue[T], error) {
	mask, err := capacity.Check(cap)
	if err != nil {
		return nil, err
	}
	ring := make([]slot[T], cap)
	for i := range ring {
		ring[i].seq.Store(uint64(i))
	}
	return &Queue[T]{
		mask: mask,
		cap:  cap,
		ring: ring,
	}, nil
}

// Capacity returns the queue's fixed capacity.
func (q *Queue[T]) Capacity() uint64 {
	return q.cap
}

// Push appends v to the queue. It returns false if the queue is full.
// Safe to call concurrently from any number of producer goroutines.
func (q *Queue[T]) Push(v T) bool {
	var spins uint32
	pos := q.tail.Load()
	for {
		s := &q.ring[pos&q.mask]
		seq := s.seq.Load()

		switch diff := int64(seq) - int64(pos); {
		case diff == 0:
			if q.tail.CompareAndSwap(pos, pos+1) {
				s.storage = v
				s.seq.Store(pos + 1)
				return true
			}
			spins = spin(&spins)
			pos = q.tail.Load()
		case diff < 0:
			// This slot's consumer hasn't caught up to a previous
			// cycle: the queue is full as far as this push attempt
			// is concerned.
			return false
		default:
			// Another producer has already advanced tail past pos.
			pos = q.tail.Load()
			spins = spin(&spins)
		}
	}
}

// Pop removes and returns the oldest element in the queue. It returns
// (zero, false) if the queue is empty. Safe to call concurrently from any
// number of consumer goroutines.
func (q *Queue[T]) Pop() (T, bool) {
	var spins uint32
	var zero T
	pos := q.head.Load()
	for {
		s := &q.ring[pos&q.mask]
		seq := s.seq.Load()

		switch diff := int64(seq) - int64(pos+1); {
		case diff == 0:
			if q.head.CompareAndSwap(pos, pos+1) {
				v := s.storage
				s.storage = zero
				s.seq.Store(pos + q.cap)
				return v, true
			}
			spins = spin(&spins)
			pos = q.head.Load()
		case diff < 0:
			// No producer has published at this position yet.
			return zero, false
		default:
			// Another consumer has already advanced head past pos.
			pos = q.head.Load()
			spins = spin(&spins)
		}
	}
}

func spin(spins *uint32) uint32 {
	*spins++
	if *spins%goschedEvery == 0 {
		runtime.Gosched()
	}
	return *spins
}
