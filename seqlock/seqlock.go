// Package seqlock implements a single-writer, multi-reader seqlock: a
// lock-free way to publish a trivially-copyable value without readers ever
// blocking the writer.
package seqlock

import (
	"runtime"
	"sync/atomic"

	"github.com/olearczuk/lockfree/internal/cacheline"
)

// SeqLock publishes values of type T from one writer goroutine to any
// number of reader goroutines. T should be small and copyable by plain
// assignment; SeqLock copies it by value on every read and write.
//
// Exactly one goroutine may call Write; any number may call Read
// concurrently with it and with each other.
type SeqLock[T any] struct {
	_     cacheline.Pad
	value T
	seq   atomic.Uint64
	_     cacheline.Pad
}

// New returns a SeqLock holding the zero value of T, with its sequence
// counter at 0 (even, i.e. no write in progress).
func New[T any]() *SeqLock[T] {
	return &SeqLock[T]{}
}

// Write publishes v, making it visible to readers. Wait-free: it always
// completes in two sequence-counter stores and one value store, regardless
// of how many readers are concurrently retrying.
//
// Write must not be called concurrently with another Write; the type
// provides no protection against that and doing so corrupts the sequence
// counter's odd/even invariant.
func (l *SeqLock[T]) Write(v T) {
	s := l.seq.Load()
	l.seq.Store(s + 1)
	l.value = v
	l.seq.Store(s + 2)
}

// Read returns the most recently published value, retrying internally if
// it observes a write in progress or a write that completed mid-copy. It
// always returns a value that was passed to some completed Write call, or
// the zero value of T if no Write has completed yet.
func (l *SeqLock[T]) Read() T {
	for {
		s1 := l.seq.Load()
		v := l.value
		s2 := l.seq.Load()
		if s1 == s2 && s1%2 == 0 {
			return v
		}
		runtime.Gosched()
	}
}
