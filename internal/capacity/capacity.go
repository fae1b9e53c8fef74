// Package capacity holds the one validation rule shared by both ring
// queues: a bounded queue's capacity must be a power of two so that the
// mask-based indexing in spsc and mpmc stays branch-free.
package capacity

import "errors"

// ErrInvalidCapacity is returned by a queue constructor when the
// requested capacity is zero or not a power of two.
var ErrInvalidCapacity = errors.New("lockfree: capacity must be a power of two greater than zero")

// Check validates c and returns the index mask (c-1) on success.
func Check(c uint64) (mask uint64, err error) {
	if c == 0 || c&(c-1) != 0 {
		return 0, ErrInvalidCapacity
	}
	return c - 1, nil
}
