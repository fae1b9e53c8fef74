package mpmc

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/valyala/fastrand"
)

func TestNewRejectsInvalidCapacity(t *testing.T) {
	for _, c := range []uint64{0, 3, 5, 6, 7, 9, 100} {
		if _, err := New[int](c); !errors.Is(err, ErrInvalidCapacity) {
			t.Fatalf("capacity %d: expected ErrInvalidCapacity, got %v", c, err)
		}
	}
	for _, c := range []uint64{1, 2, 4, 8, 1024} {
		if _, err := New[int](c); err != nil {
			t.Fatalf("capacity %d: unexpected error %v", c, err)
		}
	}
}

// Sequential sanity: single goroutine fills then drains.
func TestMPMCSequential(t *testing.T) {
	const (
		capacity = 1024
		n        = 100_000
	)

	q, err := New[int](capacity)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < n; i++ {
		ok := q.Push(i)
		if i < int(capacity) && !ok {
			t.Fatalf("push failed at %d (queue unexpectedly full)", i)
		} else if i >= int(capacity) && ok {
			t.Fatalf("push succeeded at %d (queue unexpectedly not full)", i)
		}
	}

	for i := 0; i < n; i++ {
		v, ok := q.Pop()
		if i < int(capacity) {
			if !ok {
				t.Fatalf("pop failed at %d (queue unexpectedly empty)", i)
			}
			if v != i {
				t.Fatalf("expected %d, got %d (FIFO violated)", i, v)
			}
		} else if ok {
			t.Fatalf("pop succeeded at %d (queue unexpectedly not empty)", i)
		}
	}

	if v, ok := q.Pop(); ok {
		t.Fatalf("expected empty queue at the end, got value=%v", v)
	}
}

func TestMPMCCapacityOverflow(t *testing.T) {
	const capacity = 8
	q, err := New[int](capacity)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < capacity; i++ {
		if !q.Push(i) {
			t.Fatalf("push failed at %d (queue unexpectedly full)", i)
		}
	}
	if q.Push(999) {
		t.Fatalf("expected overflow, got success")
	}
}

// Scenario: 4 producers x 4 consumers push/pop 0..99999 partitioned via a
// shared atomic counter. Sum of popped values must equal the sum of
// 0..99999, with no duplicates and no losses.
func TestMPMCConcurrentProducersConsumers(t *testing.T) {
	const (
		capacity  = 1 << 12
		n         = 100_000
		producers = 4
		consumers = 4
	)

	q, err := New[int](capacity)
	if err != nil {
		t.Fatal(err)
	}

	var nextValue atomic.Int64
	var produced atomic.Int64
	var wgProducers sync.WaitGroup
	wgProducers.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wgProducers.Done()
			for {
				v := nextValue.Add(1) - 1
				if v >= n {
					return
				}
				for !q.Push(int(v)) {
					if fastrand.Uint32n(4) == 0 {
						runtime.Gosched()
					}
				}
				produced.Add(1)
			}
		}()
	}

	seen := make([]int32, n)
	var consumed atomic.Int64
	var wgConsumers sync.WaitGroup
	wgConsumers.Add(consumers)
	for c := 0; c < consumers; c++ {
		go func() {
			defer wgConsumers.Done()
			for consumed.Load() < n {
				v, ok := q.Pop()
				if !ok {
					continue
				}
				if v < 0 || v >= n {
					t.Errorf("out-of-range value %d", v)
					continue
				}
				if atomic.AddInt32(&seen[v], 1) != 1 {
					t.Errorf("value %d consumed more than once", v)
				}
				consumed.Add(1)
			}
		}()
	}

	wgProducers.Wait()
	wgConsumers.Wait()

	var sum int64
	for i, count := range seen {
		if count != 1 {
			t.Fatalf("value %d seen %d times (expected 1)", i, count)
		}
		sum += int64(i)
	}

	const want = int64(4999950000)
	if sum != want {
		t.Fatalf("expected sum %d, got %d", want, sum)
	}
}

// Per-producer FIFO: a single producer's pushes emerge from the queue in
// the order it pushed them, even under contention from other producers.
func TestMPMCPerProducerFIFO(t *testing.T) {
	const (
		capacity    = 256
		producers   = 4
		perProducer = 5000
	)

	q, err := New[[2]int](capacity) // [producerID, sequenceNumber]
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for !q.Push([2]int{id, i}) {
				}
			}
		}(p)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	lastSeenByProducer := make([]int, producers)
	for i := range lastSeenByProducer {
		lastSeenByProducer[i] = -1
	}

	total := 0
	for total < producers*perProducer {
		v, ok := q.Pop()
		if !ok {
			select {
			case <-done:
			default:
			}
			continue
		}
		id, seq := v[0], v[1]
		if seq != lastSeenByProducer[id]+1 {
			t.Fatalf("producer %d: expected sequence %d, got %d", id, lastSeenByProducer[id]+1, seq)
		}
		lastSeenByProducer[id] = seq
		total++
	}
}

// Wrap-around: two full fill/drain cycles preserve FIFO and emptiness
// detection.
func TestMPMCDoubleWrapAround(t *testing.T) {
	const capacity = 16
	q, err := New[int](capacity)
	if err != nil {
		t.Fatal(err)
	}

	for cycle := 0; cycle < 2; cycle++ {
		for i := 0; i < capacity; i++ {
			if !q.Push(i) {
				t.Fatalf("cycle %d: push(%d) unexpectedly failed", cycle, i)
			}
		}
		if q.Push(-1) {
			t.Fatalf("cycle %d: push on full queue unexpectedly succeeded", cycle)
		}
		for i := 0; i < capacity; i++ {
			v, ok := q.Pop()
			if !ok || v != i {
				t.Fatalf("cycle %d: expected %d, got %v (ok=%v)", cycle, i, v, ok)
			}
		}
		if _, ok := q.Pop(); ok {
			t.Fatalf("cycle %d: expected empty queue at end of cycle", cycle)
		}
	}
}
