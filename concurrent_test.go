// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

package scq

import (
	"sync"
	"sync/atomic"
	"testing"

	"code.hybscloud.com/iox"
)

// P2/P3 (LQ): N producers each enqueue a distinct value range, M consumers
// drain concurrently until quiescence; every value is observed exactly
// once and the total matches the total enqueued.
func TestLQConcurrentExactlyOnce(t *testing.T) {
	const producers = 4
	const perProducer = 20000
	const consumers = 4

	q, err := NewLQ()
	if err != nil {
		t.Fatalf("NewLQ: %v", err)
	}
	defer q.Destroy()

	var seen [producers * perProducer]int32

	var prodWg sync.WaitGroup
	prodWg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer prodWg.Done()
			base := uint64(p * perProducer)
			for i := uint64(1); i <= perProducer; i++ {
				q.Enqueue(base + i)
			}
		}(p)
	}

	done := make(chan struct{})
	var dequeueCount int64
	var consWg sync.WaitGroup
	consWg.Add(consumers)
	for c := 0; c < consumers; c++ {
		go func() {
			defer consWg.Done()
			for {
				v, ok := q.Dequeue()
				if ok {
					atomic.AddInt64(&dequeueCount, 1)
					atomic.AddInt32(&seen[v-1], 1)
					continue
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}

	prodWg.Wait()
	// Give consumers a final window to drain everything the producers
	// finished appending, then signal them to stop polling an empty queue.
	backoff := iox.Backoff{}
	for atomic.LoadInt64(&dequeueCount) != producers*perProducer {
		backoff.Wait()
	}
	close(done)
	consWg.Wait()

	for i, n := range seen {
		if n != 1 {
			t.Fatalf("value %d observed %d times, want exactly 1", i+1, n)
		}
	}
}

// S5-style RCU stress: random interleaved enqueue/dequeue across many
// goroutines must never lose items relative to what was actually enqueued
// (P3), and must never panic from a use-after-free in the reclamation path
// (P4 — argued, not sanitizer-verified, since Go has no ASan equivalent
// wired into this module).
func TestLQRCUStress(t *testing.T) {
	const goroutines = 16
	const opsPerGoroutine = 5000

	q, err := NewLQ()
	if err != nil {
		t.Fatalf("NewLQ: %v", err)
	}
	defer q.Destroy()

	var enqueued, dequeued int64
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(seed int) {
			defer wg.Done()
			x := uint32(seed*2654435761 + 1)
			for i := 0; i < opsPerGoroutine; i++ {
				x ^= x << 13
				x ^= x >> 17
				x ^= x << 5
				if x%2 == 0 {
					q.Enqueue(uint64(x))
					atomic.AddInt64(&enqueued, 1)
				} else if _, ok := q.Dequeue(); ok {
					atomic.AddInt64(&dequeued, 1)
				}
			}
		}(g + 1)
	}
	wg.Wait()

	for {
		if _, ok := q.Dequeue(); !ok {
			break
		}
		dequeued++
	}

	if dequeued != enqueued {
		t.Fatalf("dequeued %d, enqueued %d: lost or duplicated items", dequeued, enqueued)
	}
}

// P2 (RQ): N producers, M consumers, exact multiset reconstruction.
func TestRQConcurrentExactlyOnce(t *testing.T) {
	const producers = 4
	const perProducer = 20000
	const consumers = 4

	q, err := NewRQ()
	if err != nil {
		t.Fatalf("NewRQ: %v", err)
	}
	defer q.Destroy()

	var seen [producers * perProducer]int32

	var prodWg sync.WaitGroup
	prodWg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer prodWg.Done()
			producer := q.Producer()
			base := uint64(p * perProducer)
			for i := uint64(1); i <= perProducer; i++ {
				producer.Enqueue(base + i)
			}
		}(p)
	}

	var dequeueCount int64
	done := make(chan struct{})
	var consWg sync.WaitGroup
	consWg.Add(consumers)
	for c := 0; c < consumers; c++ {
		go func() {
			defer consWg.Done()
			consumer := q.Consumer()
			for {
				v, ok := consumer.Dequeue()
				if ok {
					atomic.AddInt64(&dequeueCount, 1)
					atomic.AddInt32(&seen[v-1], 1)
					continue
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}

	prodWg.Wait()
	backoff := iox.Backoff{}
	for atomic.LoadInt64(&dequeueCount) != producers*perProducer {
		backoff.Wait()
	}
	close(done)
	consWg.Wait()

	for i, n := range seen {
		if n != 1 {
			t.Fatalf("value %d observed %d times, want exactly 1", i+1, n)
		}
	}
}

// Example_workerPool demonstrates LQ as a strict-FIFO job queue drained by
// a fixed worker pool, mirroring the teacher's worker-pool pattern.
func Example_workerPool() {
	q, err := NewLQ()
	if err != nil {
		panic(err)
	}
	defer q.Destroy()

	const jobs = 100
	var processed int64
	var wg sync.WaitGroup
	wg.Add(4)
	for i := 0; i < 4; i++ {
		go func() {
			defer wg.Done()
			backoff := iox.Backoff{}
			for atomic.LoadInt64(&processed) < jobs {
				if _, ok := q.Dequeue(); ok {
					atomic.AddInt64(&processed, 1)
					backoff.Reset()
					continue
				}
				backoff.Wait()
			}
		}()
	}

	for i := uint64(1); i <= jobs; i++ {
		q.Enqueue(i)
	}
	wg.Wait()
}

// Example_pipeline demonstrates RQ fanning in from multiple producer
// goroutines into a single aggregator.
func Example_pipeline() {
	q, err := NewRQ()
	if err != nil {
		panic(err)
	}
	defer q.Destroy()

	const perProducer = 100
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		go func() {
			defer wg.Done()
			p := q.Producer()
			for j := uint64(1); j <= perProducer; j++ {
				p.Enqueue(j)
			}
		}()
	}

	var received int64
	c := q.Consumer()
	backoff := iox.Backoff{}
	for atomic.LoadInt64(&received) < 3*perProducer {
		if _, ok := c.Dequeue(); ok {
			atomic.AddInt64(&received, 1)
			backoff.Reset()
			continue
		}
		backoff.Wait()
	}
	wg.Wait()
}
