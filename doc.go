// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scq provides multi-producer/multi-consumer in-memory queues for
// 64-bit opaque data (a scalar or a pointer value stored as uintptr).
//
// Two coexisting engines share the same [Queue] surface:
//
//   - [LQ]: Linearizable Queue. Strict global FIFO over a lock-free
//     singly-linked list, with a versioned, RCU-style reclaimed head.
//   - [RQ]: Relaxed Queue. Per-producer sub-lists harvested in bulk by
//     consumers. Not linearizable, but removes single-tail contention.
//
// # Quick Start
//
//	q, err := scq.NewLQ()
//	if err != nil {
//	    // MAX_SCQ_NUM queues already live
//	}
//	defer q.Destroy()
//
//	q.Enqueue(42)
//
//	v, ok := q.Dequeue()
//	if !ok {
//	    // queue was empty
//	}
//
// RQ is constructed and used identically:
//
//	q, err := scq.NewRQ()
//	q.Enqueue(42)
//	v, ok := q.Dequeue()
//
// # Engine Selection
//
//	LQ: strict FIFO across all producers        RQ: per-producer FIFO only
//	    single shared tail, one RMW/enqueue          per-producer tail, no cross-producer contention
//	    RCU head walk + VSG reclamation               batch steal, two RMWs/dequeue-batch
//	    higher dequeue cost under many producers     scales better with producer count
//	    use when global ordering matters             use when throughput matters more than order
//
// # Per-goroutine Handles
//
// Go has no native thread-local storage, unlike the pthread-TLS model this
// library's per-thread pool and sub-queue language describes. Where the
// design calls for thread-local state, this package exposes it as an
// explicit handle the calling goroutine holds instead of library-managed
// goroutine-ID lookup:
//
//	p := rq.Producer()   // keep p in the one goroutine that enqueues
//	p.Enqueue(datum)
//
//	c := rq.Consumer()   // keep c in the one goroutine that dequeues
//	v, ok := c.Dequeue()
//
//	h, err := lq.CreateTLSNodePool()
//	defer h.Destroy()
//	lq.EnqueueWithPool(h, datum)
//
// The plain [RQ.Enqueue]/[RQ.Dequeue]/[LQ.Enqueue]/[LQ.Dequeue] methods
// remain available directly for callers that do not need the per-goroutine
// fast path. The RQ ones share one internal default producer and one
// internal default consumer rather than requiring every caller to register
// a handle; the LQ ones need no handle and use the general allocator.
//
// # Common Patterns
//
// Worker Pool (LQ, strict FIFO job order):
//
//	q, _ := scq.NewLQ()
//	defer q.Destroy()
//
//	for range numWorkers {
//	    go func() {
//	        backoff := iox.Backoff{}
//	        for {
//	            job, ok := q.Dequeue()
//	            if !ok {
//	                backoff.Wait()
//	                continue
//	            }
//	            backoff.Reset()
//	            run(job)
//	        }
//	    }()
//	}
//
//	func Submit(job uint64) { q.Enqueue(job) }
//
// Fan-in Pipeline (RQ, per-producer order only):
//
//	q, _ := scq.NewRQ()
//	defer q.Destroy()
//
//	for sensor := range slices.Values(sensors) {
//	    go func(s Sensor) {
//	        p := q.Producer()
//	        for ev := range s.Events() {
//	            p.Enqueue(uint64(ev))
//	        }
//	    }(sensor)
//	}
//
//	go func() {
//	    c := q.Consumer()
//	    backoff := iox.Backoff{}
//	    for {
//	        v, ok := c.Dequeue()
//	        if !ok {
//	            backoff.Wait()
//	            continue
//	        }
//	        backoff.Reset()
//	        aggregate(v)
//	    }
//	}()
//
// # Node Pool
//
// [LQ.CreateTLSNodePool] opts the calling goroutine into a huge-page-backed
// cell arena that bypasses the general allocator on the enqueue fast path
// (Linux only; other platforms report the reservation immediately
// exhausted and fall through to the general allocator transparently, so
// the same code runs correctly, just without the fast path, everywhere
// else). Every handle must be explicitly [NodePoolHandle.Destroy]ed by the
// goroutine that created it once that goroutine stops using the queue —
// destroying the queue does not free another goroutine's pool state — but
// only after [LQ.Destroy] has already run: the queue's own teardown may
// still dereference a pool-owned residual node, so destroying a pool
// handle first would unmap memory the queue has not finished walking.
//
// # Capacity and Length
//
// There is no bounded capacity, no backpressure, and no blocking wait:
// enqueue always succeeds (barring an allocator failure, which this
// package lets propagate as a panic exactly as any other Go allocation
// failure would) and dequeue never blocks, reporting emptiness
// immediately. A queue holds at most MAX_SCQ_NUM = 1024 concurrently live
// instances (process-wide) and at most MAX_THREAD_NUM = 1024 live RQ
// sub-queues per instance.
//
// Length is intentionally not provided: an accurate count would require
// expensive cross-core synchronization on every operation, the same
// reasoning that keeps it out of this package's teacher lineage. Track
// counts in application logic when needed.
//
// # Thread Safety
//
// Enqueue is safe from any number of concurrent goroutines on both engines.
// Dequeue is safe from any number of concurrent goroutines on both engines
// too, but RQ's per-goroutine [RQConsumer] and LQ's per-goroutine
// [NodePoolHandle] must each be used by only the one goroutine that
// created them — they carry no internal synchronization of their own by
// design, the same way the teacher's per-goroutine constructs are
// documented as single-owner.
//
// # Memory Ordering
//
// The tail exchange on enqueue is an acq-rel read-modify-write; the `next`
// link that follows it is a release-store paired with the consumer's
// acquire-load of `next`. LQ's node state transition (ENQUEUED→DEQUEUED) is
// an acq-rel compare-and-swap; the payload read happens only after a
// successful transition. The versioned-snapshot gate's compare-publish is
// an acq-rel compare-and-swap; its one-time initial publish is a relaxed
// store that reaches readers through the release store of the head-init
// flag that follows it, which Dequeue loads with acquire before pinning.
// The gate's acquire loads the published word with acquire. The tail
// exchange and next store on the enqueue paths carry a same-line comment
// naming the ordering they assume.
//
// # Race Detection
//
// Go's race detector is not designed for lock-free algorithm verification.
// It tracks explicit synchronization primitives (mutex, channels,
// WaitGroup) but cannot observe happens-before relationships established
// purely through atomic acquire-release semantics on separate variables —
// this package's VSG and node-state transitions are exactly that. Stress
// tests exercising the true concurrent paths are excluded from race runs
// via //go:build !race; correctness there is argued from the memory
// ordering above, not from the race detector.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives with
// explicit memory ordering, [code.hybscloud.com/spin] for bounded
// busy-spin backoff, and [golang.org/x/sys/unix] for the optional
// huge-page node pool's mmap/madvise calls on Linux. Its test suite uses
// [code.hybscloud.com/iox]'s Backoff helper for polling loops, the same way
// this package's teacher lineage reserves iox for test code rather than
// the production engine paths.
package scq
