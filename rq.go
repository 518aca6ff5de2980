// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// maxThreadNum bounds the number of live sub-queues per RQ (spec.md §3,
// MAX_THREAD_NUM = 1024).
const maxThreadNum = 1024

// subQueue is one producer's private append-only list (spec.md §3 RQ
// Queue / §4.4). sentinel guarantees tail's exchange target is never nil;
// it is never pool-allocated and never carries a meaningful state.
type subQueue struct {
	_        pad
	sentinel node
	_        pad
	tail     atomic.Pointer[node] // initially &sentinel
}

// RQ is the Relaxed Queue of spec.md §4.4: per-producer sub-lists,
// harvested in bulk by consumers round-robin. Not linearizable, but
// removes single-tail contention across producers.
type RQ struct {
	_          pad
	subQueues  [maxThreadNum]atomic.Pointer[subQueue]
	_          pad
	regLock    atomix.Bool // spin-exchange guarding subQueues registration only
	threadNum  atomix.Uint32
	id         int

	defaultProd   atomic.Pointer[RQProducer]
	defaultCons   *RQConsumer
	defaultConsMu atomix.Bool
}

// NewRQ constructs a Relaxed Queue, acquiring a process-wide queue id
// (spec.md §4.5 Init).
func NewRQ() (*RQ, error) {
	id, ok := globalIDs.acquire()
	if !ok {
		return nil, ErrNoFreeSlot
	}
	return &RQ{id: id}, nil
}

// RQProducer is the explicit per-goroutine substitute for spec.md §5's
// thread-local sub-queue pointer (Go has no native TLS). Enqueue on one
// handle from several goroutines is safe (RQ.Enqueue shares its default
// producer that way), but those goroutines then contend on one tail.
type RQProducer struct {
	sq *subQueue
}

// Producer registers a new sub-queue (spec.md §4.4 check_and_init_tls) and
// returns a handle the calling goroutine should keep for the lifetime of
// its enqueues. Exceeding maxThreadNum live producers is a resource
// exhaustion analogous to the global ID table's (spec.md §7 "Programming
// errors"/capacity-table-full): it panics rather than silently dropping
// registration, since there is no documented recovery path for it in
// spec.md §6.
func (q *RQ) Producer() *RQProducer {
	sq := &subQueue{}
	sq.tail.Store(&sq.sentinel)

	sw := spin.Wait{}
	for !q.regLock.CompareAndSwapAcqRel(false, true) {
		sw.Once()
	}
	idx := int(q.threadNum.LoadRelaxed())
	if idx >= maxThreadNum {
		q.regLock.StoreRelease(false)
		panic("scq: RQ sub-queue table exhausted (MAX_THREAD_NUM reached)")
	}
	q.subQueues[idx].Store(sq)
	q.threadNum.AddAcqRel(1)
	q.regLock.StoreRelease(false)

	return &RQProducer{sq: sq}
}

// Enqueue appends datum to p's sub-queue (spec.md §4.4 Enqueue). Exactly
// one atomic cross-thread hand-off per call.
func (p *RQProducer) Enqueue(datum uint64) {
	n := newNode(nil, datum)
	prevTail := p.sq.tail.Swap(n) // acq-rel RMW
	prevTail.next.Store(n)        // release-store
}

// RQConsumer carries the per-goroutine drained-list cursor and round-robin
// index of spec.md §4.4 Dequeue. Not safe to share across goroutines.
type RQConsumer struct {
	q           *RQ
	drainedHead *node
	drainedTail *node
	lastIdx     int
}

// Consumer returns a fresh consumer handle. Any number of consumers may
// steal from the same RQ concurrently; no registration is required.
func (q *RQ) Consumer() *RQConsumer {
	return &RQConsumer{q: q, lastIdx: -1}
}

// Dequeue pops one item, preferring the calling consumer's already-drained
// batch before stealing a fresh one round-robin across sub-queues (spec.md
// §4.4 Dequeue).
func (c *RQConsumer) Dequeue() (datum uint64, ok bool) {
	if c.drainedHead != nil {
		return c.pop(), true
	}

	n := int(c.q.threadNum.LoadAcquire())
	if n == 0 {
		return 0, false
	}
	for i := 0; i < n; i++ {
		idx := (c.lastIdx + 1 + i) % n
		sq := c.q.subQueues[idx].Load()
		if sq == nil {
			continue
		}
		head := sq.sentinel.next.Swap(nil) // detach: atomic exchange
		if head == nil {
			continue
		}
		tail := sq.tail.Swap(&sq.sentinel) // rebase producer's tail
		c.drainedHead, c.drainedTail = head, tail
		c.lastIdx = idx
		return c.pop(), true
	}
	return 0, false
}

// pop removes and returns the head of c's drained list, busy-waiting on a
// pending next store if the detach raced ahead of a concurrent enqueue's
// link (spec.md §4.4 "Why two atomics per dequeue batch").
func (c *RQConsumer) pop() uint64 {
	n := c.drainedHead
	datum := n.datum
	if n == c.drainedTail {
		c.drainedHead, c.drainedTail = nil, nil
	} else {
		sw := spin.Wait{}
		var next *node
		for {
			next = n.next.Load()
			if next != nil {
				break
			}
			sw.Once()
		}
		c.drainedHead = next
	}
	freeNode(nil, n) // RQ never pool-allocates; general allocator, GC reclaims
	return datum
}

// Enqueue appends datum via this queue's default producer handle,
// lazily created on first use (spec.md §6's plain enqueue(q, d) surface).
// Prefer Producer() for the scalable per-goroutine fast path; this shares
// one sub-queue across every caller that doesn't opt in.
func (q *RQ) Enqueue(datum uint64) {
	q.defaultProducer().Enqueue(datum)
}

func (q *RQ) defaultProducer() *RQProducer {
	if p := q.defaultProd.Load(); p != nil {
		return p
	}
	p := q.Producer()
	if !q.defaultProd.CompareAndSwap(nil, p) {
		return q.defaultProd.Load()
	}
	return p
}

// Dequeue pops via this queue's default consumer handle (spec.md §6's
// plain dequeue(q) surface). Unlike the scalable Consumer() handle, calls
// through this path are serialized against each other (a consumer's
// drained-list cursor is not itself concurrency-safe); Consumer() is the
// accelerant for callers that want lock-free multi-consumer stealing.
func (q *RQ) Dequeue() (datum uint64, ok bool) {
	sw := spin.Wait{}
	for !q.defaultConsMu.CompareAndSwapAcqRel(false, true) {
		sw.Once()
	}
	defer q.defaultConsMu.StoreRelease(false)

	if q.defaultCons == nil {
		q.defaultCons = q.Consumer()
	}
	return q.defaultCons.Dequeue()
}

// Destroy releases q's queue id and frees every registered sub-queue's
// remaining shared list plus the batch the default consumer (RQ.Dequeue)
// drained but never finished popping (spec.md §4.5 Destroy). Batches held
// by RQConsumer handles from Consumer() are not visited. The caller must
// ensure no goroutine still holds an in-flight Enqueue/Dequeue.
func (q *RQ) Destroy() {
	n := int(q.threadNum.LoadAcquire())
	for i := 0; i < n; i++ {
		sq := q.subQueues[i].Load()
		if sq == nil {
			continue
		}
		for cur := sq.sentinel.next.Load(); cur != nil; {
			next := cur.next.Load()
			freeNode(nil, cur)
			cur = next
		}
	}
	if c := q.defaultCons; c != nil {
		for cur := c.drainedHead; cur != nil; {
			next := cur.next.Load()
			freeNode(nil, cur)
			cur = next
		}
	}
	globalIDs.release(q.id)
}
