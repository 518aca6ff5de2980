// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// LQ is the Linearizable Queue of spec.md §4.3: a lock-free singly-linked
// list with a strict global FIFO order, reclaimed through the versioned-
// snapshot gate.
type LQ struct {
	_    pad
	tail atomic.Pointer[node] // nil iff empty since construction
	_    pad
	gate *gate
	_        pad
	headInit atomix.Bool // set after the first enqueue publishes the initial version

	id int
}

// NewLQ constructs a Linearizable Queue, acquiring a process-wide queue id
// (spec.md §4.5 Init). ErrNoFreeSlot is returned if MAX_SCQ_NUM instances
// are already live.
func NewLQ() (*LQ, error) {
	id, ok := globalIDs.acquire()
	if !ok {
		return nil, ErrNoFreeSlot
	}
	q := &LQ{id: id}
	q.gate = newGate(func(head, tailNode *node) {
		q.drainRange(head, tailNode)
	})
	return q, nil
}

// drainRange frees every node from head through tail inclusive, in
// insertion order, calling the node freer exactly once per node (spec.md
// §4.3 invariant).
func (q *LQ) drainRange(head, tail *node) {
	n := head
	for n != nil {
		next := n.next.Load()
		freeNode(nil, n) // pool-owned cells (EnqueueWithPool) are recognised by node.pooled in freeNode
		if n == tail {
			return
		}
		n = next
	}
}

// Enqueue appends datum to the tail of the queue (spec.md §4.3 Enqueue).
// Exactly one atomic read-modify-write per call.
func (q *LQ) Enqueue(datum uint64) {
	n := newNode(nil, datum)
	prevTail := q.tail.Swap(n) // acq-rel RMW
	if prevTail == nil {
		v := newRootVersion(n)
		q.gate.publish(v)
		q.headInit.StoreRelease(true)
		return
	}
	prevTail.next.Store(n) // release-store, paired with dequeue's acquire-load of next
}

// Dequeue removes and returns the oldest item, or reports ok=false if the
// queue is currently empty (spec.md §4.3 Dequeue). datum is only
// meaningful when ok is true (spec.md §9 Open Question 3, resolved).
func (q *LQ) Dequeue() (datum uint64, ok bool) {
	if !q.headInit.LoadAcquire() {
		return 0, false
	}

retry:
	v := q.gate.acquire()

	var found *node
	cur := v.headNode
	for cur != nil {
		if v.tail() != nil {
			// V has been superseded mid-walk; restart on a fresh version.
			q.gate.release(v)
			goto retry
		}
		if cur.state.CompareAndSwapAcqRel(nodeEnqueued, nodeDequeued) {
			found = cur
			break
		}
		cur = cur.next.Load()
	}

	if found == nil {
		q.gate.release(v)
		return 0, false
	}

	datum = found.datum
	if next := found.next.Load(); next != nil {
		q.adjustHead(v, next, found)
	}
	q.gate.release(v)
	return datum, true
}

// adjustHead installs a new head version covering [newHead, ...) and
// retires vPrev's range [vPrev.headNode, lastOfPrevRange] once every
// pinning reader has released it (spec.md §4.3 adjust_head).
func (q *LQ) adjustHead(vPrev *headVersion, newHead, lastOfPrevRange *node) {
	next := newChildVersion(newHead, vPrev)
	if !q.gate.comparePublish(vPrev, next) {
		return // lost the race: another dequeuer already advanced the head
	}
	vPrev.nextVersion.Store(next)      // release-store: chain linkage
	vPrev.setTail(lastOfPrevRange)      // release-store, after linkage above
	q.gate.onLinkageReady(vPrev)
}

// CreateTLSNodePool opts the calling goroutine into the huge-page node
// pool for this queue (spec.md §6, LQ only). Returns a handle the goroutine
// must Destroy itself once it stops using the queue; teardown is never
// implicit (spec.md §5 Thread-local state). The handle must be Destroyed
// only after q.Destroy has run (see (*LQ).Destroy): the queue may still
// reference a pool-owned cell of its own — the dequeued node left at the
// head of the current version, which doubles as the tail's attachment
// point — right up until the queue itself is torn down.
func (q *LQ) CreateTLSNodePool() (*NodePoolHandle, error) {
	committer, ok := newPageCommitter()
	if !ok {
		return nil, ErrPoolExhausted
	}
	return &NodePoolHandle{pool: newPool(committer)}, nil
}

// NodePoolHandle is the explicit per-goroutine substitute for the spec's
// thread-local pool pointer (spec.md §5 Thread-local state; Go has no
// native TLS). It is not safe to share across goroutines.
type NodePoolHandle struct {
	pool *pool
}

// Destroy releases the handle's huge-page reservation (spec.md §4.2 Free /
// §6 destroy_tls_node_pool). Must be called after the owning queue's
// Destroy has already run: the queue's own Destroy may still dereference a
// pool-owned residual node (see (*LQ).Destroy), and this unmaps the
// backing region outright rather than merely marking cells free.
func (h *NodePoolHandle) Destroy() {
	h.pool.destroy()
}

// EnqueueWithPool is identical to (*LQ).Enqueue except the node is drawn
// from h's pool when possible, bypassing the general allocator on the hot
// path (spec.md §4.2 rationale).
func (q *LQ) EnqueueWithPool(h *NodePoolHandle, datum uint64) {
	n := newNode(h.pool, datum)
	prevTail := q.tail.Swap(n)
	if prevTail == nil {
		v := newRootVersion(n)
		q.gate.publish(v)
		q.headInit.StoreRelease(true)
		return
	}
	prevTail.next.Store(n)
}

// Destroy releases q's queue id and drains any remaining nodes reachable
// from the currently published version (spec.md §4.5 Destroy). The caller
// must ensure no goroutine still holds an in-flight Enqueue/Dequeue (spec.md
// §9 Open Question 4: this implementation does not add an internal
// quiescence barrier beyond that contract) and must call this before
// destroying any NodePoolHandle created from q — this drain may still walk
// into a pool-owned cell (the dequeued node left as the head/tail
// attachment point), which must still be mapped when it runs.
func (q *LQ) Destroy() {
	if v := q.gate.mirror.Load(); v != nil {
		q.drainRange(v.headNode, q.tail.Load())
	}
	globalIDs.release(q.id)
}
