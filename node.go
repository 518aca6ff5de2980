// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// Node states (read by LQ only; RQ nodes are freed directly on pop, and the
// ENQUEUED state newNode gives them is never read).
const (
	nodeFree     = uint32(0)
	nodeEnqueued = uint32(1)
	nodeDequeued = uint32(2)
)

// node is the queue's only heap-allocated unit: a 64-bit opaque datum plus
// a monotonic forward link. next is the sole reachability path to the
// successor once it has been exchanged into a tail pointer but before any
// other field references it, so it is a real, GC-visible atomic pointer
// rather than one of the package's tagged-uintptr atomix fields.
type node struct {
	next   atomic.Pointer[node]
	datum  uint64
	state  atomix.Uint32 // LQ only
	pooled bool
	_      pad // cache-line isolation between adjacent pool cells
}

// newNode allocates a node carrying d, from pool p if non-nil and able to
// serve the request, the general allocator otherwise (spec.md §4.2
// fallback).
func newNode(p *pool, d uint64) *node {
	if p != nil {
		if n := p.allocate(); n != nil {
			n.next.Store(nil)
			n.datum = d
			n.state.StoreRelaxed(nodeEnqueued)
			return n
		}
	}
	n := &node{datum: d}
	n.state.StoreRelaxed(nodeEnqueued)
	return n
}

// freeNode recycles a pool-owned cell or drops the reference for the
// garbage collector to reclaim, per spec.md §4.2 Free. Recycling only
// requires tagging the cell FREE (spec.md §4.2: "state-tagged slabs permit
// reuse without an explicit free list"); it does not require the pool that
// originally handed the cell out, since reclamation may run on a VSG
// drain callback far from the allocating goroutine.
func freeNode(p *pool, n *node) {
	if n.pooled {
		n.state.StoreRelease(nodeFree)
		return
	}
	// General-allocator node: nothing to do, GC reclaims it once
	// unreferenced.
	_ = p
}
