// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import (
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/atomix"
)

// releaseFlag is the top-bit marker embedded in prevVersion (spec.md §3,
// §9 design note 2): it records that this version has itself begun
// retirement, without disturbing the predecessor pointer packed into the
// remaining bits.
const releaseFlag = uint64(1) << 63

// headVersion is one epoch of LQ head traversal (spec.md §3 Head Version).
//
// headNode is written once at construction and never again, so it needs
// no atomic. tailNode is nil while V is current and is set exactly once
// (by adjustHead) when V is superseded; by the time any reader observes it
// non-nil the node it names is already reachable through the ordinary
// node.next chain from headNode, so it is safe to keep as a tagged
// atomix.Uint64 rather than a GC-visible pointer. prevVersion is never
// dereferenced (only its releaseFlag bit is read), so the same tagging is
// safe there too. nextVersion IS dereferenced during the drain walk and
// is the sole way forward through the chain, so it is a real
// sync/atomic.Pointer.
type headVersion struct {
	headNode *node

	_        pad
	tailNode atomix.Uint64 // tagged uintptr(*node); 0 == nil
	_        pad
	prevVersion atomix.Uint64 // releaseFlag | tagged uintptr(*headVersion); 0 == root
	_           pad
	nextVersion atomic.Pointer[headVersion]

	refs     atomix.Int64 // post-retirement reader pins (hand-off target)
	arrivals atomix.Int32 // reaches versionArrivalTarget when all required events have happened
}

// versionArrivalTarget is the arrival count at which a version becomes
// eligible to drain: its own readers must have left, its predecessor must
// have finished draining into it, and it must itself have been superseded
// with nextVersion/tailNode populated (see gate.go's onRefsZero /
// onLinkageReady). A root version has no predecessor, so that arrival is
// pre-loaded as already satisfied.
const versionArrivalTarget = 3

func newRootVersion(head *node) *headVersion {
	v := &headVersion{headNode: head}
	v.arrivals.StoreRelaxed(1) // predecessor-drained is vacuously satisfied
	return v
}

func newChildVersion(head *node, prev *headVersion) *headVersion {
	v := &headVersion{headNode: head}
	v.prevVersion.StoreRelaxed(uint64(uintptr(unsafe.Pointer(prev))))
	return v
}

func (v *headVersion) setTail(last *node) {
	v.tailNode.StoreRelease(uint64(uintptr(unsafe.Pointer(last))))
}

func (v *headVersion) tail() *node {
	addr := v.tailNode.LoadAcquire()
	if addr == 0 {
		return nil
	}
	return (*node)(unsafe.Pointer(uintptr(addr)))
}

// arrive records one of the three events a version waits on before it may
// be drained (its own readers all gone, its predecessor finishing its
// drain, or its own linkage fields being published by its successor's
// creation) and reports whether this was the last one to arrive.
func (v *headVersion) arrive() bool {
	return v.arrivals.AddAcqRel(1) == versionArrivalTarget
}

// setReleaseFlag marks v as having entered retirement, preserving the
// documented tagged-pointer shape of prevVersion even though the actual
// drain sequencing is driven by arrive() above.
func (v *headVersion) setReleaseFlag() {
	for {
		old := v.prevVersion.LoadAcquire()
		if old&releaseFlag != 0 {
			return
		}
		if v.prevVersion.CompareAndSwapAcqRel(old, old|releaseFlag) {
			return
		}
	}
}
