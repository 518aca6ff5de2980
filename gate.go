// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import (
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// gate is the versioned-snapshot gate (VSG, spec.md §4.1): it publishes a
// single current *headVersion and lets any number of readers pin it
// without blocking the publisher.
//
// word packs (lo=reader count of the published version, hi=uintptr of the
// published version) into one atomix.Uint128, the same 128-bit packing
// idiom the teacher's mpmc_128 slots use for cycle|value — repurposed here
// for pointer|refcount so that a reader's pin and a publisher's swap can
// never race past each other. Because hi stores a raw uintptr, it is
// invisible to the garbage collector by construction; mirror keeps the
// currently-published version reachable through an ordinary pointer for
// that reason alone and is never consulted for synchronization decisions.
type gate struct {
	_      pad
	word   atomix.Uint128 // lo = refcount, hi = uintptr(*headVersion)
	_      pad
	mirror atomic.Pointer[headVersion]
	_      pad
	drain  func(head, tail *node) // configured node-free callback
}

func newGate(drain func(head, tail *node)) *gate {
	return &gate{drain: drain}
}

func addrOf(v *headVersion) uint64 {
	return uint64(uintptr(unsafe.Pointer(v)))
}

func versionFromAddr(addr uint64) *headVersion {
	return (*headVersion)(unsafe.Pointer(uintptr(addr)))
}

// publish unconditionally installs v as current. Used exactly once, for
// the very first enqueue's initial version (spec.md §4.3), so there is no
// predecessor to retire.
func (g *gate) publish(v *headVersion) {
	g.word.StoreRelaxed(1, addrOf(v)) // lo=1: the publication's own bias pin
	g.mirror.Store(v)
}

// comparePublish installs next only if old is still current (spec.md
// §4.1 compare_publish). On success it hands off old's outstanding reader
// count from the gate word to old.refs and, if that drops to zero,
// triggers reclamation.
func (g *gate) comparePublish(old, next *headVersion) bool {
	oldAddr, nextAddr := addrOf(old), addrOf(next)
	lo, hi := g.word.LoadAcquire()
	if hi != oldAddr {
		return false
	}
	if !g.word.CompareAndSwapAcqRel(lo, hi, 1, nextAddr) {
		return false
	}
	g.mirror.Store(next)
	if old.refs.AddAcqRel(int64(lo)-1) == 0 {
		g.onRefsZero(old)
	}
	return true
}

// acquire pins the current version and returns it. Its CAS retries while
// other readers or a publisher change the gate word concurrently; it holds
// no lock.
func (g *gate) acquire() *headVersion {
	sw := spin.Wait{}
	for {
		lo, hi := g.word.LoadAcquire()
		if g.word.CompareAndSwapAcqRel(lo, hi, lo+1, hi) {
			return versionFromAddr(hi)
		}
		sw.Once()
	}
}

// release drops a reader's pin on v, taken from either acquire() (v still
// current) or from a stale pin surviving a publish (v already retired).
func (g *gate) release(v *headVersion) {
	vAddr := addrOf(v)
	sw := spin.Wait{}
	for {
		lo, hi := g.word.LoadAcquire()
		if hi != vAddr {
			break
		}
		if g.word.CompareAndSwapAcqRel(lo, hi, lo-1, hi) {
			return
		}
		sw.Once()
	}
	if v.refs.AddAcqRel(-1) == 0 {
		g.onRefsZero(v)
	}
}

// onRefsZero records the "v's own readers are all gone" arrival (spec.md
// §4.3 scq_head_version_free). It may fire synchronously out of
// comparePublish's hand-off, or later out of a lingering reader's release,
// and either can race arbitrarily far ahead of onLinkageReady below — the
// arrival rendezvous in headVersion.arrive is what makes the order safe.
func (g *gate) onRefsZero(v *headVersion) {
	v.setReleaseFlag()
	if v.arrive() {
		g.drainChain(v)
	}
}

// onLinkageReady records the "v has been superseded and its
// nextVersion/tailNode are both published" arrival. The caller (adjustHead
// in lq.go) must invoke this only after both of those stores have
// completed, since a version may only be drained once its own range is
// fully delimited.
func (g *gate) onLinkageReady(v *headVersion) {
	if v.arrive() {
		g.drainChain(v)
	}
}

// drainChain runs the chained head-version lifetime protocol (spec.md §4.3
// scq_head_version_free): v is now fully retired (readers gone, linkage
// published, predecessor drained or root). Free v's own range and continue
// forward through the chain into any successor that has already
// accumulated its other two arrivals.
func (g *gate) drainChain(v *headVersion) {
	for v != nil {
		g.drain(v.headNode, v.tail())
		next := v.nextVersion.Load()
		v = nil
		if next != nil && next.arrive() {
			v = next
		}
	}
}
