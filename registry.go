// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// maxSCQNum bounds the number of LQ/RQ instances alive at once. Each
// instance holds its slot from construction until Destroy; per-goroutine
// pool and sub-queue state lives on explicit handles, not in tables indexed
// by the slot.
const maxSCQNum = 1024

// idRegistry is a process-wide slot allocator shared by LQ and RQ. A
// single spin-exchange guards the whole O(maxSCQNum) scan; acquire/release
// only run at queue init/destroy, never on the hot path.
type idRegistry struct {
	_    pad
	lock atomix.Bool
	_    pad
	used [maxSCQNum]bool
}

var globalIDs idRegistry

// acquire claims the lowest free slot. Reports ok=false when the table is
// full (ErrNoFreeSlot at the call site).
func (r *idRegistry) acquire() (id int, ok bool) {
	sw := spin.Wait{}
	for !r.lock.CompareAndSwapAcqRel(false, true) {
		sw.Once()
	}
	defer r.lock.StoreRelease(false)

	for i, inUse := range r.used {
		if !inUse {
			r.used[i] = true
			return i, true
		}
	}
	return 0, false
}

// release frees a slot acquired via acquire. Releasing an unacquired or
// already-released slot is a programming error (undefined behaviour by
// contract, per spec.md §7).
func (r *idRegistry) release(id int) {
	sw := spin.Wait{}
	for !r.lock.CompareAndSwapAcqRel(false, true) {
		sw.Once()
	}
	r.used[id] = false
	r.lock.StoreRelease(false)
}
