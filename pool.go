// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// hugePageSize and hugePageCount match spec.md §6's compile-time constants:
// a pool's reservation is hugePageCount*hugePageSize bytes, committed lazily
// one huge page at a time.
const (
	hugePageSize  = 2 << 20 // 2 MiB
	hugePageCount = 512
)

// pageCommitter is the OS-specific half of the pool (pool_linux.go reserves
// and commits real huge pages via golang.org/x/sys/unix; pool_fallback.go
// always reports the reservation exhausted so callers fall through to the
// general allocator on non-Linux hosts).
type pageCommitter interface {
	// commitPage returns a slice over the node cells of huge page idx,
	// committing physical memory for it on first use. ok is false once the
	// whole reservation has been exhausted.
	commitPage(idx int) (cells []node, ok bool)
	// release tears down the whole reservation.
	release()
}

// pool is the per-thread, per-queue node-cell arena of spec.md §4.2. It is
// created by CreateTLSNodePool and is never shared across goroutines: every
// field below is touched only by its owning goroutine except state, which
// readers across the process may inspect while scanning for a recyclable
// cell.
type pool struct {
	committer pageCommitter

	physHugePages atomix.Uint32 // pages committed so far
	curPageIdx    int
	curNodeIdx    int // next cell to hand out within curPageIdx
	nodesPerPage  int

	pages [][]node // committed pages, indexed by huge page idx
}

func newPool(committer pageCommitter) *pool {
	return &pool{
		committer:    committer,
		nodesPerPage: hugePageSize / int(unsafe.Sizeof(node{})),
	}
}

// allocate hands out the next pool cell, or nil if the pool is exhausted
// and the caller must fall back to the general allocator (spec.md §4.2
// Allocate).
func (p *pool) allocate() *node {
	if p.curPageIdx < len(p.pages) && p.curNodeIdx < p.nodesPerPage {
		n := &p.pages[p.curPageIdx][p.curNodeIdx]
		p.curNodeIdx++
		n.pooled = true
		return n
	}

	// Current page exhausted: scan already-committed pages for one whose
	// last cell has cycled back to FREE — an empirical signal the page has
	// been fully recycled at least once.
	for idx, cells := range p.pages {
		if cells[p.nodesPerPage-1].state.LoadAcquire() == nodeFree {
			p.curPageIdx = idx
			// Same preserved off-by-one as the freshly-committed-page path
			// below: cell 0 is skipped on every (re)selection of a page.
			n := &cells[1]
			p.curNodeIdx = 2
			n.pooled = true
			return n
		}
	}

	// No recyclable page: commit the next uncommitted one.
	nextIdx := len(p.pages)
	if nextIdx >= hugePageCount {
		return nil // reservation fully committed and none recyclable
	}
	cells, ok := p.committer.commitPage(nextIdx)
	if !ok {
		return nil
	}
	p.pages = append(p.pages, cells)
	p.physHugePages.AddAcqRel(1)
	p.curPageIdx = nextIdx
	// spec.md §9 design note 2: the handed-out cell is 1, not 0, when
	// switching to a newly committed page — preserved rather than fixed,
	// per the documented open question. This skips cells[0] of every
	// freshly committed page for the lifetime of the pool.
	n := &cells[1]
	p.curNodeIdx = 2
	n.pooled = true
	return n
}

// destroy releases the whole reservation; called from NodePoolHandle.Destroy.
// Teardown obligation stays on the opting-in goroutine per spec.md §5
// Thread-local state.
func (p *pool) destroy() {
	p.committer.release()
	p.pages = nil
}
