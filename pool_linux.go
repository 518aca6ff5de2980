// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package scq

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmapCommitter reserves hugePageCount*hugePageSize bytes of anonymous
// memory up front (spec.md §4.2 "virtually contiguous region... lazy
// physical commit") and hints transparent-huge-page backing for the whole
// region with one madvise(MADV_HUGEPAGE) at reservation time. The reservation itself
// never touches physical memory until a page is first sliced out of it, so
// "commit" here means "hand a Go slice view over that range", not an
// explicit page-in syscall.
type mmapCommitter struct {
	region []byte
}

// newPageCommitter reserves the huge-page region. ok is false only when the
// Mmap call itself fails (e.g. address-space exhaustion) — a genuine setup
// failure CreateTLSNodePool reports as ErrPoolExhausted, distinct from the
// by-design "no huge pages on this platform" fallback of pool_fallback.go.
func newPageCommitter() (c pageCommitter, ok bool) {
	region, err := unix.Mmap(-1, 0, hugePageCount*hugePageSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return &exhaustedCommitter{}, false
	}
	_ = unix.Madvise(region, unix.MADV_HUGEPAGE) // best-effort hint; ignore failure
	return &mmapCommitter{region: region}, true
}

func (c *mmapCommitter) commitPage(idx int) ([]node, bool) {
	if idx < 0 || idx >= hugePageCount {
		return nil, false
	}
	pageBytes := c.region[idx*hugePageSize : (idx+1)*hugePageSize]
	nodesPerPage := hugePageSize / int(unsafe.Sizeof(node{}))
	cells := unsafe.Slice((*node)(unsafe.Pointer(&pageBytes[0])), nodesPerPage)
	return cells, true
}

func (c *mmapCommitter) release() {
	if c.region != nil {
		_ = unix.Munmap(c.region)
		c.region = nil
	}
}

// exhaustedCommitter is returned, with ok=false, when the initial Mmap
// reservation itself fails (e.g. address-space exhaustion). CreateTLSNodePool
// discards it and reports ErrPoolExhausted, so no pool is built over it.
type exhaustedCommitter struct{}

func (*exhaustedCommitter) commitPage(int) ([]node, bool) { return nil, false }
func (*exhaustedCommitter) release()                      {}
