// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package scq

// newPageCommitter on non-Linux hosts never commits a huge page: the pool
// always reports its reservation exhausted and every allocate() falls
// through to the general allocator (spec.md §4.2 fallback), since
// transparent huge pages and MADV_HUGEPAGE are Linux-specific. ok is true
// because this is the by-design fallback, not a setup failure — callers on
// these platforms keep working, just without the pool fast path.
func newPageCommitter() (c pageCommitter, ok bool) {
	return &exhaustedCommitter{}, true
}

type exhaustedCommitter struct{}

func (*exhaustedCommitter) commitPage(int) ([]node, bool) { return nil, false }
func (*exhaustedCommitter) release()                      {}
