// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import "testing"

func TestIDRegistryAcquireRelease(t *testing.T) {
	var r idRegistry

	id1, ok := r.acquire()
	if !ok || id1 != 0 {
		t.Fatalf("first acquire: got (%d,%v), want (0,true)", id1, ok)
	}
	id2, ok := r.acquire()
	if !ok || id2 != 1 {
		t.Fatalf("second acquire: got (%d,%v), want (1,true)", id2, ok)
	}

	r.release(id1)
	id3, ok := r.acquire()
	if !ok || id3 != 0 {
		t.Fatalf("acquire after release: got (%d,%v), want (0,true) (lowest free slot)", id3, ok)
	}

	r.release(id2)
	r.release(id3)
}

func TestIDRegistryExhaustion(t *testing.T) {
	var r idRegistry
	for i := 0; i < maxSCQNum; i++ {
		if _, ok := r.acquire(); !ok {
			t.Fatalf("acquire %d: expected ok=true before exhaustion", i)
		}
	}
	if _, ok := r.acquire(); ok {
		t.Fatalf("acquire past MAX_SCQ_NUM: expected ok=false")
	}
}

func TestNewLQReportsExhaustion(t *testing.T) {
	saved := globalIDs
	defer func() { globalIDs = saved }()

	for i := range globalIDs.used {
		globalIDs.used[i] = true
	}

	if _, err := NewLQ(); err != ErrNoFreeSlot {
		t.Fatalf("NewLQ with exhausted registry: got err=%v, want ErrNoFreeSlot", err)
	}
}
