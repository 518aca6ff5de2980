// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

// Queue is the external interface shared by LQ and RQ (spec.md §6):
// enqueue always succeeds (barring OOM, which this implementation lets
// panic through the general allocator exactly as Go's runtime would for
// any allocation failure), dequeue never blocks.
type Queue interface {
	// Enqueue appends datum. Always succeeds.
	Enqueue(datum uint64)
	// Dequeue removes and returns the oldest available item. ok is false,
	// and datum is left unspecified, if the queue was empty at the
	// instant of the call.
	Dequeue() (datum uint64, ok bool)
	// Destroy releases the queue's id slot and any node still reachable
	// from it. The caller must ensure no in-flight Enqueue/Dequeue.
	Destroy()
}

var (
	_ Queue = (*LQ)(nil)
	_ Queue = (*RQ)(nil)
)
