// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import "errors"

// ErrNoFreeSlot is returned by NewLQ/NewRQ when the process-wide queue-id
// registry has no free slot (MAX_SCQ_NUM queues already live). Unlike
// Enqueue/Dequeue's steady-state emptiness, this is a genuine boundary
// failure: there is no retry contract, the caller must destroy an existing
// queue or raise the registry size.
var ErrNoFreeSlot = errors.New("scq: no free queue id slot")

// ErrPoolExhausted is returned by CreateTLSNodePool when the huge-page
// reservation cannot be committed at all (mmap failure). The queue remains
// fully usable; callers should simply not opt into the pool.
var ErrPoolExhausted = errors.New("scq: node pool reservation failed")
