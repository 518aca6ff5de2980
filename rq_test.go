// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import "testing"

// S1 (RQ variant): single-threaded enqueue/dequeue FIFO, empty contract.
func TestRQBasicFIFO(t *testing.T) {
	q, err := NewRQ()
	if err != nil {
		t.Fatalf("NewRQ: %v", err)
	}
	defer q.Destroy()

	q.Enqueue(10)
	q.Enqueue(20)
	q.Enqueue(30)

	want := []uint64{10, 20, 30}
	for i, w := range want {
		got, ok := q.Dequeue()
		if !ok {
			t.Fatalf("dequeue %d: expected ok=true", i)
		}
		if got != w {
			t.Fatalf("dequeue %d: got %d, want %d", i, got, w)
		}
	}

	if _, ok := q.Dequeue(); ok {
		t.Fatalf("dequeue on empty queue: expected ok=false")
	}
}

// P5 (single-consumer restriction): a single producer's items are observed
// in order 1..K by one consumer draining its sub-queue batch by batch.
func TestRQPerProducerFIFO(t *testing.T) {
	q, err := NewRQ()
	if err != nil {
		t.Fatalf("NewRQ: %v", err)
	}
	defer q.Destroy()

	const k = 2000
	p := q.Producer()
	for i := uint64(1); i <= k; i++ {
		p.Enqueue(i)
	}

	c := q.Consumer()
	var got []uint64
	for {
		v, ok := c.Dequeue()
		if !ok {
			break
		}
		got = append(got, v)
	}

	if len(got) != k {
		t.Fatalf("got %d items, want %d", len(got), k)
	}
	for i, v := range got {
		if v != uint64(i+1) {
			t.Fatalf("item %d: got %d, want %d", i, v, i+1)
		}
	}
}

// P6: dequeue on an empty queue reports ok=false without touching datum.
func TestRQEmptyContract(t *testing.T) {
	q, err := NewRQ()
	if err != nil {
		t.Fatalf("NewRQ: %v", err)
	}
	defer q.Destroy()

	if datum, ok := q.Dequeue(); ok || datum != 0 {
		t.Fatalf("Dequeue on fresh queue: got (%d,%v), want (0,false)", datum, ok)
	}
}

// Multiple producers each get their own sub-queue; per-producer order is
// preserved even though global interleaving across producers is not
// guaranteed (spec.md §4.4 FIFO property, documented non-goal).
func TestRQMultipleProducersPreservePerProducerOrder(t *testing.T) {
	q, err := NewRQ()
	if err != nil {
		t.Fatalf("NewRQ: %v", err)
	}
	defer q.Destroy()

	const producers = 4
	const perProducer = 500

	ps := make([]*RQProducer, producers)
	for i := range ps {
		ps[i] = q.Producer()
	}
	for i, p := range ps {
		base := uint64(i) * 1_000_000
		for j := uint64(1); j <= perProducer; j++ {
			p.Enqueue(base + j)
		}
	}

	c := q.Consumer()
	lastSeen := make(map[uint64]uint64) // producer base -> last value seen
	count := 0
	for {
		v, ok := c.Dequeue()
		if !ok {
			break
		}
		base := (v / 1_000_000) * 1_000_000
		offset := v - base
		if prev, seen := lastSeen[base]; seen && offset <= prev {
			t.Fatalf("producer %d: value %d out of order after %d", base, offset, prev)
		}
		lastSeen[base] = offset
		count++
	}

	if count != producers*perProducer {
		t.Fatalf("got %d items total, want %d", count, producers*perProducer)
	}
}

// Default (handle-free) Enqueue/Dequeue surface exercises the shared
// fallback path described in doc.go.
func TestRQDefaultHandleSurface(t *testing.T) {
	q, err := NewRQ()
	if err != nil {
		t.Fatalf("NewRQ: %v", err)
	}
	defer q.Destroy()

	for i := uint64(1); i <= 100; i++ {
		q.Enqueue(i)
	}
	seen := make([]bool, 101)
	for i := 0; i < 100; i++ {
		v, ok := q.Dequeue()
		if !ok {
			t.Fatalf("expected item %d, got empty", i)
		}
		if v < 1 || v > 100 || seen[v] {
			t.Fatalf("unexpected or duplicate value %d", v)
		}
		seen[v] = true
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatalf("expected empty after draining 100 items")
	}
}
