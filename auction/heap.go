package auction

import (
	"container/heap"

	"github.com/holiman/uint256"
)

// bidOrder is the eviction heap's element: enough of a bid's identity to
// order candidates without touching the BidStore. Ordering (smallest on
// top): max_price ascending, amount ascending, id ascending — a direct port
// of the original canister's BidOrder ordering.
type bidOrder struct {
	id       uint64
	maxPrice *uint256.Int
	amount   *uint256.Int
}

func less(a, b bidOrder) bool {
	if c := a.maxPrice.Cmp(b.maxPrice); c != 0 {
		return c < 0
	}
	if c := a.amount.Cmp(b.amount); c != 0 {
		return c < 0
	}
	return a.id < b.id
}

// evictionHeap is a min-heap of active bids (C3). On submit the new bid is
// always pushed; on outbid the winner is popped. The heap is never
// proactively purged of stale entries — eviction always re-reads
// authoritative state from the BidStore before acting.
type evictionHeap []bidOrder

func (h evictionHeap) Len() int            { return len(h) }
func (h evictionHeap) Less(i, j int) bool  { return less(h[i], h[j]) }
func (h evictionHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *evictionHeap) Push(x interface{}) { *h = append(*h, x.(bidOrder)) }
func (h *evictionHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func newEvictionHeap() *evictionHeap {
	h := evictionHeap{}
	heap.Init(&h)
	return &h
}

func (h *evictionHeap) push(b bidOrder) {
	heap.Push(h, b)
}

// peek returns the top entry without removing it.
func (h *evictionHeap) peek() (bidOrder, bool) {
	if h.Len() == 0 {
		return bidOrder{}, false
	}
	return (*h)[0], true
}

func (h *evictionHeap) pop() (bidOrder, bool) {
	if h.Len() == 0 {
		return bidOrder{}, false
	}
	return heap.Pop(h).(bidOrder), true
}
