package auction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvictionHeap_OrdersByMaxPriceThenAmountThenID(t *testing.T) {
	h := newEvictionHeap()
	h.push(bidOrder{id: 3, maxPrice: u64(500), amount: u64(10)})
	h.push(bidOrder{id: 1, maxPrice: u64(100), amount: u64(50)})
	h.push(bidOrder{id: 2, maxPrice: u64(100), amount: u64(20)})
	h.push(bidOrder{id: 4, maxPrice: u64(100), amount: u64(20)})

	top, ok := h.peek()
	require.True(t, ok)
	assert.Equal(t, uint64(2), top.id) // maxPrice=100 ties broken by amount=20, then id=2 before id=4

	first, ok := h.pop()
	require.True(t, ok)
	assert.Equal(t, uint64(2), first.id)

	second, ok := h.pop()
	require.True(t, ok)
	assert.Equal(t, uint64(4), second.id)

	third, ok := h.pop()
	require.True(t, ok)
	assert.Equal(t, uint64(1), third.id)

	fourth, ok := h.pop()
	require.True(t, ok)
	assert.Equal(t, uint64(3), fourth.id)

	_, ok = h.pop()
	assert.False(t, ok)
}

func TestEvictionHeap_PeekOnEmpty(t *testing.T) {
	h := newEvictionHeap()
	_, ok := h.peek()
	assert.False(t, ok)
}
