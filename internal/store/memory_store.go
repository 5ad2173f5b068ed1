// Package store provides BidStore implementations for the auction engine:
// an in-memory map for tests and the simulator, and a GORM/MySQL-backed
// store for production hosts.
package store

import (
	"sync"

	"github.com/tokenlisting/ccauction/auction"
)

// MemoryStore is a map-based auction.BidStore, grounded in the original
// canister's BidStorage trait (a plain in-memory key→bid map). It has no
// persistence beyond process lifetime and is meant for tests and the
// cmd/auctionsim driver.
type MemoryStore struct {
	mu   sync.RWMutex
	bids map[uint64]*auction.Bid
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bids: make(map[uint64]*auction.Bid)}
}

// Get implements auction.BidStore.
func (s *MemoryStore) Get(id uint64) (*auction.Bid, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bids[id]
	return b, ok
}

// Insert implements auction.BidStore. It is an upsert: a later insert for
// the same id supersedes the prior value, matching the BidStore contract's
// read-after-write requirement.
func (s *MemoryStore) Insert(id uint64, bid *auction.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids[id] = bid
	return nil
}

// Len reports how many bids have ever been inserted.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bids)
}
