package auction

import (
	"log"
	"sort"

	"github.com/holiman/uint256"
)

// SnapshotRecorder persists the per-event AuctionSnapshot log described in
// §4.6/C6. It is optional: an Auction with no recorder attached still
// returns snapshots from its mutating operations, it just doesn't keep a
// queryable history of them.
type SnapshotRecorder interface {
	Record(s AuctionSnapshot) error
	Query(fromTimestamp uint64, take int) ([]AuctionSnapshot, error)
}

// snapshotLocked builds the AuctionSnapshot for the current (already
// advanced) state. Caller must hold mu.
func (a *Auction) snapshotLocked(now uint64) AuctionSnapshot {
	return AuctionSnapshot{
		Timestamp:                now,
		ClearingPrice:            a.clearingPriceLocked(),
		CurrentFlowRate:          a.currentFlowRate.Clone(),
		CumulativeDemandRaised:   a.cumulativeDemandRaised.Clone(),
		CumulativeSupplyReleased: a.cumulativeSupplyReleased.Clone(),
	}
}

// recordSnapshotLocked best-effort persists a snapshot. A failure here
// never fails the mutating operation that produced it — the engine never
// retries, and a missed audit record is not a reason to reject a bid.
func (a *Auction) recordSnapshotLocked(snap AuctionSnapshot) {
	if a.snapshots == nil {
		return
	}
	if err := a.snapshots.Record(snap); err != nil {
		log.Printf("auction: failed to persist snapshot at t=%d: %v", snap.Timestamp, err)
	}
}

// Snapshots returns the persisted snapshot log starting at fromTimestamp,
// capped at take entries (and at 1000 regardless of what the caller asks
// for), mirroring the original canister's get_snapshots query. Returns nil
// if no recorder is attached.
func (a *Auction) Snapshots(fromTimestamp uint64, take int) ([]AuctionSnapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.snapshots == nil {
		return nil, nil
	}
	if take > 1000 {
		take = 1000
	}
	return a.snapshots.Query(fromTimestamp, take)
}

// GetInfo is the live AuctionInfo projection (§4.6). If now falls strictly
// between the last real update and end_time, the cumulative counters are
// virtually advanced at the current clearing price without mutating state.
func (a *Auction) GetInfo(now uint64) AuctionInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()

	clearing := a.clearingPriceLocked()
	demandRaised := a.cumulativeDemandRaised.Clone()
	supplyReleased := a.cumulativeSupplyReleased.Clone()

	if now < a.cfg.EndTime && now > a.lastUpdateTime {
		dt := now - a.lastUpdateTime
		demandRaised.Add(demandRaised, demandDelta(a.currentFlowRate, dt))
		if !a.supplyRate.IsZero() {
			supplyReleased.Add(supplyReleased, supplyDelta(a.currentFlowRate, dt, a.oneToken, clearing))
		}
	}

	graduated := demandRaised.Cmp(a.graduationThresholdLocked()) >= 0

	return AuctionInfo{
		Config:                   a.cfg,
		Timestamp:                now,
		ClearingPrice:            clearing,
		TotalAmount:              a.totalAmount.Clone(),
		TotalTokensFilled:        a.totalTokensFilled.Clone(),
		TotalRefunded:            a.totalRefunded.Clone(),
		CumulativeDemandRaised:   demandRaised,
		CumulativeSupplyReleased: supplyReleased,
		IsGraduated:              graduated,
		BiddersCount:             uint64(len(a.bidderSeen)),
	}
}

// GetGroupedBids buckets every currently-active bid's amount by
// floor(max_price/precision)*precision, ascending by bucket. Used to render
// a price-ladder histogram in a host UI.
func (a *Auction) GetGroupedBids(precision *uint256.Int) []GroupedBid {
	a.mu.RLock()
	defer a.mu.RUnlock()

	type bucketed struct {
		bucket *uint256.Int
		amount *uint256.Int
	}
	var buckets []bucketed
	index := make(map[string]int)

	for _, entry := range *a.heap {
		bucket := bucketOf(entry.maxPrice, precision)
		key := bucket.Hex()
		if i, ok := index[key]; ok {
			buckets[i].amount.Add(buckets[i].amount, entry.amount)
			continue
		}
		index[key] = len(buckets)
		buckets = append(buckets, bucketed{bucket: bucket, amount: entry.amount.Clone()})
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].bucket.Cmp(buckets[j].bucket) < 0 })

	result := make([]GroupedBid, len(buckets))
	for i, b := range buckets {
		result[i] = GroupedBid{Bucket: b.bucket, Amount: b.amount}
	}
	return result
}

func bucketOf(maxPrice, precision *uint256.Int) *uint256.Int {
	if precision.IsZero() {
		return maxPrice.Clone()
	}
	q := new(uint256.Int).Div(maxPrice, precision)
	return q.Mul(q, precision)
}
