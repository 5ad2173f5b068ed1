package auction

import (
	"fmt"
	"log"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Auction is the engine's single mutable state record (C4). All fields are
// guarded by mu; there is no cross-bid locking — one write lock guards the
// whole engine, matching the single-writer model described for the
// BidStore.
type Auction struct {
	mu sync.RWMutex

	cfg            AuctionConfig
	oneToken       *uint256.Int
	floorPrice     *uint256.Int
	pricePrecision uint64

	nextBidID      uint64
	lastUpdateTime uint64

	supplyRate        *uint256.Int
	currentFlowRate   *uint256.Int
	accTokensPerShare *uint256.Int

	totalAmount              *uint256.Int
	totalTokensFilled        *uint256.Int
	totalRefunded            *uint256.Int
	cumulativeSupplyReleased *uint256.Int
	cumulativeDemandRaised   *uint256.Int

	heap  *evictionHeap
	store BidStore

	callerBids map[common.Address][]uint64
	bidderSeen map[common.Address]struct{}

	snapshots SnapshotRecorder
}

// NewAuction constructs an Auction from a validated config and a BidStore.
// price_precision is chosen once here from the floor price's magnitude and
// is never recomputed afterwards.
func NewAuction(cfg AuctionConfig, store BidStore) (*Auction, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: store must not be nil", ErrInvalidConfig)
	}

	oneToken := new(uint256.Int).Exp(u64(10), u64(uint64(cfg.TokenDecimals)))
	unscaledFloor := ceilDiv(new(uint256.Int).Mul(cfg.RequiredCurrencyRaised, oneToken), cfg.TotalSupply)
	if unscaledFloor.IsZero() {
		unscaledFloor = u64(1)
	}
	pricePrecision := choosePricePrecision(unscaledFloor)
	floorPrice := new(uint256.Int).Mul(unscaledFloor, u64(pricePrecision))

	duration := cfg.EndTime - cfg.StartTime
	supplyRate := mulDivFloor(cfg.TotalSupply, u64(RatePrecision), u64(duration))

	a := &Auction{
		cfg:                      cfg,
		oneToken:                 oneToken,
		floorPrice:               floorPrice,
		pricePrecision:           pricePrecision,
		nextBidID:                1,
		lastUpdateTime:           cfg.StartTime,
		supplyRate:               supplyRate,
		currentFlowRate:          zero(),
		accTokensPerShare:        zero(),
		totalAmount:              zero(),
		totalTokensFilled:        zero(),
		totalRefunded:            zero(),
		cumulativeSupplyReleased: zero(),
		cumulativeDemandRaised:   zero(),
		heap:                     newEvictionHeap(),
		store:                    store,
		callerBids:               make(map[common.Address][]uint64),
		bidderSeen:               make(map[common.Address]struct{}),
	}
	return a, nil
}

// SetSnapshotRecorder attaches an optional persistence sink for the C6
// per-event snapshot log. Without one, snapshots are only returned to the
// caller of the mutating operation that produced them.
func (a *Auction) SetSnapshotRecorder(r SnapshotRecorder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshots = r
}

// updateStateLocked advances the clock to now, accruing demand/supply and
// rebasing the supply rate on under-fill (§4.4). Caller must hold mu.
func (a *Auction) updateStateLocked(now uint64) {
	if now <= a.lastUpdateTime {
		return
	}
	validEnd := now
	if validEnd > a.cfg.EndTime {
		validEnd = a.cfg.EndTime
	}
	dt := validEnd - a.lastUpdateTime
	if dt == 0 {
		a.lastUpdateTime = now
		return
	}

	clearing := a.clearingPriceLocked()

	a.cumulativeDemandRaised.Add(a.cumulativeDemandRaised, demandDelta(a.currentFlowRate, dt))

	if !a.supplyRate.IsZero() {
		a.accTokensPerShare.Add(a.accTokensPerShare, accDelta(dt, clearing))
		a.cumulativeSupplyReleased.Add(a.cumulativeSupplyReleased, supplyDelta(a.currentFlowRate, dt, a.oneToken, clearing))
	}

	if a.cfg.EndTime > validEnd {
		remaining := a.cfg.EndTime - validEnd
		remainingSupply := satSub(a.cfg.TotalSupply, a.cumulativeSupplyReleased)
		a.supplyRate = mulDivFloor(remainingSupply, u64(RatePrecision), remaining)
	}

	a.lastUpdateTime = now
}

// clearingPriceLocked reads the current clearing price off whatever state
// updateStateLocked last settled. Caller must hold mu (read or write).
func (a *Auction) clearingPriceLocked() *uint256.Int {
	return clearingPrice(a.currentFlowRate, a.oneToken, a.supplyRate, a.floorPrice)
}

// maxPriceThresholdLocked implements get_max_price_threshold: the clearing
// price this instant, and the price a bid of flowRate would push the market
// to. When supplyRate has been rebased to zero (exact sellout) there is no
// remaining capacity to push against; the threshold collapses to the
// clearing price itself.
func (a *Auction) maxPriceThresholdLocked(flowRate *uint256.Int) (clearing, threshold *uint256.Int) {
	clearing = a.clearingPriceLocked()
	if a.supplyRate.IsZero() {
		return clearing, clearing.Clone()
	}
	extra := mulDivCeil(flowRate, a.oneToken, a.supplyRate)
	threshold = new(uint256.Int).Add(clearing, extra)
	return clearing, threshold
}

func (a *Auction) graduationThresholdLocked() *uint256.Int {
	return new(uint256.Int).Mul(a.cfg.RequiredCurrencyRaised, u64(a.pricePrecision))
}

func (a *Auction) isGraduatedLocked() bool {
	return a.cumulativeDemandRaised.Cmp(a.graduationThresholdLocked()) >= 0
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func satSubU64(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

// Submit implements the bid lifecycle's entry point (§4.5). Reactive
// eviction runs before the call returns.
func (a *Auction) Submit(caller common.Address, amount, maxPrice *uint256.Int, now uint64) (BidInfo, AuctionSnapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if now >= a.cfg.EndTime {
		return BidInfo{}, AuctionSnapshot{}, ErrAuctionEnded
	}
	if amount.Cmp(a.cfg.MinAmount) < 0 || amount.Cmp(a.cfg.MaxAmount) > 0 {
		return BidInfo{}, AuctionSnapshot{}, ErrInvalidBidAmount
	}
	effectiveNow := maxU64(now, a.cfg.StartTime)
	remaining := satSubU64(a.cfg.EndTime, effectiveNow)
	if remaining < a.cfg.MinBidDuration {
		return BidInfo{}, AuctionSnapshot{}, ErrInvalidBidDuration
	}

	flowRate := bidFlowRate(amount, a.pricePrecision, remaining)
	if flowRate.IsZero() {
		return BidInfo{}, AuctionSnapshot{}, ErrInvalidBidAmount
	}

	a.updateStateLocked(now)

	_, threshold := a.maxPriceThresholdLocked(flowRate)
	scaledMaxPrice := new(uint256.Int).Mul(maxPrice, u64(a.pricePrecision))
	if scaledMaxPrice.Cmp(threshold) < 0 {
		return BidInfo{}, AuctionSnapshot{}, ErrInvalidBidPrice
	}
	absurd := new(uint256.Int).Mul(threshold, u64(1000))
	if scaledMaxPrice.Cmp(absurd) >= 0 {
		return BidInfo{}, AuctionSnapshot{}, ErrInvalidBidPrice
	}

	id := a.nextBidID
	a.nextBidID++
	a.currentFlowRate.Add(a.currentFlowRate, flowRate)
	a.totalAmount.Add(a.totalAmount, amount)

	bid := &Bid{
		ID:           id,
		Caller:       caller,
		Amount:       amount.Clone(),
		MaxPrice:     maxPrice.Clone(),
		FlowRate:     flowRate,
		AccSnapshot:  a.accTokensPerShare.Clone(),
		CreateTime:   now,
		TokensFilled: zero(),
		Refund:       zero(),
	}
	if err := a.store.Insert(id, bid); err != nil {
		return BidInfo{}, AuctionSnapshot{}, err
	}
	a.heap.push(bidOrder{id: id, maxPrice: maxPrice.Clone(), amount: amount.Clone()})

	if _, seen := a.bidderSeen[caller]; !seen {
		a.bidderSeen[caller] = struct{}{}
	}
	a.callerBids[caller] = append(a.callerBids[caller], id)

	a.processOutbidsLocked(now)

	snap := a.snapshotLocked(now)
	a.recordSnapshotLocked(snap)

	return bid.IntoInfo(), snap, nil
}

// processOutbidsLocked implements §4.5's reactive eviction loop.
func (a *Auction) processOutbidsLocked(now uint64) *uint256.Int {
	for {
		top, ok := a.heap.peek()
		if !ok {
			return a.clearingPriceLocked()
		}
		clearing := a.clearingPriceLocked()
		scaledTop := new(uint256.Int).Mul(top.maxPrice, u64(a.pricePrecision))
		if scaledTop.Cmp(clearing) < 0 {
			popped, _ := a.heap.pop()
			a.executeOutbidLocked(popped.id, now)
			continue
		}
		return clearing
	}
}

// executeOutbidLocked freezes a bid's settlement at eviction time (§4.5). A
// stale pop (bid already outbid, or unknown to the store) is a no-op.
func (a *Auction) executeOutbidLocked(id uint64, now uint64) {
	bid, ok := a.store.Get(id)
	if !ok || bid.IsOutbid() {
		return
	}

	a.currentFlowRate = satSub(a.currentFlowRate, bid.FlowRate)

	outbidAt := now
	bid.OutbidTime = &outbidAt
	bid.OutbidAccSnapshot = a.accTokensPerShare.Clone()

	accGrowth := new(uint256.Int).Sub(a.accTokensPerShare, bid.AccSnapshot)
	bid.TokensFilled = tokensFromGrowth(bid.FlowRate, accGrowth, a.oneToken)

	effectiveStart := maxU64(bid.CreateTime, a.cfg.StartTime)
	duration := satSubU64(now, effectiveStart)
	spent := spentFromDuration(bid.FlowRate, duration, a.pricePrecision)
	bid.Refund = satSub(bid.Amount, spent)

	if err := a.store.Insert(id, bid); err != nil {
		log.Printf("auction: failed to persist outbid for bid %d: %v", id, err)
	}
}

// Claim settles a single bid (§4.5). Idempotent: a second call returns
// ErrBidClaimed.
func (a *Auction) Claim(id uint64, now uint64) (BidInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.claimLocked(id, now)
}

func (a *Auction) claimLocked(id uint64, now uint64) (BidInfo, error) {
	bid, ok := a.store.Get(id)
	if !ok {
		return BidInfo{}, ErrBidNotFound
	}
	if bid.IsClaimed() {
		return BidInfo{}, ErrBidClaimed
	}

	a.updateStateLocked(now)
	graduated := a.isGraduatedLocked()

	switch {
	case bid.IsOutbid() && graduated:
		// Settlement fields are already frozen by executeOutbidLocked.
	case now <= a.cfg.EndTime:
		return BidInfo{}, ErrNotClaimable
	default:
		if !graduated {
			bid.TokensFilled = zero()
			bid.Refund = bid.Amount.Clone()
		} else {
			// Not outbid (the outbid+graduated case was handled above), so
			// the bid was continuously active from entry through end_time.
			accGrowth := new(uint256.Int).Sub(a.accTokensPerShare, bid.AccSnapshot)
			bid.TokensFilled = tokensFromGrowth(bid.FlowRate, accGrowth, a.oneToken)

			effectiveStart := maxU64(bid.CreateTime, a.cfg.StartTime)
			duration := satSubU64(a.cfg.EndTime, effectiveStart)
			spent := spentFromDuration(bid.FlowRate, duration, a.pricePrecision)
			bid.Refund = satSub(bid.Amount, spent)
		}
	}

	bid.ClaimTime = now
	a.totalTokensFilled.Add(a.totalTokensFilled, bid.TokensFilled)
	a.totalRefunded.Add(a.totalRefunded, bid.Refund)
	if err := a.store.Insert(id, bid); err != nil {
		return BidInfo{}, err
	}

	snap := a.snapshotLocked(now)
	a.recordSnapshotLocked(snap)

	return bid.IntoInfo(), nil
}

// ClaimAll settles every bid the caller has submitted, best-effort: per-bid
// errors (NotClaimable, BidClaimed) are skipped, not propagated.
func (a *Auction) ClaimAll(caller common.Address, now uint64) []BidInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := a.callerBids[caller]
	settled := make([]BidInfo, 0, len(ids))
	for _, id := range ids {
		info, err := a.claimLocked(id, now)
		if err != nil {
			continue
		}
		settled = append(settled, info)
	}
	return settled
}

// EstimateMaxPrice is a pure read: it reports the clearing price and the
// threshold a bid of this size would need to clear right now, without
// mutating state. It intentionally does not run update_state first — only
// current_flow_rate and supply_rate feed the formula, and those only change
// on a real mutating call, never from the mere passage of time.
func (a *Auction) EstimateMaxPrice(amount *uint256.Int, now uint64) (clearing, threshold *uint256.Int) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if now >= a.cfg.EndTime {
		return zero(), zero()
	}
	effectiveNow := maxU64(now, a.cfg.StartTime)
	remaining := satSubU64(a.cfg.EndTime, effectiveNow)
	if remaining < a.cfg.MinBidDuration {
		return zero(), zero()
	}
	flowRate := bidFlowRate(amount, a.pricePrecision, remaining)
	if flowRate.IsZero() {
		return zero(), zero()
	}

	clearingScaled, thresholdScaled := a.maxPriceThresholdLocked(flowRate)
	return ceilDiv(clearingScaled, u64(a.pricePrecision)), ceilDiv(thresholdScaled, u64(a.pricePrecision))
}

// IsGraduated reports the monotone graduation condition.
func (a *Auction) IsGraduated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.isGraduatedLocked()
}

// IsEnded reports whether now is past the auction's end time.
func (a *Auction) IsEnded(now uint64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return now > a.cfg.EndTime
}

// CurrencyRaised returns the whole-unit currency raised, or zero if the
// auction has not graduated.
func (a *Auction) CurrencyRaised() *uint256.Int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.isGraduatedLocked() {
		return zero()
	}
	return new(uint256.Int).Div(a.cumulativeDemandRaised, u64(a.pricePrecision))
}

// TokensSold returns the atomic tokens released, or zero if the auction has
// not graduated.
func (a *Auction) TokensSold() *uint256.Int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.isGraduatedLocked() {
		return zero()
	}
	return a.cumulativeSupplyReleased.Clone()
}

// BidsByCaller returns every bid the caller has ever submitted, in
// submission order. Grounded in the original canister's my_bids query.
func (a *Auction) BidsByCaller(caller common.Address) []BidInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids := a.callerBids[caller]
	out := make([]BidInfo, 0, len(ids))
	for _, id := range ids {
		bid, ok := a.store.Get(id)
		if !ok {
			continue
		}
		out = append(out, bid.IntoInfo())
	}
	return out
}
