package auction

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Validation errors returned to the caller. These are in-band tagged
// outcomes, not programmer faults; callers should check with errors.Is.
var (
	ErrAuctionEnded        = errors.New("auction: ended")
	ErrInvalidBidAmount    = errors.New("auction: invalid bid amount")
	ErrInvalidBidDuration  = errors.New("auction: invalid bid duration")
	ErrInvalidBidPrice     = errors.New("auction: invalid bid price")
	ErrBidNotFound         = errors.New("auction: bid not found")
	ErrBidClaimed          = errors.New("auction: bid already claimed")
	ErrNotClaimable        = errors.New("auction: not claimable yet")
	ErrInsufficientBalance = errors.New("auction: insufficient balance")
	ErrInvalidConfig       = errors.New("auction: invalid config")
)

// AuctionConfig is immutable once an Auction is constructed.
type AuctionConfig struct {
	StartTime              uint64 // ms since epoch
	EndTime                uint64
	MinBidDuration         uint64 // ms
	TokenDecimals          uint8
	TotalSupply            *uint256.Int // atomic token units released over the window
	LiquidityPoolAmount    *uint256.Int // atomic token units reserved outside the auction
	MinAmount              *uint256.Int // atomic currency units
	MaxAmount              *uint256.Int
	RequiredCurrencyRaised *uint256.Int // atomic currency units; graduation threshold
}

// Validate enforces §3's construction rules plus the decimals/total-supply
// bounds carried over from the original canister's AuctionConfig::check.
func (c AuctionConfig) Validate() error {
	if c.StartTime+c.MinBidDuration >= c.EndTime {
		return fmt.Errorf("%w: start_time+min_bid_duration must be < end_time", ErrInvalidConfig)
	}
	if c.MinBidDuration < 1000 {
		return fmt.Errorf("%w: min_bid_duration must be >= 1000ms", ErrInvalidConfig)
	}
	if c.TokenDecimals > 18 {
		return fmt.Errorf("%w: token_decimals must be <= 18", ErrInvalidConfig)
	}
	if c.TotalSupply == nil || c.TotalSupply.IsZero() {
		return fmt.Errorf("%w: total_supply must be set", ErrInvalidConfig)
	}
	oneToken := new(uint256.Int).Exp(u64(10), u64(uint64(c.TokenDecimals)))
	if c.TotalSupply.Cmp(oneToken) < 0 {
		return fmt.Errorf("%w: total_supply too low", ErrInvalidConfig)
	}
	if c.TotalSupply.Cmp(maxTotalSupplyInt()) > 0 {
		return fmt.Errorf("%w: total_supply exceeds MaxTotalSupply", ErrInvalidConfig)
	}
	if c.MinAmount == nil || c.MinAmount.IsZero() {
		return fmt.Errorf("%w: min_amount must be > 0", ErrInvalidConfig)
	}
	if c.MaxAmount == nil || c.MinAmount.Cmp(c.MaxAmount) >= 0 {
		return fmt.Errorf("%w: min_amount must be < max_amount", ErrInvalidConfig)
	}
	if c.RequiredCurrencyRaised == nil {
		return fmt.Errorf("%w: required_currency_raised must be set", ErrInvalidConfig)
	}
	// required / (total_supply / one_token) >= 1, i.e. required*one_token >= total_supply.
	lhs := new(uint256.Int).Mul(c.RequiredCurrencyRaised, oneToken)
	if lhs.Cmp(c.TotalSupply) < 0 {
		return fmt.Errorf("%w: required_currency_raised implies floor price below 1 atomic unit per token", ErrInvalidConfig)
	}
	return nil
}

func maxTotalSupplyInt() *uint256.Int {
	v, err := uint256.FromDecimal("1000000000000000000000000000000")
	if err != nil {
		panic("auction: bad MaxTotalSupply literal")
	}
	return v
}

// Bid is the BidStore's storage representation: the full lifecycle record
// for one submitted bid.
type Bid struct {
	ID     uint64
	Caller common.Address

	Amount   *uint256.Int // whole-currency units as submitted
	MaxPrice *uint256.Int // whole-currency units as submitted

	FlowRate    *uint256.Int // currency/ms, scaled by RatePrecision*pricePrecision
	AccSnapshot *uint256.Int // acc_tokens_per_share at entry

	CreateTime uint64

	OutbidTime        *uint64
	OutbidAccSnapshot *uint256.Int

	TokensFilled *uint256.Int
	Refund       *uint256.Int
	ClaimTime    uint64
}

// IsOutbid reports whether the bid has been evicted from the active set.
func (b *Bid) IsOutbid() bool { return b.OutbidTime != nil }

// IsClaimed reports whether the bid has been settled.
func (b *Bid) IsClaimed() bool { return b.ClaimTime != 0 }

// IntoInfo projects the storage record into the read-only snapshot returned
// across the external interface, mirroring Bid::into_info in the original
// canister.
func (b *Bid) IntoInfo() BidInfo {
	info := BidInfo{
		ID:           b.ID,
		Caller:       b.Caller,
		Amount:       b.Amount.Clone(),
		MaxPrice:     b.MaxPrice.Clone(),
		FlowRate:     b.FlowRate.Clone(),
		AccSnapshot:  b.AccSnapshot.Clone(),
		CreateTime:   b.CreateTime,
		TokensFilled: zero(),
		Refund:       zero(),
		ClaimTime:    b.ClaimTime,
	}
	if b.OutbidTime != nil {
		t := *b.OutbidTime
		info.OutbidTime = &t
		info.OutbidAccSnapshot = b.OutbidAccSnapshot.Clone()
	}
	if b.TokensFilled != nil {
		info.TokensFilled = b.TokensFilled.Clone()
	}
	if b.Refund != nil {
		info.Refund = b.Refund.Clone()
	}
	return info
}

// BidInfo is the read-only projection of a Bid returned by submit, claim,
// claim_all and the per-caller queries.
type BidInfo struct {
	ID     uint64
	Caller common.Address

	Amount   *uint256.Int
	MaxPrice *uint256.Int

	FlowRate    *uint256.Int
	AccSnapshot *uint256.Int

	CreateTime uint64

	OutbidTime        *uint64
	OutbidAccSnapshot *uint256.Int

	TokensFilled *uint256.Int
	Refund       *uint256.Int
	ClaimTime    uint64
}

// AuctionInfo is the live projection returned by get_info: a snapshot of the
// auction's aggregate state at a given timestamp, possibly virtually
// advanced past the last mutating call.
type AuctionInfo struct {
	Config                   AuctionConfig
	Timestamp                uint64
	ClearingPrice            *uint256.Int
	TotalAmount              *uint256.Int
	TotalTokensFilled        *uint256.Int
	TotalRefunded            *uint256.Int
	CumulativeDemandRaised   *uint256.Int
	CumulativeSupplyReleased *uint256.Int
	IsGraduated              bool
	BiddersCount             uint64
}

// AuctionSnapshot is the per-event record appended on every mutating
// operation (submit, claim, claim_all) for introspection and audit.
type AuctionSnapshot struct {
	Timestamp                uint64
	ClearingPrice            *uint256.Int
	CurrentFlowRate          *uint256.Int
	CumulativeDemandRaised   *uint256.Int
	CumulativeSupplyReleased *uint256.Int
}

// GroupedBid is one bucket of the price-ladder histogram returned by
// get_grouped_bids.
type GroupedBid struct {
	Bucket *uint256.Int
	Amount *uint256.Int
}

// BidStore is the persistence contract consumed by the engine (C2). The
// store is single-writer: every mutating engine operation serializes
// through it, and insert is an upsert with read-after-write consistency
// within one call. There is no delete; bids persist for history.
type BidStore interface {
	Get(id uint64) (*Bid, bool)
	Insert(id uint64, bid *Bid) error
}
