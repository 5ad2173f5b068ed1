// Package auction implements a continuous clearing auction: a fixed token
// supply is released over a time window while bids compete for it at a
// single moving clearing price.
package auction

import (
	"github.com/holiman/uint256"
)

// Independent fixed-point scales. RatePrecision and AccPrecision never
// change; PricePrecision is chosen once per auction from pricePrecisionChoices
// based on the magnitude of the unscaled floor price.
const (
	RatePrecision = 1_000_000_000          // 1e9, applied to per-ms flow/supply rates
	AccPrecision  = 1_000_000_000_000_000_000 // 1e18, applied to acc_tokens_per_share

	// MaxTotalSupply bounds total_supply to keep the widest intermediate
	// product (amount * RatePrecision * PricePrecision) well inside 256 bits.
	MaxTotalSupply = 1_000_000_000_000_000_000_000_000_000_000 // 1e30
)

var pricePrecisionChoices = [4]uint64{1, 1_000, 1_000_000, 1_000_000_000}

// choosePricePrecision picks PRICE_PRECISION from {1, 1e3, 1e6, 1e9} so the
// scaled floor price retains roughly 9 decimal digits of headroom.
func choosePricePrecision(unscaledFloor *uint256.Int) uint64 {
	billion := uint256.NewInt(1_000_000_000)
	million := uint256.NewInt(1_000_000)
	thousand := uint256.NewInt(1_000)
	switch {
	case unscaledFloor.Cmp(billion) >= 0:
		return 1
	case unscaledFloor.Cmp(million) >= 0:
		return 1_000
	case unscaledFloor.Cmp(thousand) > 0:
		return 1_000_000
	default:
		return 1_000_000_000
	}
}

func u64(v uint64) *uint256.Int { return uint256.NewInt(v) }

func zero() *uint256.Int { return new(uint256.Int) }

// mulDivFloor computes floor(a*b/d). The product a*b must not overflow 256
// bits; callers are responsible for keeping operands within MaxTotalSupply-
// derived bounds, exactly as the spec requires.
func mulDivFloor(a, b, d *uint256.Int) *uint256.Int {
	if d.IsZero() {
		panic("auction: division by zero in mulDivFloor")
	}
	num := new(uint256.Int).Mul(a, b)
	return new(uint256.Int).Div(num, d)
}

// mulDivCeil computes ceil(a*b/d).
func mulDivCeil(a, b, d *uint256.Int) *uint256.Int {
	if d.IsZero() {
		panic("auction: division by zero in mulDivCeil")
	}
	num := new(uint256.Int).Mul(a, b)
	return ceilDiv(num, d)
}

// ceilDiv computes ceil(a/d) for d > 0.
func ceilDiv(a, d *uint256.Int) *uint256.Int {
	if d.IsZero() {
		panic("auction: division by zero in ceilDiv")
	}
	q := new(uint256.Int).Div(a, d)
	r := new(uint256.Int).Mod(a, d)
	if r.IsZero() {
		return q
	}
	return new(uint256.Int).Add(q, u64(1))
}

// satSub computes a-b, saturating at zero instead of underflowing.
func satSub(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) < 0 {
		return zero()
	}
	return new(uint256.Int).Sub(a, b)
}

// clearingPrice implements §4.1's clearing-price formula:
// ceil(currentFlowRate * oneToken / supplyRate), floored at floorPrice.
// When currentFlowRate is zero the numerator is zero and the floor applies.
func clearingPrice(currentFlowRate, oneToken, supplyRate, floorPrice *uint256.Int) *uint256.Int {
	if supplyRate.IsZero() {
		return floorPrice.Clone()
	}
	raw := mulDivCeil(currentFlowRate, oneToken, supplyRate)
	if raw.Cmp(floorPrice) < 0 {
		return floorPrice.Clone()
	}
	return raw
}

// supplyDelta computes the floor-divided token emission over dt at the given
// clearing price: currentFlowRate*dt*oneToken / (RatePrecision*clearingPrice).
func supplyDelta(currentFlowRate *uint256.Int, dt uint64, oneToken, clearing *uint256.Int) *uint256.Int {
	num := new(uint256.Int).Mul(currentFlowRate, u64(dt))
	num.Mul(num, oneToken)
	denom := new(uint256.Int).Mul(u64(RatePrecision), clearing)
	return new(uint256.Int).Div(num, denom)
}

// demandDelta computes the floor-divided currency raised over dt:
// currentFlowRate*dt / RatePrecision.
func demandDelta(currentFlowRate *uint256.Int, dt uint64) *uint256.Int {
	num := new(uint256.Int).Mul(currentFlowRate, u64(dt))
	return new(uint256.Int).Div(num, u64(RatePrecision))
}

// accDelta computes the floor-divided accumulator growth over dt:
// dt*AccPrecision/clearingPrice.
func accDelta(dt uint64, clearing *uint256.Int) *uint256.Int {
	num := new(uint256.Int).Mul(u64(dt), u64(AccPrecision))
	return new(uint256.Int).Div(num, clearing)
}

// bidFlowRate computes floor(amount*RatePrecision*pricePrecision/remaining).
func bidFlowRate(amount *uint256.Int, pricePrecision uint64, remaining uint64) *uint256.Int {
	num := new(uint256.Int).Mul(amount, u64(RatePrecision))
	num.Mul(num, u64(pricePrecision))
	return new(uint256.Int).Div(num, u64(remaining))
}

// tokensFromGrowth computes floor(flowRate*accGrowth*oneToken/(RatePrecision*AccPrecision)).
func tokensFromGrowth(flowRate, accGrowth, oneToken *uint256.Int) *uint256.Int {
	num := new(uint256.Int).Mul(flowRate, accGrowth)
	num.Mul(num, oneToken)
	denom := new(uint256.Int).Mul(u64(RatePrecision), u64(AccPrecision))
	return new(uint256.Int).Div(num, denom)
}

// spentFromDuration computes floor(flowRate*duration/(RatePrecision*pricePrecision)).
func spentFromDuration(flowRate *uint256.Int, duration uint64, pricePrecision uint64) *uint256.Int {
	num := new(uint256.Int).Mul(flowRate, u64(duration))
	denom := new(uint256.Int).Mul(u64(RatePrecision), u64(pricePrecision))
	return new(uint256.Int).Div(num, denom)
}
