package auction

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestChoosePricePrecision(t *testing.T) {
	cases := []struct {
		floor uint64
		want  uint64
	}{
		{1, 1_000_000_000},
		{1_000, 1_000_000_000},
		{1_001, 1_000_000},
		{1_000_000, 1_000},
		{1_000_001, 1_000},
		{1_000_000_000, 1},
		{2_000_000_000, 1},
	}
	for _, c := range cases {
		got := choosePricePrecision(u64(c.floor))
		assert.Equal(t, c.want, got, "floor=%d", c.floor)
	}
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, "4", ceilDiv(u64(10), u64(3)).Dec())
	assert.Equal(t, "3", ceilDiv(u64(9), u64(3)).Dec())
	assert.Equal(t, "0", ceilDiv(u64(0), u64(5)).Dec())
}

func TestSatSub(t *testing.T) {
	assert.Equal(t, "0", satSub(u64(5), u64(10)).Dec())
	assert.Equal(t, "5", satSub(u64(10), u64(5)).Dec())
	assert.Equal(t, "0", satSub(u64(5), u64(5)).Dec())
}

func TestClearingPrice_FloorsAtFloorPrice(t *testing.T) {
	floor := u64(100_000_000_000)
	supplyRate := u64(10_000_000_000_000_000)
	oneToken := u64(100_000_000)

	got := clearingPrice(zero(), oneToken, supplyRate, floor)
	assert.Equal(t, floor.Dec(), got.Dec())

	small := u64(1)
	got2 := clearingPrice(small, oneToken, supplyRate, floor)
	assert.Equal(t, floor.Dec(), got2.Dec())
}

func TestClearingPrice_AboveFloorWhenFlowIsHigh(t *testing.T) {
	floor := u64(100_000_000_000)
	supplyRate := u64(10_000_000_000_000_000)
	oneToken := u64(100_000_000)
	flow := new(uint256.Int).Mul(u64(20_000_000_000), u64(1_000_000_000))

	got := clearingPrice(flow, oneToken, supplyRate, floor)
	assert.True(t, got.Cmp(floor) > 0)
	assert.Equal(t, "200000000000", got.Dec())
}

func TestBidFlowRate_ZeroForTinyAmountOverLongDuration(t *testing.T) {
	amount := u64(1)
	got := bidFlowRate(amount, 1, 1_000_000_000_000)
	assert.True(t, got.IsZero())
}

func TestMulDivCeil_RoundsUpOnRemainder(t *testing.T) {
	got := mulDivCeil(u64(10), u64(3), u64(4))
	assert.Equal(t, "8", got.Dec())
}

func TestMulDivFloor_ExactDivision(t *testing.T) {
	got := mulDivFloor(u64(10), u64(3), u64(5))
	assert.Equal(t, "6", got.Dec())
}
