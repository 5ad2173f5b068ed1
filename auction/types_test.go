package auction

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestAuctionConfig_Validate_Accepts(t *testing.T) {
	err := testConfig().Validate()
	assert.NoError(t, err)
}

func TestAuctionConfig_Validate_RejectsShortDuration(t *testing.T) {
	cfg := testConfig()
	cfg.EndTime = cfg.StartTime + cfg.MinBidDuration
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestAuctionConfig_Validate_RejectsShortMinBidDuration(t *testing.T) {
	cfg := testConfig()
	cfg.MinBidDuration = 999
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestAuctionConfig_Validate_RejectsTooManyDecimals(t *testing.T) {
	cfg := testConfig()
	cfg.TokenDecimals = 19
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestAuctionConfig_Validate_RejectsAmountRange(t *testing.T) {
	cfg := testConfig()
	cfg.MinAmount = cfg.MaxAmount
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestAuctionConfig_Validate_RejectsFloorPriceBelowOne(t *testing.T) {
	cfg := testConfig()
	cfg.RequiredCurrencyRaised = u64(1)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestBid_IntoInfo_CopiesActiveBid(t *testing.T) {
	b := &Bid{
		ID:           1,
		Caller:       common.HexToAddress("0x1"),
		Amount:       u64(1000),
		MaxPrice:     u64(500),
		FlowRate:     u64(10),
		AccSnapshot:  u64(0),
		CreateTime:   100,
		TokensFilled: u64(0),
		Refund:       u64(0),
	}
	info := b.IntoInfo()
	assert.Nil(t, info.OutbidTime)
	assert.Equal(t, b.ID, info.ID)
	assert.Equal(t, b.Amount.Dec(), info.Amount.Dec())
}

func TestBid_IntoInfo_CopiesOutbidBid(t *testing.T) {
	outbidAt := uint64(200)
	b := &Bid{
		ID:                2,
		Caller:            common.HexToAddress("0x2"),
		Amount:            u64(1000),
		MaxPrice:          u64(500),
		FlowRate:          u64(10),
		AccSnapshot:       u64(0),
		CreateTime:        100,
		OutbidTime:        &outbidAt,
		OutbidAccSnapshot: u64(5),
		TokensFilled:      u64(7),
		Refund:            u64(3),
	}
	info := b.IntoInfo()
	if info.OutbidTime == nil {
		t.Fatal("expected OutbidTime to be set")
	}
	assert.Equal(t, outbidAt, *info.OutbidTime)
	assert.Equal(t, "7", info.TokensFilled.Dec())
	assert.Equal(t, "3", info.Refund.Dec())
}
