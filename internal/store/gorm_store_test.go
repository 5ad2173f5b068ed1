package store

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tokenlisting/ccauction/auction"
)

func newMockStore(t *testing.T) (*GormBidStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return &GormBidStore{db: gormDB}, mock
}

func TestGormBidStore_Insert(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `bids`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	bid := &auction.Bid{
		ID:           7,
		Caller:       common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Amount:       uint256.NewInt(50_000),
		MaxPrice:     uint256.NewInt(500),
		FlowRate:     uint256.NewInt(5_000_000_000),
		AccSnapshot:  uint256.NewInt(0),
		CreateTime:   1000,
		TokensFilled: uint256.NewInt(0),
		Refund:       uint256.NewInt(0),
	}

	err := s.Insert(7, bid)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormBidStore_Record(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `auction_snapshots`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	snap := auction.AuctionSnapshot{
		Timestamp:                1000,
		ClearingPrice:            uint256.NewInt(100_000_000_000),
		CurrentFlowRate:          uint256.NewInt(5_000_000_000),
		CumulativeDemandRaised:   uint256.NewInt(0),
		CumulativeSupplyReleased: uint256.NewInt(0),
	}

	err := s.Record(snap)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAmountStringRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value *uint256.Int
		want  string
	}{
		{"nil", nil, "0"},
		{"zero", uint256.NewInt(0), "0"},
		{"small", uint256.NewInt(123456789), "123456789"},
		{"large", func() *uint256.Int {
			v, err := uint256.FromDecimal("999999999999999999999999999999")
			require.NoError(t, err)
			return v
		}(), "999999999999999999999999999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := amountToString(tt.value)
			assert.Equal(t, tt.want, got)

			if tt.value != nil {
				back, err := stringToAmount(got)
				require.NoError(t, err)
				assert.Equal(t, 0, tt.value.Cmp(back))
			}
		})
	}
}

func TestStringToAmount_InvalidInput(t *testing.T) {
	_, err := stringToAmount("not-a-number")
	assert.Error(t, err)
}

func TestBidRecord_TableName(t *testing.T) {
	assert.Equal(t, "bids", BidRecord{}.TableName())
}

func TestSnapshotRecord_TableName(t *testing.T) {
	assert.Equal(t, "auction_snapshots", SnapshotRecord{}.TableName())
}
