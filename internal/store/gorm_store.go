package store

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/tokenlisting/ccauction/auction"
)

// BidRecord is the GORM row for one persisted Bid. Wide-integer quantities
// are stored as decimal strings (varchar(78) comfortably holds a 256-bit
// value), the same convention the teacher's asset-snapshot recorder used
// for big.Int columns.
type BidRecord struct {
	BidID    uint64 `gorm:"primaryKey;column:bid_id"`
	Caller   string `gorm:"type:varchar(42);index;not null"`
	Amount   string `gorm:"type:varchar(78);not null;comment:uint256 as decimal string"`
	MaxPrice string `gorm:"type:varchar(78);not null;comment:uint256 as decimal string"`

	FlowRate    string `gorm:"type:varchar(78);not null;comment:uint256 as decimal string"`
	AccSnapshot string `gorm:"type:varchar(78);not null;comment:uint256 as decimal string"`

	CreateTime uint64 `gorm:"not null"`

	OutbidTime        *uint64 `gorm:""`
	OutbidAccSnapshot *string `gorm:"type:varchar(78)"`

	TokensFilled string `gorm:"type:varchar(78);not null;comment:uint256 as decimal string"`
	Refund       string `gorm:"type:varchar(78);not null;comment:uint256 as decimal string"`
	ClaimTime    uint64 `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (BidRecord) TableName() string { return "bids" }

// SnapshotRecord is the GORM row for one AuctionSnapshot, the per-event
// audit log described in C6.
type SnapshotRecord struct {
	ID                       uint   `gorm:"primaryKey;autoIncrement"`
	Timestamp                uint64 `gorm:"index;not null"`
	ClearingPrice            string `gorm:"type:varchar(78);not null"`
	CurrentFlowRate          string `gorm:"type:varchar(78);not null"`
	CumulativeDemandRaised   string `gorm:"type:varchar(78);not null"`
	CumulativeSupplyReleased string `gorm:"type:varchar(78);not null"`
	CreatedAt                time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (SnapshotRecord) TableName() string { return "auction_snapshots" }

// GormBidStore implements auction.BidStore and auction.SnapshotRecorder on
// top of GORM and MySQL, adapted directly from the teacher's
// MySQLRecorder: same gorm.Open(mysql.Open(dsn), ...) bootstrap, same
// AutoMigrate call, same big-integer-as-string column convention.
type GormBidStore struct {
	db *gorm.DB
}

// NewGormBidStore opens a MySQL connection and migrates the bid and
// snapshot tables.
// dsn format: "user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
func NewGormBidStore(dsn string) (*GormBidStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	return NewGormBidStoreWithDB(db)
}

// NewGormBidStoreWithDB wraps an existing GORM DB instance and migrates the
// bid and snapshot tables.
func NewGormBidStoreWithDB(db *gorm.DB) (*GormBidStore, error) {
	if err := db.AutoMigrate(&BidRecord{}, &SnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &GormBidStore{db: db}, nil
}

// Get implements auction.BidStore.
func (s *GormBidStore) Get(id uint64) (*auction.Bid, bool) {
	var rec BidRecord
	result := s.db.First(&rec, "bid_id = ?", id)
	if result.Error != nil {
		return nil, false
	}
	bid, err := recordToBid(rec)
	if err != nil {
		return nil, false
	}
	return bid, true
}

// Insert implements auction.BidStore as an upsert keyed by bid_id.
func (s *GormBidStore) Insert(id uint64, bid *auction.Bid) error {
	rec, err := bidToRecord(id, bid)
	if err != nil {
		return fmt.Errorf("failed to encode bid %d: %w", id, err)
	}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bid_id"}},
		UpdateAll: true,
	}).Create(&rec)
	if result.Error != nil {
		return fmt.Errorf("failed to persist bid %d: %w", id, result.Error)
	}
	return nil
}

// Record implements auction.SnapshotRecorder.
func (s *GormBidStore) Record(snap auction.AuctionSnapshot) error {
	rec := SnapshotRecord{
		Timestamp:                snap.Timestamp,
		ClearingPrice:            amountToString(snap.ClearingPrice),
		CurrentFlowRate:          amountToString(snap.CurrentFlowRate),
		CumulativeDemandRaised:   amountToString(snap.CumulativeDemandRaised),
		CumulativeSupplyReleased: amountToString(snap.CumulativeSupplyReleased),
	}
	result := s.db.Create(&rec)
	if result.Error != nil {
		return fmt.Errorf("failed to record snapshot: %w", result.Error)
	}
	return nil
}

// Query implements auction.SnapshotRecorder, mirroring the original
// canister's get_snapshots(from_timestamp, take).
func (s *GormBidStore) Query(fromTimestamp uint64, take int) ([]auction.AuctionSnapshot, error) {
	var recs []SnapshotRecord
	result := s.db.Where("timestamp >= ?", fromTimestamp).
		Order("timestamp ASC").
		Limit(take).
		Find(&recs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", result.Error)
	}

	out := make([]auction.AuctionSnapshot, 0, len(recs))
	for _, rec := range recs {
		snap, err := recordToSnapshot(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// GetDB returns the underlying GORM DB instance for advanced host queries.
func (s *GormBidStore) GetDB() *gorm.DB { return s.db }

// Close closes the database connection.
func (s *GormBidStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying DB: %w", err)
	}
	return sqlDB.Close()
}

func amountToString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.ToBig().String()
}

func stringToAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal string %q", s)
	}
	v, overflow := new(uint256.Int).SetFromBig(b)
	if overflow {
		return nil, fmt.Errorf("value %q overflows uint256", s)
	}
	return v, nil
}

func bidToRecord(id uint64, bid *auction.Bid) (BidRecord, error) {
	rec := BidRecord{
		BidID:        id,
		Caller:       bid.Caller.Hex(),
		Amount:       amountToString(bid.Amount),
		MaxPrice:     amountToString(bid.MaxPrice),
		FlowRate:     amountToString(bid.FlowRate),
		AccSnapshot:  amountToString(bid.AccSnapshot),
		CreateTime:   bid.CreateTime,
		TokensFilled: amountToString(bid.TokensFilled),
		Refund:       amountToString(bid.Refund),
		ClaimTime:    bid.ClaimTime,
	}
	if bid.OutbidTime != nil {
		t := *bid.OutbidTime
		rec.OutbidTime = &t
		s := amountToString(bid.OutbidAccSnapshot)
		rec.OutbidAccSnapshot = &s
	}
	return rec, nil
}

func recordToBid(rec BidRecord) (*auction.Bid, error) {
	amount, err := stringToAmount(rec.Amount)
	if err != nil {
		return nil, err
	}
	maxPrice, err := stringToAmount(rec.MaxPrice)
	if err != nil {
		return nil, err
	}
	flowRate, err := stringToAmount(rec.FlowRate)
	if err != nil {
		return nil, err
	}
	accSnapshot, err := stringToAmount(rec.AccSnapshot)
	if err != nil {
		return nil, err
	}
	tokensFilled, err := stringToAmount(rec.TokensFilled)
	if err != nil {
		return nil, err
	}
	refund, err := stringToAmount(rec.Refund)
	if err != nil {
		return nil, err
	}

	bid := &auction.Bid{
		ID:           rec.BidID,
		Caller:       common.HexToAddress(rec.Caller),
		Amount:       amount,
		MaxPrice:     maxPrice,
		FlowRate:     flowRate,
		AccSnapshot:  accSnapshot,
		CreateTime:   rec.CreateTime,
		TokensFilled: tokensFilled,
		Refund:       refund,
		ClaimTime:    rec.ClaimTime,
	}
	if rec.OutbidTime != nil {
		t := *rec.OutbidTime
		bid.OutbidTime = &t
		if rec.OutbidAccSnapshot != nil {
			outbidAcc, err := stringToAmount(*rec.OutbidAccSnapshot)
			if err != nil {
				return nil, err
			}
			bid.OutbidAccSnapshot = outbidAcc
		}
	}
	return bid, nil
}

func recordToSnapshot(rec SnapshotRecord) (auction.AuctionSnapshot, error) {
	clearing, err := stringToAmount(rec.ClearingPrice)
	if err != nil {
		return auction.AuctionSnapshot{}, err
	}
	flowRate, err := stringToAmount(rec.CurrentFlowRate)
	if err != nil {
		return auction.AuctionSnapshot{}, err
	}
	demand, err := stringToAmount(rec.CumulativeDemandRaised)
	if err != nil {
		return auction.AuctionSnapshot{}, err
	}
	supply, err := stringToAmount(rec.CumulativeSupplyReleased)
	if err != nil {
		return auction.AuctionSnapshot{}, err
	}
	return auction.AuctionSnapshot{
		Timestamp:                rec.Timestamp,
		ClearingPrice:            clearing,
		CurrentFlowRate:          flowRate,
		CumulativeDemandRaised:   demand,
		CumulativeSupplyReleased: supply,
	}, nil
}
