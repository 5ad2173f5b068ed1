// Package configs loads auction manifests from YAML, parallel to the
// teacher's configs package.
package configs

import (
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"github.com/tokenlisting/ccauction/auction"
)

// AuctionYAMLData is the on-disk shape of an auction manifest. Wide
// quantities are decimal strings, the same convention the GORM store uses
// for columns that must hold a full uint256.
type AuctionYAMLData struct {
	StartTime              uint64 `yaml:"startTime"`
	EndTime                uint64 `yaml:"endTime"`
	MinBidDuration         uint64 `yaml:"minBidDurationMs"`
	TokenDecimals          uint8  `yaml:"tokenDecimals"`
	TotalSupply            string `yaml:"totalSupply"`
	LiquidityPoolAmount    string `yaml:"liquidityPoolAmount"`
	MinAmount              string `yaml:"minAmount"`
	MaxAmount              string `yaml:"maxAmount"`
	RequiredCurrencyRaised string `yaml:"requiredCurrencyRaised"`
}

// Config is the top-level manifest: a single auction plus the currency
// pair it settles, mirroring the shape of the teacher's top-level Config.
type Config struct {
	RPC      string          `yaml:"rpc"`
	Token    string          `yaml:"token"`
	Currency string          `yaml:"currency"`
	Auction  AuctionYAMLData `yaml:"auction"`
}

// LoadConfig reads and parses an auction manifest YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return &cfg, nil
}

// ToAuctionConfig converts the YAML manifest into the engine's
// AuctionConfig, decoding each wide quantity from its decimal string.
func (c *Config) ToAuctionConfig() (auction.AuctionConfig, error) {
	totalSupply, err := parseUint256(c.Auction.TotalSupply)
	if err != nil {
		return auction.AuctionConfig{}, fmt.Errorf("totalSupply: %w", err)
	}
	liquidityPool, err := parseUint256(c.Auction.LiquidityPoolAmount)
	if err != nil {
		return auction.AuctionConfig{}, fmt.Errorf("liquidityPoolAmount: %w", err)
	}
	minAmount, err := parseUint256(c.Auction.MinAmount)
	if err != nil {
		return auction.AuctionConfig{}, fmt.Errorf("minAmount: %w", err)
	}
	maxAmount, err := parseUint256(c.Auction.MaxAmount)
	if err != nil {
		return auction.AuctionConfig{}, fmt.Errorf("maxAmount: %w", err)
	}
	required, err := parseUint256(c.Auction.RequiredCurrencyRaised)
	if err != nil {
		return auction.AuctionConfig{}, fmt.Errorf("requiredCurrencyRaised: %w", err)
	}

	return auction.AuctionConfig{
		StartTime:              c.Auction.StartTime,
		EndTime:                c.Auction.EndTime,
		MinBidDuration:         c.Auction.MinBidDuration,
		TokenDecimals:          c.Auction.TokenDecimals,
		TotalSupply:            totalSupply,
		LiquidityPoolAmount:    liquidityPool,
		MinAmount:              minAmount,
		MaxAmount:              maxAmount,
		RequiredCurrencyRaised: required,
	}, nil
}

func parseUint256(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty value")
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return v, nil
}
