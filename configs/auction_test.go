package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
rpc: "https://api.avax.network/ext/bc/C/rpc"
token: "0xTokenAddress"
currency: "0xCurrencyAddress"
auction:
  startTime: 1000
  endTime: 11000
  minBidDurationMs: 1000
  tokenDecimals: 8
  totalSupply: "100000000000"
  liquidityPoolAmount: "100000000"
  minAmount: "1000"
  maxAmount: "1000000000"
  requiredCurrencyRaised: "100000"
`

func writeSampleConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "auction.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeSampleConfig(t))
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), cfg.Auction.StartTime)
	assert.Equal(t, uint64(11000), cfg.Auction.EndTime)
	assert.Equal(t, uint8(8), cfg.Auction.TokenDecimals)
}

func TestToAuctionConfig(t *testing.T) {
	cfg, err := LoadConfig(writeSampleConfig(t))
	require.NoError(t, err)

	aucCfg, err := cfg.ToAuctionConfig()
	require.NoError(t, err)
	assert.NoError(t, aucCfg.Validate())
	assert.Equal(t, "100000000000", aucCfg.TotalSupply.Dec())
}

func TestToAuctionConfig_RejectsBadDecimal(t *testing.T) {
	cfg, err := LoadConfig(writeSampleConfig(t))
	require.NoError(t, err)
	cfg.Auction.TotalSupply = "not-a-number"

	_, err = cfg.ToAuctionConfig()
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path.yml")
	assert.Error(t, err)
}
