// Command auctionsim replays a scripted sequence of bids against the
// continuous clearing auction engine with an in-memory store and prints
// AuctionInfo snapshots, the way the teacher's cmd/main.go wires Blackhole
// to a live RPC endpoint and prints a strategy report channel.
package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"

	"github.com/tokenlisting/ccauction/auction"
	"github.com/tokenlisting/ccauction/configs"
	"github.com/tokenlisting/ccauction/internal/store"
)

// scriptedBid is one line of the replay script: a caller address, a
// currency amount, a max price, and the timestamp the bid arrives at.
type scriptedBid struct {
	caller   common.Address
	amount   uint64
	maxPrice uint64
	now      uint64
}

func main() {
	if err := godotenv.Load(".env.local"); err != nil {
		fmt.Fprintf(os.Stderr, "no .env.local found, continuing with defaults: %v\n", err)
	}

	configPath := "configs/auction.yml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := configs.LoadConfig(configPath)
	if err != nil {
		panic(err)
	}

	aucCfg, err := cfg.ToAuctionConfig()
	if err != nil {
		panic(err)
	}

	memStore := store.NewMemoryStore()
	a, err := auction.NewAuction(aucCfg, memStore)
	if err != nil {
		panic(err)
	}

	script := []scriptedBid{
		{caller: common.HexToAddress("0x1"), amount: 50_000, maxPrice: 500, now: aucCfg.StartTime + 1},
		{caller: common.HexToAddress("0x2"), amount: 50_000, maxPrice: 500, now: aucCfg.StartTime + 5000},
		{caller: common.HexToAddress("0x3"), amount: 50_000, maxPrice: 500, now: aucCfg.StartTime + 8000},
	}

	for _, b := range script {
		info, snap, err := a.Submit(b.caller, uint256.NewInt(b.amount), uint256.NewInt(b.maxPrice), b.now)
		if err != nil {
			fmt.Printf("t=%d submit from %s rejected: %v\n", b.now, b.caller.Hex(), err)
			continue
		}
		fmt.Printf("t=%d bid %d accepted: flow_rate=%s clearing=%s\n",
			b.now, info.ID, info.FlowRate.Dec(), snap.ClearingPrice.Dec())
	}

	endInfo := a.GetInfo(aucCfg.EndTime + 1)
	fmt.Printf("auction ended: graduated=%v demand=%s supply_released=%s\n",
		endInfo.IsGraduated, endInfo.CumulativeDemandRaised.Dec(), endInfo.CumulativeSupplyReleased.Dec())

	for _, b := range script {
		settled := a.ClaimAll(b.caller, aucCfg.EndTime+1)
		for _, info := range settled {
			fmt.Printf("bid %d settled: tokens_filled=%s refund=%s\n", info.ID, info.TokensFilled.Dec(), info.Refund.Dec())
		}
	}
}
