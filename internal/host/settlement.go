// Package host demonstrates how a concrete chain would consume the
// engine's settlement records. It is deliberately thin: the engine treats
// cross-chain custody as out of scope (§1) and only emits
// BidInfo.refund / BidInfo.tokens_filled for a host to act on.
package host

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/tokenlisting/ccauction/auction"
)

// TokenTransferer sends an ERC-20 transfer and returns the transaction
// hash, analogous to the teacher's ContractClient.Send("transfer", ...).
type TokenTransferer interface {
	Transfer(ctx context.Context, token, to common.Address, amount *uint256.Int) (common.Hash, error)
}

// TxWaiter blocks until a transaction confirms, analogous to the teacher's
// TxListener.WaitForTransaction.
type TxWaiter interface {
	WaitForTransaction(ctx context.Context, hash common.Hash) error
}

// Settlement converts an engine claim into the two ERC-20 transfers a
// graduated (or refunded) bid implies: tokens to the bidder, currency
// refund to the bidder. It does not touch the engine itself — it is
// called by the host after Auction.Claim / Auction.ClaimAll succeeds.
type Settlement struct {
	Token      common.Address
	Currency   common.Address
	Transferer TokenTransferer
	Waiter     TxWaiter
}

// Receipt records what was actually sent for one settled bid, mirroring
// the teacher's per-operation gas-cost bookkeeping.
type Receipt struct {
	BidID      uint64
	TokenTx    *common.Hash
	CurrencyTx *common.Hash
}

// SettleBid sends the token transfer (if tokens were filled) and the
// currency refund (if anything is owed back), waiting for both to
// confirm before returning.
func (s *Settlement) SettleBid(ctx context.Context, info auction.BidInfo) (Receipt, error) {
	if s.Transferer == nil || s.Waiter == nil {
		return Receipt{}, errors.New("host: settlement not wired to a transferer/waiter")
	}

	receipt := Receipt{BidID: info.ID}

	if info.TokensFilled != nil && !info.TokensFilled.IsZero() {
		hash, err := s.Transferer.Transfer(ctx, s.Token, info.Caller, info.TokensFilled)
		if err != nil {
			return receipt, fmt.Errorf("failed to transfer filled tokens for bid %d: %w", info.ID, err)
		}
		if err := s.Waiter.WaitForTransaction(ctx, hash); err != nil {
			return receipt, fmt.Errorf("failed to confirm token transfer for bid %d: %w", info.ID, err)
		}
		receipt.TokenTx = &hash
		log.Printf("✓ tokens settled for bid %d: %s tokens -> %s", info.ID, info.TokensFilled.Dec(), info.Caller.Hex())
	}

	if info.Refund != nil && !info.Refund.IsZero() {
		hash, err := s.Transferer.Transfer(ctx, s.Currency, info.Caller, info.Refund)
		if err != nil {
			return receipt, fmt.Errorf("failed to transfer refund for bid %d: %w", info.ID, err)
		}
		if err := s.Waiter.WaitForTransaction(ctx, hash); err != nil {
			return receipt, fmt.Errorf("failed to confirm refund transfer for bid %d: %w", info.ID, err)
		}
		receipt.CurrencyTx = &hash
		log.Printf("✓ refund settled for bid %d: %s currency -> %s", info.ID, info.Refund.Dec(), info.Caller.Hex())
	}

	return receipt, nil
}

// SettleAll settles every bid returned by ClaimAll, best-effort: a single
// bid's settlement failure does not stop the rest, matching claim_all's
// own best-effort semantics in the engine.
func SettleAll(ctx context.Context, s *Settlement, infos []auction.BidInfo) []Receipt {
	receipts := make([]Receipt, 0, len(infos))
	for _, info := range infos {
		r, err := s.SettleBid(ctx, info)
		if err != nil {
			log.Printf("host: settlement failed for bid %d: %v", info.ID, err)
			continue
		}
		receipts = append(receipts, r)
	}
	return receipts
}
