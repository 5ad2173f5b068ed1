// Package auction implements a continuous clearing auction engine: a fixed
// token supply is released over a time window, with the supply rate rebased
// over the remaining time on every state update, while bids, each committing
// a currency budget at a bidder-chosen max price, compete for it at a single
// moving clearing price.
//
// An Auction owns no background goroutines and never reads wall time — the
// caller supplies now on every call. Mutating calls (Submit, Claim,
// ClaimAll) serialize through an internal write lock; reads (GetInfo,
// EstimateMaxPrice, GetGroupedBids, ...) take a read lock and never mutate
// state.
package auction
