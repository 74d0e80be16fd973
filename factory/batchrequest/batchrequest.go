// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package batchrequest defines the request/response shapes and batch-size
// constants for the multicall-aggregator static calls the bootstrap
// pipeline issues (spec §4.6 step 7). The aggregator contract itself — the
// deployed Multicall-style batch reader — is an external collaborator
// (spec §1): this package only shapes what goes in and what comes back.
package batchrequest

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Batch size constants, chosen to keep a single eth_call's return data and
// gas estimate under typical node limits (spec §4.6 step 7).
const (
	// Slot0Batch bounds how many concentrated-liquidity pools' slot0 (tick,
	// liquidity, sqrt price) are fetched in one aggregator call.
	Slot0Batch = 255

	// TickBitmapMaxWords bounds the total tick-bitmap words fetched in one
	// aggregator call, across every pool in the batch.
	TickBitmapMaxWords = 6_900

	// TickBitmapMaxRanges bounds how many distinct (pool, word-range) pairs
	// one aggregator call may request, independent of total word count.
	TickBitmapMaxRanges = 90

	// TickInfoBatch bounds how many individual tick slots (liquidity_gross,
	// liquidity_net) are fetched in one aggregator call.
	TickInfoBatch = 60

	// DecimalsBatch bounds how many ERC-20 decimals() calls are fetched in
	// one aggregator call.
	DecimalsBatch = 765
)

// Chunk splits items into groups of at most size, preserving order. The
// last group may be smaller than size.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}

// Slot0Request/Slot0Result shape the concentrated-liquidity slot0 batch
// call (spec §4.6 step 7.i).
type Slot0Request struct {
	Pools []common.Address
	Block uint64
}

type Slot0Result struct {
	Pool         common.Address
	Tick         int32
	Liquidity    *uint256.Int
	SqrtPriceX96 *uint256.Int
}

// TickBitmapWordRange identifies one contiguous run of bitmap words to
// fetch for a single pool.
type TickBitmapWordRange struct {
	Pool      common.Address
	WordFrom  int16
	WordTo    int16 // inclusive
}

type TickBitmapRequest struct {
	Ranges []TickBitmapWordRange
	Block  uint64
}

type TickBitmapWordResult struct {
	Pool  common.Address
	Word  int16
	Value *uint256.Int
}

// TickInfoRequest/TickInfoResult shape the per-tick liquidity_gross /
// liquidity_net fetch (spec §4.6 step 7.iv), issued only for ticks the
// bitmap fetch reported initialized.
type TickInfoRequest struct {
	Pool  common.Address
	Ticks []int32
	Block uint64
}

type TickInfoResult struct {
	Pool           common.Address
	Tick           int32
	LiquidityGross *uint256.Int
	LiquidityNet   *big.Int
}

// DecimalsRequest/DecimalsResult shape the ERC-20 decimals() batch call
// tokenmeta issues through a Fetcher implementation.
type DecimalsRequest struct {
	Tokens []common.Address
	Block  uint64
}

type DecimalsResult struct {
	Token    common.Address
	Decimals uint8
}

// ReservesRequest/ReservesResult shape the constant-product getReserves()
// batch call (spec §4.6 step 7, constant-product branch).
type ReservesRequest struct {
	Pools []common.Address
	Block uint64
}

type ReservesResult struct {
	Pool     common.Address
	ReserveA *uint256.Int
	ReserveB *uint256.Int
}
