// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package amm defines the common AMM interface every pool variant
// implements (spec §2.2, §4.2-§4.4, §9 "Polymorphism over pool kinds") and
// the tagged-variant wrapper the rest of the state space manager stores.
package amm

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/chainlog"
)

// Variant tags the concrete kind backing an AMM value. Spec §9 prescribes a
// tagged sum dispatched through a common interface over deep inheritance;
// this is that tag.
type Variant uint8

const (
	VariantConstantProduct Variant = iota
	VariantConcentratedLiquidity
	VariantVault
	VariantWeighted
)

func (v Variant) String() string {
	switch v {
	case VariantConstantProduct:
		return "constant_product"
	case VariantConcentratedLiquidity:
		return "concentrated_liquidity"
	case VariantVault:
		return "vault"
	case VariantWeighted:
		return "weighted"
	default:
		return "unknown"
	}
}

// AMM is the common surface every pool variant implements. Equality and
// hashing for the state space's map key are by Address alone (spec §3) —
// this interface intentionally never exposes an Equal/Hash method; callers
// key maps by Address() directly.
type AMM interface {
	// Address is the pool's on-chain contract address.
	Address() common.Address

	// Variant identifies the concrete implementation.
	Variant() Variant

	// SyncEventSignatures lists the topic-0 hashes this pool dispatches on
	// in Sync; used to build the composite state-space filter (spec §3,
	// §4.6).
	SyncEventSignatures() []common.Hash

	// Sync applies a single decoded log to the pool's mutable state,
	// dispatching on the log's topic-0. It must be called with logs for
	// this pool's Address only, in block-then-log-index order.
	Sync(log chainlog.Log) error

	// Tokens returns the pool's constituent token addresses, in the pool's
	// own canonical order (token_a/token_b for two-token pools, or the
	// full basket for a weighted pool).
	Tokens() []common.Address

	// Clone returns a deep copy suitable for storing as a change-cache
	// pre-image (spec §4.5, §4.6): mutating the clone must never affect
	// the receiver.
	Clone() AMM

	// SimulateSwap returns the amount of quote the pool would emit for
	// amountIn of base, without mutating state.
	SimulateSwap(base, quote common.Address, amountIn *uint256.Int) (*uint256.Int, error)

	// SimulateSwapMut is SimulateSwap but also applies the resulting state
	// change in place, used by local simulators that chain multiple swaps.
	SimulateSwapMut(base, quote common.Address, amountIn *uint256.Int) (*uint256.Int, error)

	// CalculatePrice returns the spot price of quote in terms of base, as a
	// Q64.64 fixed point value (spec §4.2/§4.3).
	CalculatePrice(base, quote common.Address) (*uint256.Int, error)
}

// HasToken reports whether addr is one of amm's constituent tokens.
func HasToken(a AMM, addr common.Address) bool {
	for _, t := range a.Tokens() {
		if t == addr {
			return true
		}
	}
	return false
}
