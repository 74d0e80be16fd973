// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fixedpoint is the pure, deterministic math kernel shared by every
// AMM variant: Q64/Q96 fixed point, the base-1.0001 tick ladder, the
// canonical Uniswap-V3 swap-step function, and the Balancer-style weighted
// pool helpers (bmul/bdiv/bpow/badd/bsub). No function here performs I/O or
// suspends; everything is a pure transform over big integers.
package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Tick bounds, identical to the on-chain TickMath.MIN_TICK / MAX_TICK.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// BONE is the weighted-pool fixed-point unit (1e18), matching Balancer's
// BMath.BONE.
var BONE = big.NewInt(1e18)

// Q96 / Q192 are the concentrated-liquidity fixed-point scales.
var (
	q96Big  = new(big.Int).Lsh(big.NewInt(1), 96)
	q192Big = new(big.Int).Lsh(big.NewInt(1), 192)
)

// MinSqrtRatio / MaxSqrtRatio bound sqrt_price_q96, identical to the on-chain
// TickMath.MIN_SQRT_RATIO / MAX_SQRT_RATIO (the sqrt ratios at MIN_TICK and
// MAX_TICK respectively).
var (
	MinSqrtRatio = uint256.MustFromDecimal("4295128739")
	MaxSqrtRatio = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342")
)

func bigFromUint256(x *uint256.Int) *big.Int {
	return x.ToBig()
}

func uint256FromBig(x *big.Int) (*uint256.Int, bool) {
	return uint256.FromBig(x)
}

// PriceFromSqrtRatioX96 computes sqrt_price^2 / 2^192 as a float64 spot
// price of token1 in terms of token0 — the quantity the CLMM invariant in
// spec §3 defines tick consistency against.
func PriceFromSqrtRatioX96(sqrtPriceX96 *uint256.Int) float64 {
	num := new(big.Int).Mul(bigFromUint256(sqrtPriceX96), bigFromUint256(sqrtPriceX96))
	f := new(big.Float).SetInt(num)
	f.Quo(f, new(big.Float).SetInt(q192Big))
	out, _ := f.Float64()
	return out
}
