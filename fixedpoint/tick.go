// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/luxfi/statespace/ssmerrors"
)

// ratioConstants are the bit-indexed magic multipliers from the canonical
// Uniswap V3 TickMath.getSqrtRatioAtTick ladder. Each is a Q128.128 fixed
// point approximation of 1.0001^(-2^i), chained together via the absolute
// tick's binary expansion. These are the exact constants embedded in every
// on-chain Uniswap V3 deployment; reproducing them here (rather than
// deriving them from first principles) is what makes GetSqrtRatioAtTick
// agree with the chain bit-for-bit.
var ratioConstants = []string{
	"0xfffcb933bd6fad37aa2d162d1a594001",
	"0xfff97272373d413259a46990580e213a",
	"0xfff2e50f5f656932ef12357cf3c7fdcc",
	"0xffe5caca7e10e4e61c3624eaa0941cd0",
	"0xffcb9843d60f6159c9db58835c926644",
	"0xff973b41fa98c081472e6896dfb254c0",
	"0xff2ea16466c96a3843ec78b326b52861",
	"0xfe5dee046a99a2a811c461f1969c3053",
	"0xfcbe86c7900a88aedcffc83b479aa3a4",
	"0xf987a7253ac413176f2b074cf7815e54",
	"0xf3392b0822b70005940c7a398e4b70f3",
	"0xe7159475a2c29b7443b29c7fa6e889d9",
	"0xd097f3bdfd2022b8845ad8f792aa5825",
	"0xa9f746462d870fdf8a65dc1f90e061e5",
	"0x70d869a156d2a1b890bb3df62baf32f7",
	"0x31be135f97d08fd981231505542fcfa6",
	"0x9aa508b5b7a84e1c677de54f3e99bc9",
	"0x5d6af8dedb81196699c329225ee604",
	"0x2216e584f5fa1ea926041bedfe98",
	"0x48a170391f7dc42444e8fa2",
}

var ratioConstantsBig = mustParseRatioConstants()

func mustParseRatioConstants() []*big.Int {
	out := make([]*big.Int, len(ratioConstants))
	for i, s := range ratioConstants {
		v, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			panic("fixedpoint: bad ratio constant " + s)
		}
		out[i] = v
	}
	return out
}

var (
	q128Big    = new(big.Int).Lsh(big.NewInt(1), 128)
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// GetSqrtRatioAtTick computes the Q96 sqrt price for a tick, matching the
// on-chain TickMath.getSqrtRatioAtTick exactly across [MinTick, MaxTick].
func GetSqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: tick %d outside [%d, %d]", ssmerrors.ErrInvalidTick, tick, MinTick, MaxTick)
	}

	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(big.Int)
	if absTick&0x1 != 0 {
		ratio.Set(ratioConstantsBig[0])
	} else {
		ratio.Set(q128Big)
	}
	for i := 1; i < len(ratioConstantsBig); i++ {
		bit := uint32(1) << uint(i)
		if absTick&bit != 0 {
			ratio.Mul(ratio, ratioConstantsBig[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Quo(maxUint256, ratio)
	}

	// Downshift from Q128.128 to Q128.96, rounding up.
	sqrtPriceX96 := new(big.Int).Rsh(ratio, 32)
	rem := new(big.Int).And(ratio, new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 32), big.NewInt(1)))
	if rem.Sign() != 0 {
		sqrtPriceX96.Add(sqrtPriceX96, big.NewInt(1))
	}

	out, overflow := uint256FromBig(sqrtPriceX96)
	if overflow {
		return nil, fmt.Errorf("%w: sqrt ratio overflowed 256 bits", ssmerrors.ErrArithmeticOverflow)
	}
	return out, nil
}

const (
	tickLowConst  = "3402992956809132418596140100660247210"
	tickHighConst = "291339464771989622907027621153398088495"
	logMultiplier = "255738958999603826347141"
)

var (
	tickLowConstBig  = mustBig(tickLowConst)
	tickHighConstBig = mustBig(tickHighConst)
	logMultiplierBig = mustBig(logMultiplier)
)

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("fixedpoint: bad constant " + s)
	}
	return v
}

// GetTickAtSqrtRatio computes the greatest tick whose sqrt ratio is <= the
// given Q96 sqrt price, matching the on-chain TickMath.getTickAtSqrtRatio.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96.Lt(MinSqrtRatio) || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, fmt.Errorf("%w: sqrt ratio outside [MIN_SQRT_RATIO, MAX_SQRT_RATIO)", ssmerrors.ErrInvalidTick)
	}

	ratio := new(big.Int).Lsh(bigFromUint256(sqrtPriceX96), 32)

	msb := ratio.BitLen() - 1

	var r *big.Int
	if msb >= 128 {
		r = new(big.Int).Rsh(ratio, uint(msb-127))
	} else {
		r = new(big.Int).Lsh(ratio, uint(127-msb))
	}
	r.And(r, maxUint256)

	log2 := new(big.Int).Lsh(big.NewInt(int64(msb-128)), 64)

	for i := 63; i >= 50; i-- {
		r.Mul(r, r)
		r.Rsh(r, 127)
		r.And(r, maxUint256)
		f := new(big.Int).Rsh(r, 128)
		log2.Or(log2, new(big.Int).Lsh(f, uint(i)))
		r.Rsh(r, uint(f.Uint64()))
	}

	// log2 is a signed Q64.64 value (may be negative); emulate EVM's int256
	// semantics by computing over a signed big.Int directly (Go's big.Int is
	// already arbitrary-precision signed, so no two's-complement dance is
	// needed here).
	logSqrt10001 := new(big.Int).Mul(log2, logMultiplierBig)

	tickLow := new(big.Int).Rsh(new(big.Int).Sub(logSqrt10001, tickLowConstBig), 128)
	tickHigh := new(big.Int).Rsh(new(big.Int).Add(logSqrt10001, tickHighConstBig), 128)

	// big.Int.Rsh is an arithmetic shift only for non-negative receivers; for
	// negative values Go's Rsh on big.Int performs floor division by a power
	// of two (matching Solidity's SAR), which is exactly what we want here.

	tickLow32 := int32(tickLow.Int64())
	tickHigh32 := int32(tickHigh.Int64())

	if tickLow32 == tickHigh32 {
		return tickLow32, nil
	}

	atHigh, err := GetSqrtRatioAtTick(tickHigh32)
	if err != nil {
		return 0, err
	}
	if atHigh.Cmp(sqrtPriceX96) <= 0 {
		return tickHigh32, nil
	}
	return tickLow32, nil
}
