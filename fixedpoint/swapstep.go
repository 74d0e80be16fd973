// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// SwapStep is the result of one concentrated-liquidity swap-step iteration.
type SwapStep struct {
	SqrtPriceNext *uint256.Int
	AmountIn      *uint256.Int
	AmountOut     *uint256.Int
	FeeAmount     *uint256.Int
}

const feeDenominator = 1_000_000 // fee_ppm is parts-per-million, matching Uniswap V3's feePips.

func divRoundingUp(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func mulDiv(a, b, denom *big.Int) *big.Int {
	num := new(big.Int).Mul(a, b)
	return new(big.Int).Quo(num, denom)
}

func mulDivRoundingUp(a, b, denom *big.Int) *big.Int {
	num := new(big.Int).Mul(a, b)
	return divRoundingUp(num, denom)
}

// getAmount0Delta returns the amount of token0 required to move the price
// between sqrtA and sqrtB for the given liquidity, matching
// SqrtPriceMath.getAmount0Delta.
func getAmount0Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	numerator1 := new(big.Int).Lsh(liquidity, 96)
	numerator2 := new(big.Int).Sub(sqrtB, sqrtA)
	if sqrtA.Sign() <= 0 {
		return big.NewInt(0)
	}
	if roundUp {
		return divRoundingUp(mulDivRoundingUp(numerator1, numerator2, sqrtB), sqrtA)
	}
	return new(big.Int).Quo(mulDiv(numerator1, numerator2, sqrtB), sqrtA)
}

// getAmount1Delta returns the amount of token1 required to move the price
// between sqrtA and sqrtB for the given liquidity, matching
// SqrtPriceMath.getAmount1Delta.
func getAmount1Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	diff := new(big.Int).Sub(sqrtB, sqrtA)
	if roundUp {
		return mulDivRoundingUp(liquidity, diff, q96Big)
	}
	return mulDiv(liquidity, diff, q96Big)
}

// getNextSqrtPriceFromAmount0RoundingUp matches
// SqrtPriceMath.getNextSqrtPriceFromAmount0RoundingUp (add == true only; the
// state space never removes token0 from a pool it is walking forward).
func getNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *big.Int) *big.Int {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPX96)
	}
	numerator1 := new(big.Int).Lsh(liquidity, 96)
	product := new(big.Int).Mul(amount, sqrtPX96)
	denominator := new(big.Int).Add(numerator1, product)
	if denominator.Cmp(numerator1) >= 0 {
		return mulDivRoundingUp(numerator1, sqrtPX96, denominator)
	}
	// Denominator underflowed a 256-bit register on-chain; fall back to the
	// equivalent division form used by the reference implementation.
	denom2 := new(big.Int).Add(new(big.Int).Quo(numerator1, sqrtPX96), amount)
	return divRoundingUp(numerator1, denom2)
}

// getNextSqrtPriceFromAmount1RoundingDown matches
// SqrtPriceMath.getNextSqrtPriceFromAmount1RoundingDown (add == true only).
func getNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *big.Int) *big.Int {
	quotient := mulDiv(amount, q96Big, liquidity)
	return new(big.Int).Add(sqrtPX96, quotient)
}

func getNextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *big.Int, zeroForOne bool) *big.Int {
	if zeroForOne {
		return getNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn)
	}
	return getNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn)
}

// ComputeSwapStep is the canonical Uniswap-V3 step function for an
// exact-input swap: given the current price, the price limit for this tick
// range, the active liquidity, the remaining input amount, and the fee (in
// parts-per-million), it returns the next price and how much of the input
// was consumed, produced, and paid in fees. The state-space's tick-walking
// loop (clmm.Pool.simulate) only ever drives this in the exact-input
// direction (spec §4.3), so there is no exact-output branch here.
func ComputeSwapStep(sqrtPriceCurrent, sqrtPriceTarget *uint256.Int, liquidity *uint256.Int, amountRemaining *uint256.Int, feePPM uint32) SwapStep {
	current := bigFromUint256(sqrtPriceCurrent)
	target := bigFromUint256(sqrtPriceTarget)
	liq := bigFromUint256(liquidity)
	remaining := bigFromUint256(amountRemaining)
	fee := big.NewInt(int64(feePPM))
	denom := big.NewInt(feeDenominator)

	zeroForOne := current.Cmp(target) >= 0

	remainingLessFee := mulDiv(remaining, new(big.Int).Sub(denom, fee), denom)

	var amountIn *big.Int
	if zeroForOne {
		amountIn = getAmount0Delta(target, current, liq, true)
	} else {
		amountIn = getAmount1Delta(current, target, liq, true)
	}

	var sqrtNext *big.Int
	if remainingLessFee.Cmp(amountIn) >= 0 {
		sqrtNext = new(big.Int).Set(target)
	} else {
		sqrtNext = getNextSqrtPriceFromInput(current, liq, remainingLessFee, zeroForOne)
	}

	reachedTarget := sqrtNext.Cmp(target) == 0

	var amountOut *big.Int
	if zeroForOne {
		if !reachedTarget {
			amountIn = getAmount0Delta(sqrtNext, current, liq, true)
		}
		amountOut = getAmount1Delta(sqrtNext, current, liq, false)
	} else {
		if !reachedTarget {
			amountIn = getAmount1Delta(current, sqrtNext, liq, true)
		}
		amountOut = getAmount0Delta(current, sqrtNext, liq, false)
	}

	var feeAmount *big.Int
	if !reachedTarget {
		feeAmount = new(big.Int).Sub(remaining, amountIn)
	} else if fee.Sign() == 0 {
		feeAmount = big.NewInt(0)
	} else {
		feeAmount = mulDivRoundingUp(amountIn, fee, new(big.Int).Sub(denom, fee))
	}

	toU256 := func(b *big.Int) *uint256.Int {
		v, _ := uint256FromBig(b)
		return v
	}

	return SwapStep{
		SqrtPriceNext: toU256(sqrtNext),
		AmountIn:      toU256(amountIn),
		AmountOut:     toU256(amountOut),
		FeeAmount:     toU256(feeAmount),
	}
}
