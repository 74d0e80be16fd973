// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"math"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDivUU(t *testing.T) {
	x := uint256.NewInt(1_000_000)
	y := uint256.NewInt(3)
	q, err := DivUU(x, y)
	require.NoError(t, err)

	got := Q64ToF64(q)
	want := 1_000_000.0 / 3.0
	assert.InEpsilon(t, want, got, 1e-9)
}

func TestDivUUZeroDenominator(t *testing.T) {
	_, err := DivUU(uint256.NewInt(1), uint256.NewInt(0))
	require.Error(t, err)
}

func TestDivUURoundingLoss(t *testing.T) {
	// x huge, y tiny: (x<<64)/y overflows 128 bits.
	x := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	y := uint256.NewInt(1)
	_, err := DivUU(x, y)
	require.Error(t, err)
}

func TestTickRoundTrip(t *testing.T) {
	for _, tick := range []int32{0, 1, -1, 100, -100, 1000, -1000, 50000, -50000, MinTick, MaxTick - 1, MinTick + 1} {
		sqrtPrice, err := GetSqrtRatioAtTick(tick)
		require.NoError(t, err, "tick %d", tick)

		gotTick, err := GetTickAtSqrtRatio(sqrtPrice)
		require.NoError(t, err, "tick %d", tick)
		assert.Equal(t, tick, gotTick, "round trip for tick %d", tick)
	}

	// MaxTick maps to MaxSqrtRatio, which lies outside GetTickAtSqrtRatio's
	// half-open domain [MinSqrtRatio, MaxSqrtRatio), as on-chain.
	sqrtMax, err := GetSqrtRatioAtTick(MaxTick)
	require.NoError(t, err)
	assert.True(t, sqrtMax.Eq(MaxSqrtRatio))
	_, err = GetTickAtSqrtRatio(sqrtMax)
	require.Error(t, err)
}

func TestTickOutOfRange(t *testing.T) {
	_, err := GetSqrtRatioAtTick(MaxTick + 1)
	require.Error(t, err)
	_, err = GetSqrtRatioAtTick(MinTick - 1)
	require.Error(t, err)
}

func TestSqrtRatioMonotonic(t *testing.T) {
	prev, err := GetSqrtRatioAtTick(MinTick)
	require.NoError(t, err)
	for tick := MinTick + 1000; tick <= MaxTick; tick += 1000 {
		cur, err := GetSqrtRatioAtTick(tick)
		require.NoError(t, err)
		assert.True(t, cur.Gt(prev), "sqrt ratio must increase with tick")
		prev = cur
	}
}

func TestComputeSwapStepExactInStaysWithinTarget(t *testing.T) {
	current, err := GetSqrtRatioAtTick(0)
	require.NoError(t, err)
	target, err := GetSqrtRatioAtTick(100)
	require.NoError(t, err)

	liquidity := new(uint256.Int).Lsh(uint256.NewInt(1), 60)
	amountRemaining := new(uint256.Int).Lsh(uint256.NewInt(1), 40)

	step := ComputeSwapStep(current, target, liquidity, amountRemaining, 3000)
	assert.False(t, step.AmountOut.IsZero())
	assert.True(t, step.SqrtPriceNext.Cmp(current) >= 0)
	assert.True(t, step.SqrtPriceNext.Cmp(target) <= 0)
}

func TestComputeSwapStepPartialFill(t *testing.T) {
	current, err := GetSqrtRatioAtTick(0)
	require.NoError(t, err)
	target, err := GetSqrtRatioAtTick(887000)
	require.NoError(t, err)

	liquidity := new(uint256.Int).Lsh(uint256.NewInt(1), 40)
	amountRemaining := uint256.NewInt(1000)

	step := ComputeSwapStep(current, target, liquidity, amountRemaining, 3000)
	// A tiny amount against huge liquidity over a huge price range should
	// not reach the target price.
	assert.NotEqual(t, 0, step.SqrtPriceNext.Cmp(target))
	sum := new(uint256.Int).Add(step.AmountIn, step.FeeAmount)
	assert.True(t, sum.Cmp(amountRemaining) <= 0)
}

func TestBMulBDivIdentity(t *testing.T) {
	a, err := BMul(BONE, BONE)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Cmp(BONE))

	b, err := BDiv(BONE, BONE)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Cmp(BONE))
}

func TestBPowOne(t *testing.T) {
	out, err := BPow(BONE, BONE)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Cmp(BONE))
}

func TestBSubUnderflow(t *testing.T) {
	twoBone := new(big.Int).Add(BONE, BONE)
	_, err := BSub(BONE, twoBone)
	require.Error(t, err)
}

func TestQ64ToF64Approx(t *testing.T) {
	x := OneQ64()
	got := Q64ToF64(x)
	assert.InDelta(t, 1.0, got, 1e-12)
	assert.False(t, math.IsNaN(got))
}
