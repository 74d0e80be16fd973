// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clmm

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/statespace/fixedpoint"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	tokenA := common.HexToAddress("0x1")
	tokenB := common.HexToAddress("0x2")
	p := New(common.HexToAddress("0xAbC"), tokenA, tokenB, 18, 18, 3000, 60)
	p.Tick = 0
	sqrtP, err := fixedpoint.GetSqrtRatioAtTick(0)
	require.NoError(t, err)
	p.SqrtPriceX96 = sqrtP
	return p
}

func TestModifyPositionFlipsBitmapAndAppliesLiquidity(t *testing.T) {
	p := newTestPool(t)

	delta := big.NewInt(1_000_000)
	require.NoError(t, p.ModifyPosition(-60, 60, delta))

	assert.Equal(t, uint256.NewInt(1_000_000), p.Liquidity, "current tick 0 is within [-60, 60), liquidity applies")

	lowerCompressed := floorDiv(-60, p.TickSpacing)
	upperCompressed := floorDiv(60, p.TickSpacing)
	assert.True(t, p.bitmap.isSet(lowerCompressed), "lower bound should flip to initialized")
	assert.True(t, p.bitmap.isSet(upperCompressed), "upper bound should flip to initialized")

	lowerInfo, ok := p.Ticks[-60]
	require.True(t, ok)
	assert.Equal(t, uint256.NewInt(1_000_000), lowerInfo.LiquidityGross)
	assert.Equal(t, big.NewInt(1_000_000), lowerInfo.LiquidityNet)

	upperInfo, ok := p.Ticks[60]
	require.True(t, ok)
	assert.Equal(t, uint256.NewInt(1_000_000), upperInfo.LiquidityGross)
	assert.Equal(t, big.NewInt(-1_000_000), upperInfo.LiquidityNet, "upper bound liquidity_net is negated")
}

func TestModifyPositionOutOfRangeDoesNotApplyLiquidity(t *testing.T) {
	p := newTestPool(t)
	p.Tick = 120 // outside [-60, 60)

	require.NoError(t, p.ModifyPosition(-60, 60, big.NewInt(500)))
	assert.True(t, p.Liquidity.IsZero(), "current tick outside range must not move pool liquidity")
}

func TestModifyPositionBurnUnwindsAndUnflipsBitmap(t *testing.T) {
	p := newTestPool(t)
	require.NoError(t, p.ModifyPosition(-60, 60, big.NewInt(1_000_000)))
	require.NoError(t, p.ModifyPosition(-60, 60, big.NewInt(-1_000_000)))

	assert.True(t, p.Liquidity.IsZero())
	_, lowerExists := p.Ticks[-60]
	_, upperExists := p.Ticks[60]
	assert.False(t, lowerExists, "fully burned lower tick must be removed")
	assert.False(t, upperExists, "fully burned upper tick must be removed")

	lowerCompressed := floorDiv(-60, p.TickSpacing)
	assert.False(t, p.bitmap.isSet(lowerCompressed))
}

func TestModifyPositionBurnMoreThanGrossUnderflows(t *testing.T) {
	p := newTestPool(t)
	require.NoError(t, p.ModifyPosition(-60, 60, big.NewInt(1000)))
	err := p.ModifyPosition(-60, 60, big.NewInt(-2000))
	assert.Error(t, err)
}

func TestSimulateSwapConsumesWithinSingleRangeLiquidity(t *testing.T) {
	p := newTestPool(t)
	require.NoError(t, p.ModifyPosition(-60000, 60000, big.NewInt(1_000_000_000_000)))

	out, err := p.SimulateSwap(p.TokenA, p.TokenB, uint256.NewInt(1_000_000))
	require.NoError(t, err)
	assert.False(t, out.IsZero(), "swap within deep single-range liquidity should produce nonzero output")
}

func TestSimulateSwapMutMovesPriceDownOnZeroForOne(t *testing.T) {
	p := newTestPool(t)
	require.NoError(t, p.ModifyPosition(-60000, 60000, big.NewInt(1_000_000_000_000)))
	startPrice := new(uint256.Int).Set(p.SqrtPriceX96)

	_, err := p.SimulateSwapMut(p.TokenA, p.TokenB, uint256.NewInt(1_000_000))
	require.NoError(t, err)
	assert.True(t, p.SqrtPriceX96.Cmp(startPrice) <= 0, "selling token_a for token_b must not raise sqrt price")
}

func TestSimulateSwapZeroAmountIsNoop(t *testing.T) {
	p := newTestPool(t)
	out, err := p.SimulateSwap(p.TokenA, p.TokenB, new(uint256.Int))
	require.NoError(t, err)
	assert.True(t, out.IsZero())
}

func TestSimulateSwapRejectsForeignToken(t *testing.T) {
	p := newTestPool(t)
	_, err := p.SimulateSwap(common.HexToAddress("0xDEAD"), p.TokenB, uint256.NewInt(1))
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	p := newTestPool(t)
	require.NoError(t, p.ModifyPosition(-60, 60, big.NewInt(1000)))

	clone := p.Clone().(*Pool)
	require.NoError(t, clone.ModifyPosition(-60, 60, big.NewInt(-1000)))

	assert.False(t, p.Liquidity.IsZero(), "mutating the clone must not affect the original")
	assert.True(t, clone.Liquidity.IsZero())
}
