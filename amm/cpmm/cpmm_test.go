// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cpmm

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/statespace/chainlog"
	"github.com/luxfi/statespace/ssmerrors"
)

func newTestPool(reserveA, reserveB uint64) *Pool {
	p := New(common.HexToAddress("0xPOOL"), common.HexToAddress("0xA"), common.HexToAddress("0xB"), 18, 18, 30)
	p.ReserveA = uint256.NewInt(reserveA)
	p.ReserveB = uint256.NewInt(reserveB)
	return p
}

func TestSyncUpdatesReserves(t *testing.T) {
	p := newTestPool(0, 0)
	data := make([]byte, 64)
	big.NewInt(1000).FillBytes(data[0:32])
	big.NewInt(2000).FillBytes(data[32:64])
	err := p.Sync(chainlog.Log{Address: p.Addr, Topics: []common.Hash{chainlog.TopicSyncV2}, Data: data})
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), p.ReserveA.Uint64())
	assert.Equal(t, uint64(2000), p.ReserveB.Uint64())
}

func TestSyncRejectsWrongTopic(t *testing.T) {
	p := newTestPool(0, 0)
	err := p.Sync(chainlog.Log{Address: p.Addr, Topics: []common.Hash{common.HexToHash("0xdead")}, Data: make([]byte, 64)})
	assert.ErrorIs(t, err, ssmerrors.ErrInvalidEventSignature)
}

func TestSimulateSwapMatchesUniswapV2Formula(t *testing.T) {
	p := newTestPool(1_000_000, 1_000_000)
	out, err := p.SimulateSwap(p.TokenA, p.TokenB, uint256.NewInt(1000))
	require.NoError(t, err)
	// amountInWithFee = 1000 * 9970 = 9_970_000
	// out = 9_970_000 * 1_000_000 / (1_000_000*10_000 + 9_970_000) = 996 (truncated)
	assert.Equal(t, uint64(996), out.Uint64())
}

func TestSimulateSwapZeroAmountIsNoop(t *testing.T) {
	p := newTestPool(1_000_000, 1_000_000)
	out, err := p.SimulateSwap(p.TokenA, p.TokenB, uint256.NewInt(0))
	require.NoError(t, err)
	assert.True(t, out.IsZero())
}

func TestSimulateSwapRejectsUnknownPair(t *testing.T) {
	p := newTestPool(1_000_000, 1_000_000)
	_, err := p.SimulateSwap(common.HexToAddress("0xC"), p.TokenB, uint256.NewInt(1000))
	assert.Error(t, err)
}

func TestSimulateSwapFailsOnZeroReserve(t *testing.T) {
	p := newTestPool(0, 1_000_000)
	_, err := p.SimulateSwap(p.TokenA, p.TokenB, uint256.NewInt(1000))
	assert.ErrorIs(t, err, ssmerrors.ErrInsufficientLiquidity)
}

func TestSimulateSwapMutAppliesReserveDeltas(t *testing.T) {
	p := newTestPool(1_000_000, 1_000_000)
	out, err := p.SimulateSwapMut(p.TokenA, p.TokenB, uint256.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000+1000), p.ReserveA.Uint64())
	assert.Equal(t, uint64(1_000_000)-out.Uint64(), p.ReserveB.Uint64())
}

func TestCalculatePriceEqualReservesEqualDecimalsIsOne(t *testing.T) {
	p := newTestPool(1_000_000, 1_000_000)
	price, err := p.CalculatePrice(p.TokenA, p.TokenB)
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Lsh(uint256.NewInt(1), 64), price)
}

func TestCalculatePriceZeroReserveReturnsOne(t *testing.T) {
	p := newTestPool(0, 1_000_000)
	price, err := p.CalculatePrice(p.TokenA, p.TokenB)
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Lsh(uint256.NewInt(1), 64), price)
}

func TestCloneIsIndependent(t *testing.T) {
	p := newTestPool(1_000_000, 1_000_000)
	clone := p.Clone().(*Pool)
	clone.ReserveA = uint256.NewInt(42)
	assert.Equal(t, uint64(1_000_000), p.ReserveA.Uint64())
	assert.Equal(t, uint64(42), clone.ReserveA.Uint64())
}

func TestApplyInitRejectsZeroTokenA(t *testing.T) {
	p := newTestPool(0, 0)
	err := p.ApplyInit(common.Address{}, 18, common.HexToAddress("0xB"), 18, uint256.NewInt(1), uint256.NewInt(1))
	assert.ErrorIs(t, err, ssmerrors.ErrPoolDataError)
}
