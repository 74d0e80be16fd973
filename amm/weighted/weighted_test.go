// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package weighted

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/statespace/fixedpoint"
)

func newTestPool() *Pool {
	tokenA := common.HexToAddress("0x1")
	tokenB := common.HexToAddress("0x2")
	half := new(big.Int).Quo(fixedpoint.BONE, big.NewInt(2))
	p := New(common.HexToAddress("0xP00L"), common.Hash{}, []common.Address{tokenA, tokenB}, []uint8{18, 18}, []*big.Int{half, half}, 0)
	p.Balances[0] = uint256.NewInt(1_000_000)
	p.Balances[1] = uint256.NewInt(1_000_000)
	return p
}

func TestSimulateSwapEqualWeightsIsConstantProductLike(t *testing.T) {
	p := newTestPool()
	out, err := p.SimulateSwap(p.TokenAddrs[0], p.TokenAddrs[1], uint256.NewInt(1000))
	require.NoError(t, err)
	assert.False(t, out.IsZero())
	assert.True(t, out.Cmp(uint256.NewInt(1000)) < 0, "swapping into a fee-free equal-weight pool yields less than 1:1 due to slippage")
}

func TestSimulateSwapZeroAmountIsNoop(t *testing.T) {
	p := newTestPool()
	out, err := p.SimulateSwap(p.TokenAddrs[0], p.TokenAddrs[1], new(uint256.Int))
	require.NoError(t, err)
	assert.True(t, out.IsZero())
}

func TestSimulateSwapRejectsUnknownToken(t *testing.T) {
	p := newTestPool()
	_, err := p.SimulateSwap(common.HexToAddress("0xDEAD"), p.TokenAddrs[1], uint256.NewInt(1))
	assert.Error(t, err)
}

func TestCalculatePriceEqualWeightsEqualBalancesIsOne(t *testing.T) {
	p := newTestPool()
	price, err := p.CalculatePrice(p.TokenAddrs[0], p.TokenAddrs[1])
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.OneQ64().Cmp(price), 0)
}

func TestSimulateSwapMutUpdatesBalances(t *testing.T) {
	p := newTestPool()
	out, err := p.SimulateSwapMut(p.TokenAddrs[0], p.TokenAddrs[1], uint256.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1_001_000), p.Balances[0])
	assert.Equal(t, new(uint256.Int).Sub(uint256.NewInt(1_000_000), out), p.Balances[1])
}

func TestApplyInitRejectsMismatchedArrays(t *testing.T) {
	p := newTestPool()
	err := p.ApplyInit(p.TokenAddrs, []uint8{18}, p.Weights, p.Balances, 0)
	assert.Error(t, err)
}
