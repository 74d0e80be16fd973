// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calldata

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/statespace/amm"
)

func word(n int64) []byte {
	w := make([]byte, 32)
	big.NewInt(n).FillBytes(w)
	return w
}

func TestConstantProductSwapSelectorAndLength(t *testing.T) {
	to := common.HexToAddress("0xRECIPIENT")
	out := ConstantProductSwap(true, uint256.NewInt(1000), to)

	wantSelector := crypto.Keccak256([]byte("swap(uint256,uint256,address,bytes)"))[:4]
	assert.Equal(t, wantSelector, out[:4])
	assert.Equal(t, 4+32*5, len(out))

	amount1Out := out[4+32 : 4+64]
	assert.Equal(t, word(1000), amount1Out)
}

func TestConstantProductSwapZeroForOneFalsePopulatesAmount0Out(t *testing.T) {
	to := common.HexToAddress("0xRECIPIENT")
	out := ConstantProductSwap(false, uint256.NewInt(500), to)
	amount0Out := out[4 : 4+32]
	assert.Equal(t, word(500), amount0Out)
}

func TestVaultDepositEncodesAssetsAndReceiver(t *testing.T) {
	receiver := common.HexToAddress("0xDEAD")
	out := VaultDeposit(uint256.NewInt(42), receiver)
	wantSelector := crypto.Keccak256([]byte("deposit(uint256,address)"))[:4]
	assert.Equal(t, wantSelector, out[:4])
	assert.Equal(t, 4+64, len(out))
}

func TestBuildDispatchesByVariant(t *testing.T) {
	to := common.HexToAddress("0xTO")
	out, err := Build(amm.VariantConstantProduct, uint256.NewInt(1), to)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = Build(amm.VariantConcentratedLiquidity, uint256.NewInt(1), to)
	assert.Error(t, err)
}
