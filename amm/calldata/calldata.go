// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package calldata builds ABI-encoded swap calldata for each AMM variant,
// the way the original darkforestry/amms-rs examples (swap-calldata.rs)
// produce transaction input data. This module only builds the bytes and
// hands them back to the caller — it never signs, sends, or simulates a
// broadcast.
package calldata

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/crypto"

	"github.com/luxfi/statespace/amm"
	"github.com/luxfi/statespace/ssmerrors"
)

// selector returns the 4-byte function selector for a canonical Solidity
// function signature, the same keccak256-of-signature derivation chainlog
// uses for event topics.
func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

func wordFromAddress(addr common.Address) []byte {
	var w [32]byte
	copy(w[12:], addr.Bytes())
	return w[:]
}

func wordFromUint256(v *uint256.Int) []byte {
	var w [32]byte
	v.ToBig().FillBytes(w[:])
	return w[:]
}

func wordFromBig(v *big.Int) []byte {
	var w [32]byte
	v.FillBytes(w[:])
	return w[:]
}

func wordFromOffset(n int) []byte {
	return wordFromBig(big.NewInt(int64(n)))
}

// ConstantProductSwap encodes a Uniswap-V2-style
// swap(uint256 amount0Out, uint256 amount1Out, address to, bytes data)
// call against the pool itself: amountOut for the token being bought is
// populated, the other is left at zero, matching the v2 pair's low-level
// swap entrypoint (the caller is expected to have already transferred
// amountIn to the pair, as v2 requires).
func ConstantProductSwap(zeroForOne bool, amountOut *uint256.Int, to common.Address) []byte {
	amount0Out, amount1Out := new(uint256.Int), new(uint256.Int)
	if zeroForOne {
		amount1Out = amountOut
	} else {
		amount0Out = amountOut
	}

	out := selector("swap(uint256,uint256,address,bytes)")
	out = append(out, wordFromUint256(amount0Out)...)
	out = append(out, wordFromUint256(amount1Out)...)
	out = append(out, wordFromAddress(to)...)
	out = append(out, wordFromOffset(4*32)...) // offset to the empty trailing `bytes data`
	out = append(out, wordFromOffset(0)...)    // bytes data length = 0
	return out
}

// ConcentratedLiquiditySwapParams mirrors Uniswap V3's
// ISwapRouter.ExactInputSingleParams struct.
type ConcentratedLiquiditySwapParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               uint32
	Recipient         common.Address
	AmountIn          *uint256.Int
	AmountOutMinimum  *uint256.Int
	SqrtPriceLimitX96 *uint256.Int
}

// ConcentratedLiquiditySwap encodes a call to
// exactInputSingle((address,address,uint24,address,uint256,uint256,uint160))
// against a V3-style swap router.
func ConcentratedLiquiditySwap(p ConcentratedLiquiditySwapParams) []byte {
	out := selector("exactInputSingle((address,address,uint24,address,uint256,uint256,uint160))")
	out = append(out, wordFromAddress(p.TokenIn)...)
	out = append(out, wordFromAddress(p.TokenOut)...)
	out = append(out, wordFromBig(new(big.Int).SetUint64(uint64(p.Fee)))...)
	out = append(out, wordFromAddress(p.Recipient)...)
	out = append(out, wordFromUint256(p.AmountIn)...)
	out = append(out, wordFromUint256(p.AmountOutMinimum)...)
	out = append(out, wordFromUint256(p.SqrtPriceLimitX96)...)
	return out
}

// VaultDeposit encodes an ERC-4626 deposit(uint256 assets, address receiver).
func VaultDeposit(assets *uint256.Int, receiver common.Address) []byte {
	out := selector("deposit(uint256,address)")
	out = append(out, wordFromUint256(assets)...)
	out = append(out, wordFromAddress(receiver)...)
	return out
}

// VaultWithdraw encodes an ERC-4626
// withdraw(uint256 assets, address receiver, address owner).
func VaultWithdraw(assets *uint256.Int, receiver, owner common.Address) []byte {
	out := selector("withdraw(uint256,address,address)")
	out = append(out, wordFromUint256(assets)...)
	out = append(out, wordFromAddress(receiver)...)
	out = append(out, wordFromAddress(owner)...)
	return out
}

// WeightedSwap encodes a Balancer Vault
// swap((bytes32,uint8,address,address,uint256,bytes),(address,bool,address,bool),uint256,uint256)
// single swap call. It encodes only the SingleSwap poolId, kind, assetIn,
// assetOut and amount words, the way the original's filter/swap examples
// construct the head; the userData field and the funds, limit and deadline
// arguments are not encoded and are left to the caller to append, so no
// implicit defaults are baked in.
func WeightedSwap(poolID common.Hash, assetIn, assetOut common.Address, amount *uint256.Int) []byte {
	out := selector("swap((bytes32,uint8,address,address,uint256,bytes),(address,bool,address,bool),uint256,uint256)")
	out = append(out, poolID.Bytes()...)
	out = append(out, wordFromBig(big.NewInt(0))...) // SwapKind.GIVEN_IN
	out = append(out, wordFromAddress(assetIn)...)
	out = append(out, wordFromAddress(assetOut)...)
	out = append(out, wordFromUint256(amount)...)
	return out
}

// Build dispatches to the per-variant encoder for a simple "swap all of
// amountIn for base->quote" request, covering the common case used by the
// scenario tests. Concentrated-liquidity and weighted swaps need
// router-specific parameters (fee tier, pool ID, slippage limits) a plain
// amountIn/recipient pair cannot express; callers for those variants must
// use ConcentratedLiquiditySwap/WeightedSwap directly.
func Build(variant amm.Variant, amountIn *uint256.Int, recipient common.Address) ([]byte, error) {
	switch variant {
	case amm.VariantConstantProduct:
		return ConstantProductSwap(true, amountIn, recipient), nil
	case amm.VariantVault:
		return VaultDeposit(amountIn, recipient), nil
	default:
		return nil, fmt.Errorf("%w: variant %s needs router-specific parameters, call its encoder directly", ssmerrors.ErrPoolDataError, variant)
	}
}
