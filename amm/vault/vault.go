// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vault implements the vault/share-token AMM variant (spec §4.4): an
// ERC-4626 style vault whose "swap" is a deposit (asset -> share) or
// withdraw (share -> asset) conversion driven by the vault's totalAssets /
// totalSupply ratio.
package vault

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/amm"
	"github.com/luxfi/statespace/chainlog"
	"github.com/luxfi/statespace/ssmerrors"
)

// Token is a share token over a single underlying asset (spec §4.4).
type Token struct {
	Addr         common.Address // the vault contract itself; also the share token
	Asset        common.Address
	DecimalsSh   uint8
	DecimalsAs   uint8
	TotalAssets  *uint256.Int
	TotalSupply  *uint256.Int
	WithdrawFeeBps uint32 // charged on the assets leg of a withdraw, 0 if none
}

var _ amm.AMM = (*Token)(nil)

func New(addr, asset common.Address, decimalsShares, decimalsAsset uint8) *Token {
	return &Token{
		Addr:        addr,
		Asset:       asset,
		DecimalsSh:  decimalsShares,
		DecimalsAs:  decimalsAsset,
		TotalAssets: new(uint256.Int),
		TotalSupply: new(uint256.Int),
	}
}

func (t *Token) Address() common.Address { return t.Addr }

func (t *Token) Variant() amm.Variant { return amm.VariantVault }

func (t *Token) Tokens() []common.Address { return []common.Address{t.Addr, t.Asset} }

func (t *Token) SyncEventSignatures() []common.Hash {
	return []common.Hash{chainlog.TopicDepositVault, chainlog.TopicWithdrawVault}
}

func (t *Token) Clone() amm.AMM {
	cp := *t
	cp.TotalAssets = new(uint256.Int).Set(t.TotalAssets)
	cp.TotalSupply = new(uint256.Int).Set(t.TotalSupply)
	return &cp
}

// Sync dispatches Deposit(caller, owner, assets, shares) and
// Withdraw(caller, receiver, owner, assets, shares), both of which carry
// assets/shares as the last two 32-byte data words regardless of how many
// addresses are indexed.
func (t *Token) Sync(l chainlog.Log) error {
	switch l.Topic0() {
	case chainlog.TopicDepositVault:
		return t.applyDeposit(l)
	case chainlog.TopicWithdrawVault:
		return t.applyWithdraw(l)
	default:
		return fmt.Errorf("%w: vault %s got topic0 %s", ssmerrors.ErrInvalidEventSignature, t.Addr, l.Topic0())
	}
}

func (t *Token) applyDeposit(l chainlog.Log) error {
	if len(l.Data) < 64 {
		return fmt.Errorf("%w: vault Deposit data too short", ssmerrors.ErrBatchDecodeMismatch)
	}
	assets := new(uint256.Int).SetBytes(l.Data[0:32])
	shares := new(uint256.Int).SetBytes(l.Data[32:64])
	t.TotalAssets = new(uint256.Int).Add(t.TotalAssets, assets)
	t.TotalSupply = new(uint256.Int).Add(t.TotalSupply, shares)
	return nil
}

func (t *Token) applyWithdraw(l chainlog.Log) error {
	if len(l.Data) < 64 {
		return fmt.Errorf("%w: vault Withdraw data too short", ssmerrors.ErrBatchDecodeMismatch)
	}
	assets := new(uint256.Int).SetBytes(l.Data[0:32])
	shares := new(uint256.Int).SetBytes(l.Data[32:64])
	if t.TotalAssets.Cmp(assets) < 0 || t.TotalSupply.Cmp(shares) < 0 {
		return fmt.Errorf("%w: vault %s withdraw exceeds tracked totals", ssmerrors.ErrLiquidityUnderflow, t.Addr)
	}
	t.TotalAssets = new(uint256.Int).Sub(t.TotalAssets, assets)
	t.TotalSupply = new(uint256.Int).Sub(t.TotalSupply, shares)
	return nil
}

// SimulateSwap converts assets -> shares (deposit) when base is the
// underlying asset, or shares -> assets (withdraw, net of WithdrawFeeBps)
// when base is the vault's own share token.
func (t *Token) SimulateSwap(base, quote common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	if amountIn.IsZero() {
		return new(uint256.Int), nil
	}
	switch {
	case base == t.Asset && quote == t.Addr:
		return t.previewDeposit(amountIn), nil
	case base == t.Addr && quote == t.Asset:
		return t.previewWithdraw(amountIn), nil
	default:
		return nil, fmt.Errorf("%w: %s/%s is not a vault leg on %s", ssmerrors.ErrPoolDataError, base, quote, t.Addr)
	}
}

func (t *Token) SimulateSwapMut(base, quote common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	out, err := t.SimulateSwap(base, quote, amountIn)
	if err != nil {
		return nil, err
	}
	if base == t.Asset {
		t.TotalAssets = new(uint256.Int).Add(t.TotalAssets, amountIn)
		t.TotalSupply = new(uint256.Int).Add(t.TotalSupply, out)
	} else {
		t.TotalSupply = new(uint256.Int).Sub(t.TotalSupply, amountIn)
		t.TotalAssets = new(uint256.Int).Sub(t.TotalAssets, out)
	}
	return out, nil
}

// previewDeposit mirrors ERC-4626's convertToShares: shares = assets *
// totalSupply / totalAssets, or a 1:1 mint when the vault is empty.
func (t *Token) previewDeposit(assets *uint256.Int) *uint256.Int {
	if t.TotalSupply.IsZero() || t.TotalAssets.IsZero() {
		return new(uint256.Int).Set(assets)
	}
	num := new(big.Int).Mul(assets.ToBig(), t.TotalSupply.ToBig())
	out := new(big.Int).Quo(num, t.TotalAssets.ToBig())
	u, _ := uint256.FromBig(out)
	return u
}

// previewWithdraw mirrors ERC-4626's convertToAssets, minus WithdrawFeeBps.
func (t *Token) previewWithdraw(shares *uint256.Int) *uint256.Int {
	if t.TotalSupply.IsZero() {
		return new(uint256.Int)
	}
	num := new(big.Int).Mul(shares.ToBig(), t.TotalAssets.ToBig())
	out := new(big.Int).Quo(num, t.TotalSupply.ToBig())
	if t.WithdrawFeeBps > 0 {
		out.Mul(out, big.NewInt(int64(10_000-t.WithdrawFeeBps)))
		out.Quo(out, big.NewInt(10_000))
	}
	u, _ := uint256.FromBig(out)
	return u
}

// CalculatePrice returns the assets-per-share (or share-per-asset) exchange
// rate as Q64.64, matching the other variants' price convention.
func (t *Token) CalculatePrice(base, quote common.Address) (*uint256.Int, error) {
	one := new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	switch {
	case base == t.Asset && quote == t.Addr:
		shares := t.previewDeposit(one)
		return shares, nil
	case base == t.Addr && quote == t.Asset:
		assets := t.previewWithdraw(one)
		return assets, nil
	default:
		return nil, fmt.Errorf("%w: %s/%s is not a vault leg on %s", ssmerrors.ErrPoolDataError, base, quote, t.Addr)
	}
}

// ApplyInit wires the batched initializer (asset address/decimals and the
// current totals) into the vault, and validates ERC-4626 linearity by
// comparing previewDeposit(probe) against previewDeposit(2*probe) scaled
// down (spec §4.4: a vault whose preview functions are not proportional —
// e.g. a flat per-transaction fee rather than a bps fee — cannot be modeled
// by this variant's linear conversion and must be rejected).
func (t *Token) ApplyInit(asset common.Address, decimalsAsset uint8, totalAssets, totalSupply *uint256.Int, previewDepositProbe, previewDepositDoubleProbe *uint256.Int) error {
	if asset == (common.Address{}) {
		return fmt.Errorf("%w: vault %s returned zero asset", ssmerrors.ErrPoolDataError, t.Addr)
	}
	t.Asset, t.DecimalsAs = asset, decimalsAsset
	t.TotalAssets, t.TotalSupply = totalAssets, totalSupply

	if previewDepositProbe != nil && previewDepositDoubleProbe != nil && !previewDepositProbe.IsZero() {
		doubled := new(uint256.Int).Mul(previewDepositProbe, uint256.NewInt(2))
		diff := new(uint256.Int)
		if doubled.Cmp(previewDepositDoubleProbe) >= 0 {
			diff.Sub(doubled, previewDepositDoubleProbe)
		} else {
			diff.Sub(previewDepositDoubleProbe, doubled)
		}
		// Tolerate rounding of at most 1 part in 10^6 of the doubled probe.
		tolerance := new(uint256.Int).Div(doubled, uint256.NewInt(1_000_000))
		if tolerance.IsZero() {
			tolerance = uint256.NewInt(1)
		}
		if diff.Cmp(tolerance) > 0 {
			return fmt.Errorf("%w: vault %s previewDeposit is not linear", ssmerrors.ErrInvalidERC4626Fee, t.Addr)
		}
	}
	return nil
}
