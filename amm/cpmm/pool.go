// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cpmm implements the constant-product AMM variant (spec §4.2): a
// two-token pool whose reserves move only via a single Sync(reserve0,
// reserve1) event.
package cpmm

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/amm"
	"github.com/luxfi/statespace/chainlog"
	"github.com/luxfi/statespace/fixedpoint"
	"github.com/luxfi/statespace/ssmerrors"
)

// Pool is a constant-product (Uniswap V2 style) AMM.
type Pool struct {
	Addr       common.Address
	TokenA     common.Address
	TokenB     common.Address
	DecimalsA  uint8
	DecimalsB  uint8
	ReserveA   *uint256.Int
	ReserveB   *uint256.Int
	FeeBps     uint32
}

var _ amm.AMM = (*Pool)(nil)

func New(addr, tokenA, tokenB common.Address, decimalsA, decimalsB uint8, feeBps uint32) *Pool {
	return &Pool{
		Addr:      addr,
		TokenA:    tokenA,
		TokenB:    tokenB,
		DecimalsA: decimalsA,
		DecimalsB: decimalsB,
		FeeBps:    feeBps,
		ReserveA:  new(uint256.Int),
		ReserveB:  new(uint256.Int),
	}
}

func (p *Pool) Address() common.Address { return p.Addr }

func (p *Pool) Variant() amm.Variant { return amm.VariantConstantProduct }

func (p *Pool) Tokens() []common.Address { return []common.Address{p.TokenA, p.TokenB} }

func (p *Pool) SyncEventSignatures() []common.Hash {
	return []common.Hash{chainlog.TopicSyncV2}
}

func (p *Pool) Clone() amm.AMM {
	cp := *p
	cp.ReserveA = new(uint256.Int).Set(p.ReserveA)
	cp.ReserveB = new(uint256.Int).Set(p.ReserveB)
	return &cp
}

// Sync decodes a Sync(uint112 reserve0, uint112 reserve1) log and assigns
// the reserves directly (spec §4.2).
func (p *Pool) Sync(l chainlog.Log) error {
	if l.Topic0() != chainlog.TopicSyncV2 {
		return fmt.Errorf("%w: cpmm pool %s got topic0 %s", ssmerrors.ErrInvalidEventSignature, p.Addr, l.Topic0())
	}
	if len(l.Data) < 64 {
		return fmt.Errorf("%w: cpmm Sync data too short", ssmerrors.ErrBatchDecodeMismatch)
	}
	p.ReserveA = new(uint256.Int).SetBytes(l.Data[0:32])
	p.ReserveB = new(uint256.Int).SetBytes(l.Data[32:64])
	return nil
}

func (p *Pool) reservesFor(base, quote common.Address) (reserveIn, reserveOut *uint256.Int, baseIsA bool, err error) {
	switch {
	case base == p.TokenA && quote == p.TokenB:
		return p.ReserveA, p.ReserveB, true, nil
	case base == p.TokenB && quote == p.TokenA:
		return p.ReserveB, p.ReserveA, false, nil
	default:
		return nil, nil, false, fmt.Errorf("%w: %s/%s is not a pair on pool %s", ssmerrors.ErrPoolDataError, base, quote, p.Addr)
	}
}

// SimulateSwap returns amount_in * (1-fee) * reserve_out / (reserve_in +
// amount_in * (1-fee)), computed at full precision (spec §4.2, §9 — the
// source's lossy `(10000 - fee/10) / 10` shortcut is explicitly rejected).
func (p *Pool) SimulateSwap(base, quote common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	reserveIn, reserveOut, _, err := p.reservesFor(base, quote)
	if err != nil {
		return nil, err
	}
	if amountIn.IsZero() {
		return new(uint256.Int), nil
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, fmt.Errorf("%w: pool %s has a zero reserve", ssmerrors.ErrInsufficientLiquidity, p.Addr)
	}

	amountInBig := amountIn.ToBig()
	feeMultiplier := new(big.Int).SetUint64(uint64(10_000 - p.FeeBps))
	amountInWithFee := new(big.Int).Mul(amountInBig, feeMultiplier)

	numerator := new(big.Int).Mul(amountInWithFee, reserveOut.ToBig())
	denominator := new(big.Int).Add(new(big.Int).Mul(reserveIn.ToBig(), big.NewInt(10_000)), amountInWithFee)

	out := new(big.Int).Quo(numerator, denominator)
	u, overflow := uint256.FromBig(out)
	if overflow {
		return nil, fmt.Errorf("%w: amount_out overflowed 256 bits", ssmerrors.ErrArithmeticOverflow)
	}
	return u, nil
}

// SimulateSwapMut performs SimulateSwap then applies the reserve deltas in
// place: reserve_in += amount_in, reserve_out -= amount_out.
func (p *Pool) SimulateSwapMut(base, quote common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	amountOut, err := p.SimulateSwap(base, quote, amountIn)
	if err != nil {
		return nil, err
	}
	if base == p.TokenA {
		p.ReserveA = new(uint256.Int).Add(p.ReserveA, amountIn)
		p.ReserveB = new(uint256.Int).Sub(p.ReserveB, amountOut)
	} else {
		p.ReserveB = new(uint256.Int).Add(p.ReserveB, amountIn)
		p.ReserveA = new(uint256.Int).Sub(p.ReserveA, amountOut)
	}
	return amountOut, nil
}

// CalculatePrice returns reserve_quote / reserve_base scaled by the
// token-decimal differential 10^(decimals_base - decimals_quote), as Q64.64
// (spec §4.2). When reserve_base is
// zero, it returns Q64 1.0 rather than failing, since an empty pool has no
// defined price but callers still need a sentinel to compare against.
func (p *Pool) CalculatePrice(base, quote common.Address) (*uint256.Int, error) {
	reserveIn, reserveOut, baseIsA, err := p.reservesFor(base, quote)
	if err != nil {
		return nil, err
	}
	if reserveIn.IsZero() {
		return fixedpoint.OneQ64(), nil
	}

	decBase, decQuote := p.DecimalsA, p.DecimalsB
	if !baseIsA {
		decBase, decQuote = p.DecimalsB, p.DecimalsA
	}

	q64, err := fixedpoint.DivUU(reserveOut, reserveIn)
	if err != nil {
		return nil, err
	}
	if decBase >= decQuote {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decBase-decQuote)), nil)
		scaled, overflow := uint256.FromBig(new(big.Int).Mul(q64.ToBig(), scale))
		if overflow {
			return nil, fmt.Errorf("%w: price scale overflow", ssmerrors.ErrArithmeticOverflow)
		}
		return scaled, nil
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decQuote-decBase)), nil)
	scaled, _ := uint256.FromBig(new(big.Int).Quo(q64.ToBig(), scale))
	return scaled, nil
}

// ApplyInit wires the result of the batched initializer described in spec
// §4.2 ("init(block, provider)") into the pool: the actual static call and
// ABI decode are done by the caller's batch initializer, outside this
// module (factory/batchrequest defines only the request/response shapes);
// this method only validates and assigns the decoded fields.
func (p *Pool) ApplyInit(tokenA common.Address, decimalsA uint8, tokenB common.Address, decimalsB uint8, reserveA, reserveB *uint256.Int) error {
	if tokenA == (common.Address{}) {
		return fmt.Errorf("%w: pool %s returned zero token_a", ssmerrors.ErrPoolDataError, p.Addr)
	}
	p.TokenA, p.DecimalsA = tokenA, decimalsA
	p.TokenB, p.DecimalsB = tokenB, decimalsB
	p.ReserveA, p.ReserveB = reserveA, reserveB
	return nil
}
