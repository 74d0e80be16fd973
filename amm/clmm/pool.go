// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package clmm implements the concentrated-liquidity AMM variant (spec
// §4.3): ticks, a sparse tick bitmap, and the canonical Uniswap-V3
// tick-walking swap simulator.
package clmm

import (
	"fmt"
	"math"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/amm"
	"github.com/luxfi/statespace/chainlog"
	"github.com/luxfi/statespace/fixedpoint"
	"github.com/luxfi/statespace/ssmerrors"
)

// TickInfo is the per-tick bookkeeping the spec's data model names.
type TickInfo struct {
	LiquidityGross *uint256.Int
	LiquidityNet   *big.Int // signed i128
	Initialized    bool
}

func (t *TickInfo) clone() *TickInfo {
	return &TickInfo{
		LiquidityGross: new(uint256.Int).Set(t.LiquidityGross),
		LiquidityNet:   new(big.Int).Set(t.LiquidityNet),
		Initialized:    t.Initialized,
	}
}

// Pool is a concentrated-liquidity (Uniswap V3 style) AMM.
type Pool struct {
	Addr         common.Address
	TokenA       common.Address
	TokenB       common.Address
	DecimalsA    uint8
	DecimalsB    uint8
	Fee          uint32
	TickSpacing  int32
	Tick         int32
	SqrtPriceX96 *uint256.Int
	Liquidity    *uint256.Int
	Ticks        map[int32]*TickInfo

	bitmap *bitmap
}

var _ amm.AMM = (*Pool)(nil)

func New(addr, tokenA, tokenB common.Address, decimalsA, decimalsB uint8, fee uint32, tickSpacing int32) *Pool {
	return &Pool{
		Addr:         addr,
		TokenA:       tokenA,
		TokenB:       tokenB,
		DecimalsA:    decimalsA,
		DecimalsB:    decimalsB,
		Fee:          fee,
		TickSpacing:  tickSpacing,
		SqrtPriceX96: new(uint256.Int),
		Liquidity:    new(uint256.Int),
		Ticks:        make(map[int32]*TickInfo),
		bitmap:       newBitmap(),
	}
}

func (p *Pool) Address() common.Address { return p.Addr }

func (p *Pool) Variant() amm.Variant { return amm.VariantConcentratedLiquidity }

func (p *Pool) Tokens() []common.Address { return []common.Address{p.TokenA, p.TokenB} }

func (p *Pool) SyncEventSignatures() []common.Hash {
	return []common.Hash{chainlog.TopicSwapV3, chainlog.TopicMintV3, chainlog.TopicBurnV3}
}

// TickBitmap returns the spec's authoritative map[int16]*uint256.Int word
// representation, for checkpoint serialization and invariant checks. The
// returned map must not be mutated by the caller.
func (p *Pool) TickBitmap() map[int16]*uint256.Int { return p.bitmap.words }

// InitializedTicks returns every tick index (not compressed — already
// multiplied by TickSpacing) with nonzero liquidity_gross, ascending.
func (p *Pool) InitializedTicks() []int32 {
	compressed := p.bitmap.initializedTicks()
	out := make([]int32, len(compressed))
	for i, c := range compressed {
		out[i] = c * p.TickSpacing
	}
	return out
}

func (p *Pool) Clone() amm.AMM {
	cp := &Pool{
		Addr:         p.Addr,
		TokenA:       p.TokenA,
		TokenB:       p.TokenB,
		DecimalsA:    p.DecimalsA,
		DecimalsB:    p.DecimalsB,
		Fee:          p.Fee,
		TickSpacing:  p.TickSpacing,
		Tick:         p.Tick,
		SqrtPriceX96: new(uint256.Int).Set(p.SqrtPriceX96),
		Liquidity:    new(uint256.Int).Set(p.Liquidity),
		Ticks:        make(map[int32]*TickInfo, len(p.Ticks)),
		bitmap:       p.bitmap.clone(),
	}
	for k, v := range p.Ticks {
		cp.Ticks[k] = v.clone()
	}
	return cp
}

// Sync dispatches on the log's topic-0 (spec §4.3).
func (p *Pool) Sync(l chainlog.Log) error {
	switch l.Topic0() {
	case chainlog.TopicSwapV3:
		return p.applySwapLog(l)
	case chainlog.TopicMintV3:
		return p.applyMintOrBurnLog(l, true)
	case chainlog.TopicBurnV3:
		return p.applyMintOrBurnLog(l, false)
	default:
		return fmt.Errorf("%w: clmm pool %s got topic0 %s", ssmerrors.ErrInvalidEventSignature, p.Addr, l.Topic0())
	}
}

// applySwapLog assigns sqrt_price_q96, liquidity, and tick straight from the
// decoded Swap event (spec §4.3: "assigns sqrt_price_q96, liquidity, tick
// from the decoded event directly"). Layout:
// Swap(address sender, address recipient, int256 amount0, int256 amount1,
//
//	uint160 sqrtPriceX96, uint128 liquidity, int24 tick)
//
// sender/recipient are indexed topics; data carries
// amount0,amount1,sqrtPriceX96,liquidity,tick as 5 left-padded 32-byte words.
func (p *Pool) applySwapLog(l chainlog.Log) error {
	if len(l.Data) < 160 {
		return fmt.Errorf("%w: clmm Swap data too short", ssmerrors.ErrBatchDecodeMismatch)
	}
	sqrtPriceX96 := new(uint256.Int).SetBytes(l.Data[64:96])
	liquidity := new(uint256.Int).SetBytes(l.Data[96:128])
	tickWord := new(big.Int).SetBytes(l.Data[128:160])
	tick := decodeInt24(tickWord)

	if tick < fixedpoint.MinTick || tick > fixedpoint.MaxTick {
		return fmt.Errorf("%w: swap log tick %d out of range", ssmerrors.ErrInvalidTick, tick)
	}
	p.SqrtPriceX96 = sqrtPriceX96
	p.Liquidity = liquidity
	p.Tick = tick
	return nil
}

// applyMintOrBurnLog decodes (tick_lower, tick_upper, amount) and calls
// ModifyPosition with +amount (Mint) or -amount (Burn).
//
// Mint(address sender, address owner, int24 tickLower, int24 tickUpper,
//
//	uint128 amount, uint256 amount0, uint256 amount1)
//
// Burn(address owner, int24 tickLower, int24 tickUpper, uint128 amount,
//
//	uint256 amount0, uint256 amount1)
//
// owner/sender are always indexed topics in both events on-chain; tickLower
// and tickUpper are the first two data words followed by amount.
func (p *Pool) applyMintOrBurnLog(l chainlog.Log, isMint bool) error {
	if len(l.Data) < 96 {
		return fmt.Errorf("%w: clmm Mint/Burn data too short", ssmerrors.ErrBatchDecodeMismatch)
	}
	lower := decodeInt24(new(big.Int).SetBytes(l.Data[0:32]))
	upper := decodeInt24(new(big.Int).SetBytes(l.Data[32:64]))
	amount := new(uint256.Int).SetBytes(l.Data[64:96])

	delta := new(big.Int).Set(amount.ToBig())
	if !isMint {
		delta.Neg(delta)
	}
	return p.ModifyPosition(lower, upper, delta)
}

// decodeInt24 reinterprets a 32-byte big-endian two's-complement word as a
// signed int24 value (the ABI sign-extends int24 to 32 bytes).
func decodeInt24(word *big.Int) int32 {
	// word is always non-negative here (SetBytes never produces a negative
	// big.Int); keep its low 24 bits and recover the sign from bit 23.
	v := new(big.Int).And(word, big.NewInt(1<<24-1)).Int64()
	const signBit = int64(1) << 23
	if v&signBit != 0 {
		v -= int64(1) << 24
	}
	return int32(v)
}

// ModifyPosition implements spec §4.3's four-step liquidity-delta
// application, including the canonical inclusive-lower/exclusive-upper
// range test mandated by §9's redesign note.
func (p *Pool) ModifyPosition(lower, upper int32, delta *big.Int) error {
	lowerFlipped, err := p.updateTick(lower, delta, false)
	if err != nil {
		return err
	}
	upperFlipped, err := p.updateTick(upper, delta, true)
	if err != nil {
		return err
	}

	if lowerFlipped {
		p.flipTick(lower)
	}
	if upperFlipped {
		p.flipTick(upper)
	}

	if delta.Sign() < 0 {
		if lowerFlipped {
			delete(p.Ticks, lower)
		}
		if upperFlipped {
			delete(p.Ticks, upper)
		}
	}

	if lower <= p.Tick && p.Tick < upper {
		newLiquidity, err := addSignedToUnsigned(p.Liquidity, delta)
		if err != nil {
			return fmt.Errorf("%w: pool %s liquidity", ssmerrors.ErrLiquidityUnderflow, p.Addr)
		}
		p.Liquidity = newLiquidity
	}
	return nil
}

func (p *Pool) flipTick(tick int32) {
	compressed := floorDiv(tick, p.TickSpacing)
	p.bitmap.flip(compressed)
}

// updateTick updates liquidity_gross/liquidity_net for a single tick
// boundary and reports whether liquidity_gross crossed zero ("flipped").
func (p *Pool) updateTick(tick int32, delta *big.Int, upper bool) (flipped bool, err error) {
	info, ok := p.Ticks[tick]
	if !ok {
		info = &TickInfo{LiquidityGross: new(uint256.Int), LiquidityNet: new(big.Int)}
	}

	grossBefore := info.LiquidityGross
	absDelta := new(big.Int).Abs(delta)
	absDeltaU, overflow := uint256.FromBig(absDelta)
	if overflow {
		return false, fmt.Errorf("%w: |delta| overflowed 256 bits", ssmerrors.ErrArithmeticOverflow)
	}

	var grossAfter *uint256.Int
	if delta.Sign() >= 0 {
		grossAfter = new(uint256.Int).Add(grossBefore, absDeltaU)
	} else {
		if grossBefore.Cmp(absDeltaU) < 0 {
			return false, fmt.Errorf("%w: tick %d liquidity_gross", ssmerrors.ErrLiquidityUnderflow, tick)
		}
		grossAfter = new(uint256.Int).Sub(grossBefore, absDeltaU)
	}

	netDelta := new(big.Int).Set(delta)
	if upper {
		netDelta.Neg(netDelta)
	}
	info.LiquidityNet = new(big.Int).Add(info.LiquidityNet, netDelta)
	info.LiquidityGross = grossAfter
	flipped = grossBefore.IsZero() != grossAfter.IsZero()
	info.Initialized = !grossAfter.IsZero()
	p.Ticks[tick] = info
	return flipped, nil
}

// addSignedToUnsigned adds a signed delta to an unsigned u128 value,
// failing with ErrLiquidityUnderflow if the result would be negative.
func addSignedToUnsigned(base *uint256.Int, delta *big.Int) (*uint256.Int, error) {
	sum := new(big.Int).Add(base.ToBig(), delta)
	if sum.Sign() < 0 {
		return nil, ssmerrors.ErrLiquidityUnderflow
	}
	out, overflow := uint256.FromBig(sum)
	if overflow {
		return nil, ssmerrors.ErrArithmeticOverflow
	}
	return out, nil
}

// CalculatePrice derives the spot price from the stored sqrt_price_q96 via
// 1.0001^tick adjusted by the token-decimal differential (spec §4.3),
// inverted when base is the second token.
func (p *Pool) CalculatePrice(base, quote common.Address) (*uint256.Int, error) {
	if base != p.TokenA && base != p.TokenB {
		return nil, fmt.Errorf("%w: %s is not a token on pool %s", ssmerrors.ErrPoolDataError, base, p.Addr)
	}
	tick, err := fixedpoint.GetTickAtSqrtRatio(p.SqrtPriceX96)
	if err != nil {
		return nil, err
	}
	price := math.Pow(1.0001, float64(tick)) // token1 per token0
	decDiff := int(p.DecimalsA) - int(p.DecimalsB)
	price *= pow10(decDiff)

	if base == p.TokenB {
		if price == 0 {
			return nil, fmt.Errorf("%w: zero price on pool %s", ssmerrors.ErrInsufficientLiquidity, p.Addr)
		}
		price = 1 / price
	}
	q64 := new(big.Float).Mul(big.NewFloat(price), new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 64)))
	out, _ := q64.Int(nil)
	u, overflow := uint256.FromBig(out)
	if overflow {
		return nil, fmt.Errorf("%w: price overflowed 256 bits", ssmerrors.ErrArithmeticOverflow)
	}
	return u, nil
}

func pow10(exp int) float64 {
	if exp == 0 {
		return 1
	}
	f := new(big.Float).SetInt64(1)
	ten := new(big.Float).SetInt64(10)
	for i := 0; i < abs(exp); i++ {
		f.Mul(f, ten)
	}
	out, _ := f.Float64()
	if exp < 0 {
		return 1 / out
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ApplyInit wires the result of the batched slot0/tick-spacing/fee
// initializer (spec §4.3: "fetches tick spacing and fee via static calls;
// then runs the bulk sync pipeline") into the pool's immutable fields. The
// mutable state (ticks, bitmap, liquidity, sqrt price) is populated
// separately by the four-phase bulk sync (factory/batchrequest), since it is
// shared machinery across every concentrated-liquidity pool in a bootstrap,
// not a per-pool static call.
func (p *Pool) ApplyInit(tokenA common.Address, decimalsA uint8, tokenB common.Address, decimalsB uint8, fee uint32, tickSpacing int32) error {
	if tokenA == (common.Address{}) {
		return fmt.Errorf("%w: pool %s returned zero token_a", ssmerrors.ErrPoolDataError, p.Addr)
	}
	if tickSpacing <= 0 {
		return fmt.Errorf("%w: pool %s returned non-positive tick spacing", ssmerrors.ErrPoolDataError, p.Addr)
	}
	p.TokenA, p.DecimalsA = tokenA, decimalsA
	p.TokenB, p.DecimalsB = tokenB, decimalsB
	p.Fee = fee
	p.TickSpacing = tickSpacing
	return nil
}

// ApplySlot0 wires the slot0 fetch phase of the bulk sync (spec §4.6 step
// 7.i) into the pool's hot state.
func (p *Pool) ApplySlot0(tick int32, liquidity, sqrtPriceX96 *uint256.Int) {
	p.Tick = tick
	p.Liquidity = liquidity
	p.SqrtPriceX96 = sqrtPriceX96
}

// ApplyTickBitmapWord installs one fetched bitmap word (spec §4.6 step
// 7.ii), keeping the roaring index in sync.
func (p *Pool) ApplyTickBitmapWord(word int16, value *uint256.Int) {
	if value.IsZero() {
		delete(p.bitmap.words, word)
	} else {
		p.bitmap.words[word] = new(uint256.Int).Set(value)
	}
	wordBig := value.ToBig()
	for bit := 0; bit < 256; bit++ {
		key := compressedToRoaringKey(int32(word)*256 + int32(bit))
		if wordBig.Bit(bit) != 0 {
			p.bitmap.index.Add(key)
		} else {
			p.bitmap.index.Remove(key)
		}
	}
}

// ApplyTickInfo installs one fetched TickInfo (spec §4.6 step 7.iv).
func (p *Pool) ApplyTickInfo(tick int32, liquidityGross *uint256.Int, liquidityNet *big.Int) {
	p.Ticks[tick] = &TickInfo{
		LiquidityGross: liquidityGross,
		LiquidityNet:   liquidityNet,
		Initialized:    !liquidityGross.IsZero(),
	}
}
