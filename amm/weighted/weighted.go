// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package weighted implements the Balancer-style weighted-pool AMM variant.
// It is a supplemented variant (not named by the distilled specification but
// present in the original implementation's scope): an N-token pool whose
// invariant is the weighted geometric mean of its balances, giving the
// fixedpoint package's Balancer BMath helpers (bmul/bdiv/bpow) a real
// caller.
package weighted

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

// Pool is an N-token weighted pool (spec §3 supplemented features; math
// grounded on Balancer V2's WeightedMath).
type Pool struct {
	Addr       common.Address
	PoolID     common.Hash
	TokenAddrs []common.Address
	Decimals   []uint8
	Balances   []*uint256.Int // raw, token-native decimals
	Weights    []*big.Int     // normalized, 1e18 fixed point, sum to BONE
	SwapFeeBps uint32
}

var _ amm.AMM = (*Pool)(nil)

func New(addr common.Address, poolID common.Hash, tokens []common.Address, decimals []uint8, weights []*big.Int, swapFeeBps uint32) *Pool {
	balances := make([]*uint256.Int, len(tokens))
	for i := range balances {
		balances[i] = new(uint256.Int)
	}
	return &Pool{
		Addr:       addr,
		PoolID:     poolID,
		TokenAddrs: tokens,
		Decimals:   decimals,
		Balances:   balances,
		Weights:    weights,
		SwapFeeBps: swapFeeBps,
	}
}

func (p *Pool) Address() common.Address { return p.Addr }

func (p *Pool) Variant() amm.Variant { return amm.VariantWeighted }

func (p *Pool) Tokens() []common.Address { return p.TokenAddrs }

func (p *Pool) SyncEventSignatures() []common.Hash {
	return []common.Hash{chainlog.TopicSwapBalancerV2, chainlog.TopicPoolBalanceChangedBalancerV2}
}

func (p *Pool) Clone() amm.AMM {
	cp := &Pool{
		Addr:       p.Addr,
		PoolID:     p.PoolID,
		TokenAddrs: append([]common.Address(nil), p.TokenAddrs...),
		Decimals:   append([]uint8(nil), p.Decimals...),
		Balances:   make([]*uint256.Int, len(p.Balances)),
		Weights:    append([]*big.Int(nil), p.Weights...),
		SwapFeeBps: p.SwapFeeBps,
	}
	for i, b := range p.Balances {
		cp.Balances[i] = new(uint256.Int).Set(b)
	}
	return cp
}

func (p *Pool) indexOf(token common.Address) int {
	for i, t := range p.TokenAddrs {
		if t == token {
			return i
		}
	}
	return -1
}

// Sync dispatches the two Balancer V2 Vault events that touch this pool's
// balances: Swap moves balanceIn up and balanceOut down by the traded
// amounts; PoolBalanceChanged (join/exit) applies the per-token signed
// delta array the Vault emits.
func (p *Pool) Sync(l chainlog.Log) error {
	switch l.Topic0() {
	case chainlog.TopicSwapBalancerV2:
		return p.applySwapLog(l)
	case chainlog.TopicPoolBalanceChangedBalancerV2:
		return p.applyBalanceChangedLog(l)
	default:
		return fmt.Errorf("%w: weighted pool %s got topic0 %s", ssmerrors.ErrInvalidEventSignature, p.Addr, l.Topic0())
	}
}

// applySwapLog decodes Swap(bytes32 indexed poolId, address indexed
// tokenIn, address indexed tokenOut, uint256 amountIn, uint256 amountOut).
func (p *Pool) applySwapLog(l chainlog.Log) error {
	if len(l.Topics) < 4 {
		return fmt.Errorf("%w: weighted Swap missing indexed topics", ssmerrors.ErrBatchDecodeMismatch)
	}
	if len(l.Data) < 64 {
		return fmt.Errorf("%w: weighted Swap data too short", ssmerrors.ErrBatchDecodeMismatch)
	}
	tokenIn := common.BytesToAddress(l.Topics[2].Bytes())
	tokenOut := common.BytesToAddress(l.Topics[3].Bytes())
	amountIn := new(uint256.Int).SetBytes(l.Data[0:32])
	amountOut := new(uint256.Int).SetBytes(l.Data[32:64])

	inIdx, outIdx := p.indexOf(tokenIn), p.indexOf(tokenOut)
	if inIdx < 0 || outIdx < 0 {
		return fmt.Errorf("%w: swap token not in pool %s", ssmerrors.ErrPoolDataError, p.Addr)
	}
	p.Balances[inIdx] = new(uint256.Int).Add(p.Balances[inIdx], amountIn)
	if p.Balances[outIdx].Cmp(amountOut) < 0 {
		return fmt.Errorf("%w: pool %s balance underflow on swap", ssmerrors.ErrInsufficientLiquidity, p.Addr)
	}
	p.Balances[outIdx] = new(uint256.Int).Sub(p.Balances[outIdx], amountOut)
	return nil
}

// applyBalanceChangedLog decodes PoolBalanceChanged(bytes32 indexed poolId,
// address liquidityProvider, address[] tokens, int256[] deltas,
// uint256[] protocolFeeAmounts) — the non-indexed tail is three ABI-encoded
// dynamic fields (address is static so liquidityProvider sits inline, then
// three tail-encoded arrays).
func (p *Pool) applyBalanceChangedLog(l chainlog.Log) error {
	data := l.Data
	if len(data) < 32*4 {
		return fmt.Errorf("%w: weighted PoolBalanceChanged data too short", ssmerrors.ErrBatchDecodeMismatch)
	}
	tokensOffset, err := readOffsetWord(data, 1)
	if err != nil {
		return err
	}
	deltasOffset, err := readOffsetWord(data, 2)
	if err != nil {
		return err
	}

	tokenWords, err := readDynArray(data, tokensOffset)
	if err != nil {
		return err
	}
	deltaWords, err := readDynArray(data, deltasOffset)
	if err != nil {
		return err
	}
	if len(tokenWords) != len(deltaWords) {
		return fmt.Errorf("%w: weighted PoolBalanceChanged tokens/deltas length mismatch", ssmerrors.ErrBatchDecodeMismatch)
	}

	for i, tokWord := range tokenWords {
		token := common.BytesToAddress(tokWord[12:32])
		idx := p.indexOf(token)
		if idx < 0 {
			continue // token not tracked by this pool's configured basket
		}
		delta := decodeSignedWord(deltaWords[i])
		newBalance := new(big.Int).Add(p.Balances[idx].ToBig(), delta)
		if newBalance.Sign() < 0 {
			return fmt.Errorf("%w: pool %s balance went negative on join/exit", ssmerrors.ErrLiquidityUnderflow, p.Addr)
		}
		u, overflow := uint256.FromBig(newBalance)
		if overflow {
			return fmt.Errorf("%w: pool %s balance overflowed 256 bits", ssmerrors.ErrArithmeticOverflow, p.Addr)
		}
		p.Balances[idx] = u
	}
	return nil
}

func readOffsetWord(data []byte, wordIdx int) (int, error) {
	start := wordIdx * 32
	if start+32 > len(data) {
		return 0, fmt.Errorf("%w: offset word %d out of bounds", ssmerrors.ErrBatchDecodeMismatch, wordIdx)
	}
	off := new(big.Int).SetBytes(data[start : start+32])
	if !off.IsUint64() || off.Uint64() > uint64(len(data)) {
		return 0, fmt.Errorf("%w: offset word %d out of range", ssmerrors.ErrBatchDecodeMismatch, wordIdx)
	}
	return int(off.Uint64()), nil
}

// readDynArray reads a length-prefixed ABI dynamic array starting at the
// given byte offset, returning each element's raw 32-byte word.
func readDynArray(data []byte, offset int) ([][]byte, error) {
	if offset+32 > len(data) {
		return nil, fmt.Errorf("%w: dynamic array length out of bounds", ssmerrors.ErrBatchDecodeMismatch)
	}
	length := new(big.Int).SetBytes(data[offset : offset+32])
	if !length.IsUint64() {
		return nil, fmt.Errorf("%w: dynamic array length overflow", ssmerrors.ErrBatchDecodeMismatch)
	}
	n := int(length.Uint64())
	out := make([][]byte, n)
	base := offset + 32
	for i := 0; i < n; i++ {
		start := base + i*32
		if start+32 > len(data) {
			return nil, fmt.Errorf("%w: dynamic array element out of bounds", ssmerrors.ErrBatchDecodeMismatch)
		}
		out[i] = data[start : start+32]
	}
	return out, nil
}

// decodeSignedWord reinterprets a 32-byte big-endian word as a signed
// int256 two's-complement value.
func decodeSignedWord(word []byte) *big.Int {
	v := new(big.Int).SetBytes(word)
	if len(word) == 32 && word[0]&0x80 != 0 {
		modulus := new(big.Int).Lsh(big.NewInt(1), 256)
		v.Sub(v, modulus)
	}
	return v
}

func upscale(balance *uint256.Int, decimals uint8) *big.Int {
	v := balance.ToBig()
	if decimals >= 18 {
		return v
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(18-decimals)), nil)
	return new(big.Int).Mul(v, scale)
}

func downscale(v *big.Int, decimals uint8) *big.Int {
	if decimals >= 18 {
		return v
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(18-decimals)), nil)
	return new(big.Int).Quo(v, scale)
}

// SimulateSwap implements Balancer's WeightedMath.calcOutGivenIn: amountOut
// = balanceOut * (1 - (balanceIn / (balanceIn + amountIn_net))^(weightIn /
// weightOut)), where amountIn_net has the swap fee already deducted.
func (p *Pool) SimulateSwap(base, quote common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	inIdx, outIdx := p.indexOf(base), p.indexOf(quote)
	if inIdx < 0 || outIdx < 0 {
		return nil, fmt.Errorf("%w: %s/%s is not a pair on pool %s", ssmerrors.ErrPoolDataError, base, quote, p.Addr)
	}
	if amountIn.IsZero() {
		return new(uint256.Int), nil
	}
	balanceIn := upscale(p.Balances[inIdx], p.Decimals[inIdx])
	balanceOut := upscale(p.Balances[outIdx], p.Decimals[outIdx])
	if balanceIn.Sign() == 0 || balanceOut.Sign() == 0 {
		return nil, fmt.Errorf("%w: pool %s has a zero balance", ssmerrors.ErrInsufficientLiquidity, p.Addr)
	}

	amountInScaled := upscale(amountIn, p.Decimals[inIdx])
	amountInNet := new(big.Int).Mul(amountInScaled, big.NewInt(int64(10_000-p.SwapFeeBps)))
	amountInNet.Quo(amountInNet, big.NewInt(10_000))

	denom := new(big.Int).Add(balanceIn, amountInNet)
	baseRatio, err := fixedpoint.BDiv(balanceIn, denom)
	if err != nil {
		return nil, err
	}
	exponent, err := fixedpoint.BDiv(p.Weights[inIdx], p.Weights[outIdx])
	if err != nil {
		return nil, err
	}
	power, err := fixedpoint.BPow(baseRatio, exponent)
	if err != nil {
		return nil, err
	}
	complement, err := fixedpoint.BSub(fixedpoint.BONE, power)
	if err != nil {
		return nil, err
	}
	amountOutScaled, err := fixedpoint.BMul(balanceOut, complement)
	if err != nil {
		return nil, err
	}

	out := downscale(amountOutScaled, p.Decimals[outIdx])
	u, overflow := uint256.FromBig(out)
	if overflow {
		return nil, fmt.Errorf("%w: amount_out overflowed 256 bits", ssmerrors.ErrArithmeticOverflow)
	}
	return u, nil
}

func (p *Pool) SimulateSwapMut(base, quote common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	amountOut, err := p.SimulateSwap(base, quote, amountIn)
	if err != nil {
		return nil, err
	}
	inIdx, outIdx := p.indexOf(base), p.indexOf(quote)
	p.Balances[inIdx] = new(uint256.Int).Add(p.Balances[inIdx], amountIn)
	p.Balances[outIdx] = new(uint256.Int).Sub(p.Balances[outIdx], amountOut)
	return amountOut, nil
}

// CalculatePrice returns the weighted spot price of quote in terms of base,
// as Q64.64: (balanceIn/weightIn) / (balanceOut/weightOut), matching
// Balancer's WeightedMath.getSpotPrice absent the swap fee adjustment.
func (p *Pool) CalculatePrice(base, quote common.Address) (*uint256.Int, error) {
	inIdx, outIdx := p.indexOf(base), p.indexOf(quote)
	if inIdx < 0 || outIdx < 0 {
		return nil, fmt.Errorf("%w: %s/%s is not a pair on pool %s", ssmerrors.ErrPoolDataError, base, quote, p.Addr)
	}
	balanceIn := upscale(p.Balances[inIdx], p.Decimals[inIdx])
	balanceOut := upscale(p.Balances[outIdx], p.Decimals[outIdx])
	if balanceOut.Sign() == 0 || p.Weights[inIdx].Sign() == 0 {
		return nil, fmt.Errorf("%w: pool %s cannot price a zero balance/weight", ssmerrors.ErrInsufficientLiquidity, p.Addr)
	}

	numerator := new(big.Int).Mul(balanceIn, p.Weights[outIdx])
	denominator := new(big.Int).Mul(balanceOut, p.Weights[inIdx])

	q64 := new(big.Int).Quo(new(big.Int).Lsh(numerator, 64), denominator)
	u, overflow := uint256.FromBig(q64)
	if overflow {
		return nil, fmt.Errorf("%w: price overflowed 256 bits", ssmerrors.ErrArithmeticOverflow)
	}
	return u, nil
}

// ApplyInit wires a batched initializer's decoded pool tokens, decimals,
// normalized weights, and current balances onto the pool.
func (p *Pool) ApplyInit(tokens []common.Address, decimals []uint8, weights []*big.Int, balances []*uint256.Int, swapFeeBps uint32) error {
	if len(tokens) < 2 || len(tokens) != len(decimals) || len(tokens) != len(weights) || len(tokens) != len(balances) {
		return fmt.Errorf("%w: pool %s returned mismatched token/weight/balance arrays", ssmerrors.ErrPoolDataError, p.Addr)
	}
	p.TokenAddrs = tokens
	p.Decimals = decimals
	p.Weights = weights
	p.Balances = balances
	p.SwapFeeBps = swapFeeBps
	return nil
}
