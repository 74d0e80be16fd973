// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clmm

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/fixedpoint"
	"github.com/luxfi/statespace/ssmerrors"
)

// swapState is the mutable accumulator the tick-walking loop threads through
// each step (spec §4.3's exact-input swap simulation).
type swapState struct {
	amountRemaining *uint256.Int
	amountOut       *uint256.Int
	sqrtPriceX96    *uint256.Int
	tick            int32
	liquidity       *uint256.Int
}

// SimulateSwap walks the tick bitmap from the current price, consuming
// amountIn of base for quote one initialized tick range at a time, without
// mutating the receiver.
func (p *Pool) SimulateSwap(base, quote common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	return p.simulate(base, quote, amountIn, false)
}

// SimulateSwapMut is SimulateSwap but commits the resulting sqrt price,
// tick, and liquidity back onto the receiver.
func (p *Pool) SimulateSwapMut(base, quote common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	return p.simulate(base, quote, amountIn, true)
}

func (p *Pool) simulate(base, quote common.Address, amountIn *uint256.Int, mutate bool) (*uint256.Int, error) {
	if base != p.TokenA && base != p.TokenB {
		return nil, fmt.Errorf("%w: %s is not a token on pool %s", ssmerrors.ErrPoolDataError, base, p.Addr)
	}
	if quote != p.TokenA && quote != p.TokenB {
		return nil, fmt.Errorf("%w: %s is not a token on pool %s", ssmerrors.ErrPoolDataError, quote, p.Addr)
	}
	if amountIn.IsZero() {
		return new(uint256.Int), nil
	}

	// zeroForOne: swapping token_a for token_b moves price down; spec's
	// pool always stores token_a as token0, token_b as token1.
	zeroForOne := base == p.TokenA

	st := &swapState{
		amountRemaining: new(uint256.Int).Set(amountIn),
		amountOut:       new(uint256.Int),
		sqrtPriceX96:    new(uint256.Int).Set(p.SqrtPriceX96),
		tick:            p.Tick,
		liquidity:       new(uint256.Int).Set(p.Liquidity),
	}

	var priceLimit *uint256.Int
	if zeroForOne {
		priceLimit = new(uint256.Int).Add(fixedpoint.MinSqrtRatio, uint256.NewInt(1))
	} else {
		priceLimit = new(uint256.Int).Sub(fixedpoint.MaxSqrtRatio, uint256.NewInt(1))
	}

	// Bound iterations by the number of distinct ticks the pool knows
	// about plus the two domain edges, so a pathological bitmap can never
	// spin this loop forever.
	maxSteps := len(p.Ticks) + 2
	if maxSteps < 64 {
		maxSteps = 64
	}

	for step := 0; !st.amountRemaining.IsZero() && step < maxSteps; step++ {
		compressed := floorDiv(st.tick, p.TickSpacing)
		nextCompressed, initialized := p.bitmap.nextInitializedTickWithinOneWord(compressed, zeroForOne)

		nextTick := nextCompressed * p.TickSpacing
		if nextTick < fixedpoint.MinTick {
			nextTick = fixedpoint.MinTick
		}
		if nextTick > fixedpoint.MaxTick {
			nextTick = fixedpoint.MaxTick
		}

		sqrtPriceNextTick, err := fixedpoint.GetSqrtRatioAtTick(nextTick)
		if err != nil {
			return nil, err
		}

		target := sqrtPriceNextTick
		if zeroForOne {
			if target.Cmp(priceLimit) < 0 {
				target = priceLimit
			}
		} else {
			if target.Cmp(priceLimit) > 0 {
				target = priceLimit
			}
		}

		res := fixedpoint.ComputeSwapStep(st.sqrtPriceX96, target, st.liquidity, st.amountRemaining, p.Fee)

		consumed := new(uint256.Int).Add(res.AmountIn, res.FeeAmount)
		if consumed.Cmp(st.amountRemaining) > 0 {
			consumed = st.amountRemaining
		}
		st.amountRemaining = new(uint256.Int).Sub(st.amountRemaining, consumed)
		st.amountOut = new(uint256.Int).Add(st.amountOut, res.AmountOut)
		st.sqrtPriceX96 = res.SqrtPriceNext

		if st.sqrtPriceX96.Cmp(sqrtPriceNextTick) == 0 {
			if initialized {
				info := p.Ticks[nextTick]
				delta := new(big.Int).Set(info.LiquidityNet)
				if zeroForOne {
					delta.Neg(delta)
				}
				newLiq, err := addSignedToUnsigned(st.liquidity, delta)
				if err != nil {
					return nil, fmt.Errorf("%w: pool %s mid-swap liquidity", ssmerrors.ErrLiquidityUnderflow, p.Addr)
				}
				st.liquidity = newLiq
			}
			if zeroForOne {
				st.tick = nextTick - 1
			} else {
				st.tick = nextTick
			}
		} else {
			newTick, err := fixedpoint.GetTickAtSqrtRatio(st.sqrtPriceX96)
			if err != nil {
				return nil, err
			}
			st.tick = newTick
		}

		if st.sqrtPriceX96.Cmp(priceLimit) == 0 {
			break
		}
	}

	if mutate {
		p.SqrtPriceX96 = st.sqrtPriceX96
		p.Tick = st.tick
		p.Liquidity = st.liquidity
	}
	return st.amountOut, nil
}
