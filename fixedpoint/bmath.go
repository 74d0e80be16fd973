// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"fmt"
	"math/big"

	"github.com/luxfi/statespace/ssmerrors"
)

// BAdd, BSub, BMul, BDiv and BPow are the Balancer-style 1e18 fixed-point
// primitives (spec §4.1), ported from the reference BMath contract's
// rounding rules: multiplication rounds to nearest via
// (a*b + BONE/2) / BONE; division rounds to nearest via
// (a*BONE + b/2) / b; subtraction underflow is a hard failure, never
// wrapping.

func BAdd(a, b *big.Int) (*big.Int, error) {
	c := new(big.Int).Add(a, b)
	if c.Cmp(a) < 0 {
		return nil, fmt.Errorf("%w: badd overflow", ssmerrors.ErrArithmeticOverflow)
	}
	return c, nil
}

func BSub(a, b *big.Int) (*big.Int, error) {
	if b.Cmp(a) > 0 {
		return nil, fmt.Errorf("%w: bsub underflow", ssmerrors.ErrArithmeticUnderflow)
	}
	return new(big.Int).Sub(a, b), nil
}

func BMul(a, b *big.Int) (*big.Int, error) {
	c0 := new(big.Int).Mul(a, b)
	half := new(big.Int).Quo(BONE, big.NewInt(2))
	c1, err := BAdd(c0, half)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Quo(c1, BONE), nil
}

func BDiv(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, fmt.Errorf("%w: bdiv by zero", ssmerrors.ErrDivisionByZero)
	}
	c0 := new(big.Int).Mul(a, BONE)
	half := new(big.Int).Quo(b, big.NewInt(2))
	c1, err := BAdd(c0, half)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Quo(c1, b), nil
}

// BPow computes base^exp in 1e18 fixed point via exponentiation-by-squaring
// over a BMul/BDiv-reduced exponent, matching BMath's bpow for non-negative
// integer-scaled exponents (the whole-power fast path used by weighted-pool
// spot price and out-given-in math).
func BPow(base, exp *big.Int) (*big.Int, error) {
	whole := new(big.Int).Quo(exp, BONE)
	remain := new(big.Int).Rem(exp, BONE)

	wholePow, err := bpowi(base, whole)
	if err != nil {
		return nil, err
	}
	if remain.Sign() == 0 {
		return wholePow, nil
	}

	partialResult, err := bpowApprox(base, remain)
	if err != nil {
		return nil, err
	}
	return BMul(wholePow, partialResult)
}

func bpowi(base, exp *big.Int) (*big.Int, error) {
	result := new(big.Int).Set(BONE)
	b := new(big.Int).Set(base)
	e := new(big.Int).Set(exp)
	two := big.NewInt(2)
	var err error
	for e.Sign() > 0 {
		if new(big.Int).And(e, big.NewInt(1)).Sign() != 0 {
			result, err = BMul(result, b)
			if err != nil {
				return nil, err
			}
		}
		e.Quo(e, two)
		if e.Sign() > 0 {
			b, err = BMul(b, b)
			if err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// bpowApprox evaluates the Taylor series BMath.bpowApprox uses for a
// fractional exponent in [0, BONE).
func bpowApprox(base, exp *big.Int) (*big.Int, error) {
	const precision = 10
	a := exp
	// x and each coefficient c are carried as magnitudes plus a sign flag,
	// as BMath's bsubSign does; term's running sign lives in negative.
	x := new(big.Int).Sub(base, BONE)
	xneg := x.Sign() < 0
	x.Abs(x)
	var err error
	term := new(big.Int).Set(BONE)
	sum := new(big.Int).Set(term)
	negative := false

	for i := 1; i <= precision; i++ {
		bigK := new(big.Int).Mul(big.NewInt(int64(i)), BONE)
		c := new(big.Int).Sub(a, new(big.Int).Sub(bigK, BONE))
		cneg := c.Sign() < 0
		c.Abs(c)
		term, err = BMul(term, x)
		if err != nil {
			return nil, err
		}
		term, err = BMul(term, c)
		if err != nil {
			return nil, err
		}
		term, err = BDiv(term, bigK)
		if err != nil {
			return nil, err
		}
		if term.Sign() == 0 {
			break
		}
		if xneg {
			negative = !negative
		}
		if cneg {
			negative = !negative
		}
		if negative {
			sum, err = BSub(sum, term)
		} else {
			sum, err = BAdd(sum, term)
		}
		if err != nil {
			return nil, err
		}
	}
	return sum, nil
}
