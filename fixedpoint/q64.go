// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/luxfi/statespace/ssmerrors"
)

// DivUU computes (x << 64) / y and returns the result as a Q64 fixed-point
// value (64 fractional bits) held in a *uint256.Int. It fails with
// ssmerrors.ErrDivisionByZero when y == 0, and with ssmerrors.ErrRoundingLoss
// when the quotient does not fit in 128 bits — spec §4.1 requires div_uu to
// reject results that would silently lose precision when narrowed to u128.
func DivUU(x, y *uint256.Int) (*uint256.Int, error) {
	if y.IsZero() {
		return nil, fmt.Errorf("%w: div_uu denominator is zero", ssmerrors.ErrDivisionByZero)
	}

	num := new(big.Int).Lsh(bigFromUint256(x), 64)
	den := bigFromUint256(y)
	q, _ := new(big.Int).QuoRem(num, den, new(big.Int))

	if q.BitLen() > 128 {
		return nil, fmt.Errorf("%w: div_uu quotient exceeds 128 bits", ssmerrors.ErrRoundingLoss)
	}
	out, overflow := uint256FromBig(q)
	if overflow {
		return nil, fmt.Errorf("%w: div_uu quotient exceeds 256 bits", ssmerrors.ErrRoundingLoss)
	}
	return out, nil
}

// Q64ToF64 performs the lossy conversion from a Q64 fixed-point value to a
// float64, used only for display and price reporting (never in the
// deterministic swap math).
func Q64ToF64(x *uint256.Int) float64 {
	f := new(big.Float).SetInt(bigFromUint256(x))
	f.Quo(f, new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 64)))
	out, _ := f.Float64()
	return out
}

// OneQ64 is the Q64 representation of 1.0.
func OneQ64() *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), 64)
}
