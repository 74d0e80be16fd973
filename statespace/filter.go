// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package statespace

import (
	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/amm"
)

// LiquidityValuer prices a pool's total liquidity in USD, for Filter's
// MinLiquidityUSD threshold. Left to the caller to supply (spec §3
// supplemented feature) since pricing requires an oracle or reference-token
// table this package has no opinion on.
type LiquidityValuer func(amm.AMM) float64

// Filter is a composable predicate over tracked pools (spec §3 supplemented
// feature): a pool must pass every configured criterion, and every
// extra predicate added via And, to be Allowed. A zero-value Filter allows
// everything.
type Filter struct {
	// Whitelist, if non-empty, allows only these pool addresses.
	Whitelist map[common.Address]struct{}

	// Blacklist excludes these pool addresses outright, even if
	// Whitelist would otherwise allow them.
	Blacklist map[common.Address]struct{}

	// MinLiquidityUSD, if positive, requires Valuer(pool) >= this
	// threshold. Ignored if Valuer is nil.
	MinLiquidityUSD float64
	Valuer          LiquidityValuer

	extra []func(amm.AMM) bool
}

// Allows reports whether p passes every configured criterion.
func (f Filter) Allows(p amm.AMM) bool {
	addr := p.Address()
	if len(f.Blacklist) > 0 {
		if _, blocked := f.Blacklist[addr]; blocked {
			return false
		}
	}
	if len(f.Whitelist) > 0 {
		if _, allowed := f.Whitelist[addr]; !allowed {
			return false
		}
	}
	if f.MinLiquidityUSD > 0 && f.Valuer != nil {
		if f.Valuer(p) < f.MinLiquidityUSD {
			return false
		}
	}
	for _, pred := range f.extra {
		if !pred(p) {
			return false
		}
	}
	return true
}

// And returns a Filter allowing a pool only when both f and other allow it.
func (f Filter) And(other Filter) Filter {
	combined := f
	combined.extra = append(append([]func(amm.AMM) bool(nil), f.extra...), other.Allows)
	return combined
}
