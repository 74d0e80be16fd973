// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tokenmeta resolves ERC-20 token decimals via batched static calls,
// cached across the lifetime of a state space manager (spec §4.8): the same
// handful of base tokens (WETH, USDC, ...) appear as a leg of thousands of
// pools, so decimals lookups are cached rather than re-fetched per pool.
package tokenmeta

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/ssmerrors"
)

// Fetcher performs the batched decimals() static calls. No implementation
// lives in this module: the caller supplies one (factory/batchrequest
// defines only the DecimalsRequest/DecimalsResult shapes it can use).
type Fetcher interface {
	FetchDecimals(ctx context.Context, tokens []common.Address, block uint64) (map[common.Address]uint8, error)
}

// Resolver is a decimals lookup backed by an LRU cache in front of a
// Fetcher.
type Resolver struct {
	fetcher Fetcher
	cache   *lru.Cache
}

// New returns a Resolver caching up to size token-decimals pairs.
func New(fetcher Fetcher, size int) (*Resolver, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("tokenmeta: %w", err)
	}
	return &Resolver{fetcher: fetcher, cache: cache}, nil
}

// Decimals resolves every token in tokens, fetching only the ones not
// already cached, and returns the full address->decimals map.
func (r *Resolver) Decimals(ctx context.Context, tokens []common.Address, block uint64) (map[common.Address]uint8, error) {
	out := make(map[common.Address]uint8, len(tokens))
	var missing []common.Address

	for _, t := range tokens {
		if v, ok := r.cache.Get(t); ok {
			out[t] = v.(uint8)
		} else {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := r.fetcher.FetchDecimals(ctx, missing, block)
	if err != nil {
		return nil, err
	}
	for _, t := range missing {
		d, ok := fetched[t]
		if !ok {
			return nil, fmt.Errorf("%w: decimals fetch omitted token %s", ssmerrors.ErrBatchDecodeMismatch, t)
		}
		r.cache.Add(t, d)
		out[t] = d
	}
	return out, nil
}

// One resolves a single token's decimals.
func (r *Resolver) One(ctx context.Context, token common.Address, block uint64) (uint8, error) {
	out, err := r.Decimals(ctx, []common.Address{token}, block)
	if err != nil {
		return 0, err
	}
	return out[token], nil
}
