// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tokenmeta

import (
	"context"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls [][]common.Address
	table map[common.Address]uint8
}

func (f *fakeFetcher) FetchDecimals(_ context.Context, tokens []common.Address, _ uint64) (map[common.Address]uint8, error) {
	f.calls = append(f.calls, tokens)
	out := make(map[common.Address]uint8, len(tokens))
	for _, t := range tokens {
		out[t] = f.table[t]
	}
	return out, nil
}

func TestDecimalsCachesAcrossCalls(t *testing.T) {
	weth := common.HexToAddress("0xEEEE")
	usdc := common.HexToAddress("0xCCCC")
	fetcher := &fakeFetcher{table: map[common.Address]uint8{weth: 18, usdc: 6}}

	r, err := New(fetcher, 10)
	require.NoError(t, err)

	out, err := r.Decimals(context.Background(), []common.Address{weth, usdc}, 100)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), out[weth])
	assert.Equal(t, uint8(6), out[usdc])
	assert.Len(t, fetcher.calls, 1)

	out2, err := r.Decimals(context.Background(), []common.Address{weth}, 200)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), out2[weth])
	assert.Len(t, fetcher.calls, 1, "weth should be served from cache, not re-fetched")
}

func TestOneResolvesSingleToken(t *testing.T) {
	dai := common.HexToAddress("0xDAI")
	fetcher := &fakeFetcher{table: map[common.Address]uint8{dai: 18}}
	r, err := New(fetcher, 10)
	require.NoError(t, err)

	d, err := r.One(context.Background(), dai, 1)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), d)
}
