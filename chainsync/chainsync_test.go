// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chainsync

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/luxfi/statespace/amm/cpmm"
	"github.com/luxfi/statespace/changecache"
	"github.com/luxfi/statespace/chainlog"
	"github.com/luxfi/statespace/provider"
	"github.com/luxfi/statespace/statespace"
)

type fakeProvider struct {
	headers chan provider.BlockHeader
	errs    chan error
	logs    map[uint64][]chainlog.Log
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		headers: make(chan provider.BlockHeader, 8),
		errs:    make(chan error, 1),
		logs:    make(map[uint64][]chainlog.Log),
	}
}

func (f *fakeProvider) BlockNumber(context.Context) (uint64, error) { return 0, nil }

func (f *fakeProvider) Logs(_ context.Context, filter provider.LogFilter) ([]chainlog.Log, error) {
	var out []chainlog.Log
	for b := filter.FromBlock; b <= filter.ToBlock; b++ {
		out = append(out, f.logs[b]...)
	}
	return out, nil
}

func (f *fakeProvider) SubscribeBlocks(context.Context) (<-chan provider.BlockHeader, <-chan error, error) {
	return f.headers, f.errs, nil
}

func (f *fakeProvider) CallRaw(context.Context, provider.CallMsg, uint64) ([]byte, error) {
	return nil, nil
}

func (f *fakeProvider) BlockByNumber(context.Context, uint64) (provider.BlockHeader, error) {
	return provider.BlockHeader{}, nil
}

func reserveLog(addr common.Address, reserveA, reserveB int64, block, logIndex uint64) chainlog.Log {
	data := make([]byte, 64)
	big.NewInt(reserveA).FillBytes(data[0:32])
	big.NewInt(reserveB).FillBytes(data[32:64])
	return chainlog.Log{
		Address:     addr,
		Topics:      []common.Hash{chainlog.TopicSyncV2},
		Data:        data,
		BlockNumber: block,
		LogIndex:    logIndex,
	}
}

func TestApplyBlockUpdatesPoolAndRecordsPreImage(t *testing.T) {
	defer goleak.VerifyNone(t)

	addr := common.HexToAddress("0xPOOL")
	pool := cpmm.New(addr, common.HexToAddress("0xA"), common.HexToAddress("0xB"), 18, 18, 30)
	require.NoError(t, pool.ApplyInit(common.HexToAddress("0xA"), 18, common.HexToAddress("0xB"), 18, uint256.NewInt(100), uint256.NewInt(100)))

	space := statespace.New()
	space.Add(pool)
	cache := changecache.New(10)

	fp := newFakeProvider()
	fp.logs[10] = []chainlog.Log{reserveLog(addr, 1000, 2000, 10, 0)}

	s := New(space, cache, fp, nil, nil, nil, 4)

	changed, err := s.applyBlock(context.Background(), 10)
	require.NoError(t, err)
	assert.Contains(t, changed, addr)
	assert.Equal(t, 1, cache.Len())

	p, ok := space.Get(addr)
	require.True(t, ok)
	cp := p.(*cpmm.Pool)
	assert.Equal(t, uint64(1000), cp.ReserveA.Uint64())
	assert.Equal(t, uint64(2000), cp.ReserveB.Uint64())
}

// TestApplyBlockWithZeroTrackedEventsStillRecordsDenseEntry covers a block
// whose log fetch returns nothing for any tracked pool: the change cache
// must still grow by one entry so unwind's block timeline has no gap
// (spec §4.5, scenario S5).
func TestApplyBlockWithZeroTrackedEventsStillRecordsDenseEntry(t *testing.T) {
	defer goleak.VerifyNone(t)

	addr := common.HexToAddress("0xPOOL")
	pool := cpmm.New(addr, common.HexToAddress("0xA"), common.HexToAddress("0xB"), 18, 18, 30)
	require.NoError(t, pool.ApplyInit(common.HexToAddress("0xA"), 18, common.HexToAddress("0xB"), 18, uint256.NewInt(100), uint256.NewInt(100)))

	space := statespace.New()
	space.Add(pool)
	cache := changecache.New(150)

	fp := newFakeProvider() // no logs queued for any block

	s := New(space, cache, fp, nil, nil, nil, 4)

	for block := uint64(1); block <= 100; block++ {
		changed, err := s.applyBlock(context.Background(), block)
		require.NoError(t, err)
		assert.Empty(t, changed)
	}
	assert.Equal(t, 100, cache.Len())
}

func TestRunDetectsReorgAndRewindsLastSynced(t *testing.T) {
	defer goleak.VerifyNone(t)

	addr := common.HexToAddress("0xPOOL")
	pool := cpmm.New(addr, common.HexToAddress("0xA"), common.HexToAddress("0xB"), 18, 18, 30)
	require.NoError(t, pool.ApplyInit(common.HexToAddress("0xA"), 18, common.HexToAddress("0xB"), 18, uint256.NewInt(100), uint256.NewInt(100)))

	space := statespace.New()
	space.Add(pool)
	cache := changecache.New(10)

	fp := newFakeProvider()
	fp.logs[10] = []chainlog.Log{reserveLog(addr, 1000, 2000, 10, 0)}

	s := New(space, cache, fp, nil, nil, nil, 4)

	ctx, cancel := context.WithCancel(context.Background())
	out, errs := s.Run(ctx)

	fp.headers <- provider.BlockHeader{Number: 10}
	first := <-out
	assert.Contains(t, first, addr)
	assert.Equal(t, uint64(10), s.LastSyncedBlock())

	// Reorg: a replacement block 10 arrives again.
	fp.logs[10] = []chainlog.Log{reserveLog(addr, 1100, 2100, 10, 0)}
	fp.headers <- provider.BlockHeader{Number: 10}
	second := <-out
	assert.Contains(t, second, addr)
	assert.Equal(t, uint64(10), s.LastSyncedBlock())

	p, ok := space.Get(addr)
	require.True(t, ok)
	cp := p.(*cpmm.Pool)
	assert.Equal(t, uint64(1100), cp.ReserveA.Uint64())

	cancel()
	select {
	case <-out:
	case <-time.After(time.Second):
	}
	select {
	case err := <-errs:
		assert.NoError(t, err)
	default:
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	space := statespace.New()
	cache := changecache.New(10)
	fp := newFakeProvider()
	s := New(space, cache, fp, nil, nil, nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	out, _ := s.Run(ctx)
	cancel()

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Run did not shut down after context cancel")
	}
}
