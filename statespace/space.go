// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package statespace holds the live, queryable mirror of on-chain AMM pool
// state: a single-writer/many-reader map keyed by pool address (spec §3),
// a composable filter over it, and the bootstrap pipeline that populates it
// from scratch (spec §4.6).
package statespace

import (
	"fmt"
	"sync"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/amm"
	"github.com/luxfi/statespace/chainlog"
	"github.com/luxfi/statespace/changecache"
	"github.com/luxfi/statespace/ssmerrors"
)

// Space is the live pool map. The chain-sync loop is its sole writer;
// everything else — local simulators, HTTP handlers, the discovery
// manager's reads — takes the RLock. This single-writer/many-reader split
// is the same shape the teacher's in-memory state caches use for
// concurrent block processing alongside concurrent RPC-served reads.
type Space struct {
	mu    sync.RWMutex
	pools map[common.Address]amm.AMM
}

// New returns an empty Space.
func New() *Space {
	return &Space{pools: make(map[common.Address]amm.AMM)}
}

// Get returns the pool at addr, if tracked.
func (s *Space) Get(addr common.Address) (amm.AMM, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[addr]
	return p, ok
}

// Len reports how many pools are tracked.
func (s *Space) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pools)
}

// Add inserts or replaces a pool.
func (s *Space) Add(p amm.AMM) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[p.Address()] = p
}

// Remove drops a pool from the space.
func (s *Space) Remove(addr common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pools, addr)
}

// Apply routes a single decoded log to its pool (by the log's Address) and
// calls Sync on it. It fails with ErrUnknownPool if no tracked pool has
// that address.
func (s *Space) Apply(l chainlog.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[l.Address]
	if !ok {
		return fmt.Errorf("%w: %s", ssmerrors.ErrUnknownPool, l.Address)
	}
	return p.Sync(l)
}

// PreImage returns a deep clone of the pool at addr suitable for recording
// into the change cache before Apply mutates it, or nil if addr is not
// tracked.
func (s *Space) PreImage(addr common.Address) amm.AMM {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[addr]
	if !ok {
		return nil
	}
	return p.Clone()
}

// Snapshot returns a point-in-time deep copy of every tracked pool, safe
// for the caller to read or mutate without affecting the live space.
func (s *Space) Snapshot() map[common.Address]amm.AMM {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[common.Address]amm.AMM, len(s.pools))
	for addr, p := range s.pools {
		out[addr] = p.Clone()
	}
	return out
}

// ApplyPreImages installs a set of previously recorded pool states in one
// locked pass, used by the chain-sync loop's reorg unwind.
func (s *Space) ApplyPreImages(preImages map[common.Address]amm.AMM) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for addr, p := range preImages {
		s.pools[addr] = p
	}
}

// Unwind replays cache history back onto the live pool map down to
// targetBlock, under the space's write lock, so a reorg unwind and a
// concurrent reader never interleave.
func (s *Space) Unwind(c *changecache.Cache, targetBlock uint64) (map[common.Address]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.UnwindTo(targetBlock, s.pools)
}

// Addresses returns every tracked pool's address, in no particular order.
func (s *Space) Addresses() []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.Address, 0, len(s.pools))
	for addr := range s.pools {
		out = append(out, addr)
	}
	return out
}

// Filtered returns every tracked pool that f.Allows, as a fresh (non-clone)
// slice of live references — callers must not mutate the returned pools.
func (s *Space) Filtered(f Filter) []amm.AMM {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []amm.AMM
	for _, p := range s.pools {
		if f.Allows(p) {
			out = append(out, p)
		}
	}
	return out
}
