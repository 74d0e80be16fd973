// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package changecache implements the bounded, newest-first change history
// that makes chain-reorg unwinds possible without a full re-bootstrap (spec
// §4.5): each synced block records the pre-image of every pool it touched,
// and an unwind replays those pre-images back onto the live pool map.
package changecache

import (
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/amm"
	"github.com/luxfi/statespace/ssmerrors"
)

// Entry is one block's worth of recorded pre-images: for every pool this
// block's logs touched, the pool's state as it was immediately before this
// block was applied. PreImages is nil/empty for a block that touched no
// tracked pool — callers still record such a block so the cache's block
// timeline stays dense (spec §4.5: every processed block records exactly
// one entry, so unwind never misinterprets a gap as missing history).
type Entry struct {
	Block     uint64
	PreImages map[common.Address]amm.AMM
}

// Cache is a fixed-capacity ring buffer of Entry, newest at the head.
// Capacity exceeding the ring evicts the oldest entry, the same trade-off
// the teacher's bounded in-memory caches make: reorgs deeper than CacheSize
// blocks cannot be unwound and the caller must re-bootstrap instead.
type Cache struct {
	capacity int
	entries  []Entry // entries[0] is newest
}

// New returns a cache bounded to capacity blocks of history.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{capacity: capacity, entries: make([]Entry, 0, capacity)}
}

// Len reports how many blocks of history are currently recorded.
func (c *Cache) Len() int { return len(c.entries) }

// Record appends a new newest entry, evicting the oldest if the cache is at
// capacity. Callers must record every processed block, even one that
// touched no tracked pool (preImages nil or empty) — UnwindTo treats such
// an entry as a no-op step, but its presence keeps the block timeline
// dense so a later unwind can tell "nothing happened at this block" apart
// from "this block was never synced".
func (c *Cache) Record(block uint64, preImages map[common.Address]amm.AMM) {
	entry := Entry{Block: block, PreImages: preImages}
	c.entries = append([]Entry{entry}, c.entries...)
	if len(c.entries) > c.capacity {
		c.entries = c.entries[:c.capacity]
	}
	if err := c.checkInvariant(); err != nil {
		// The capacity check can only fail through a bug in Record itself;
		// the order check also fails when a caller records a block that is
		// not newer than the current newest entry. Both are programming
		// errors, so panic rather than return a recoverable error.
		panic(err)
	}
}

func (c *Cache) checkInvariant() error {
	if len(c.entries) > c.capacity {
		return fmt.Errorf("%w: %d entries exceeds capacity %d", ssmerrors.ErrCapacityInvariant, len(c.entries), c.capacity)
	}
	for i := 1; i < len(c.entries); i++ {
		if c.entries[i-1].Block <= c.entries[i].Block {
			return fmt.Errorf("%w: entries out of newest-first order", ssmerrors.ErrCapacityInvariant)
		}
	}
	return nil
}

// UnwindTo pops every recorded entry with Block >= targetBlock, applying
// each one's pre-images onto pools (in newest-to-oldest order, so a pool
// touched by several of the unwound blocks ends up at its state immediately
// before targetBlock), and returns the set of pool addresses it touched.
//
// It fails with ErrNoStateChangesInCache if targetBlock precedes the
// cache's recorded history — the caller must re-bootstrap from a
// checkpoint or genesis in that case, since this cache cannot unwind
// further back than its capacity.
func (c *Cache) UnwindTo(targetBlock uint64, pools map[common.Address]amm.AMM) (map[common.Address]struct{}, error) {
	if len(c.entries) == 0 {
		return nil, fmt.Errorf("%w: cache is empty", ssmerrors.ErrNoStateChangesInCache)
	}
	oldestRecorded := c.entries[len(c.entries)-1].Block
	if targetBlock < oldestRecorded {
		return nil, fmt.Errorf("%w: unwind target %d precedes oldest recorded block %d", ssmerrors.ErrNoStateChangesInCache, targetBlock, oldestRecorded)
	}

	touched := make(map[common.Address]struct{})
	cut := 0
	for cut < len(c.entries) && c.entries[cut].Block >= targetBlock {
		entry := c.entries[cut]
		for addr, preImage := range entry.PreImages {
			pools[addr] = preImage
			touched[addr] = struct{}{}
		}
		cut++
	}
	c.entries = c.entries[cut:]
	return touched, nil
}
