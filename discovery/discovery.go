// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package discovery tracks factory contracts and turns their creation logs
// into new pools the live sync loop should start tracking (spec §4.7):
// atomic pool-insertion and filter-extension as new factories and pools
// appear.
package discovery

import (
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/amm"
	"github.com/luxfi/statespace/amm/clmm"
	"github.com/luxfi/statespace/amm/cpmm"
	"github.com/luxfi/statespace/chainlog"
	"github.com/luxfi/statespace/factory"
	"github.com/luxfi/statespace/ssmerrors"
)

// Manager owns the set of tracked factory contracts and mints new AMM
// instances from their creation logs.
type Manager struct {
	mu        sync.RWMutex
	factories map[common.Address]factory.Descriptor
	topics    mapset.Set[common.Hash] // union of every tracked factory's creation topic
}

// New returns a Manager tracking the given factories.
func New(descriptors []factory.Descriptor) *Manager {
	m := &Manager{
		factories: make(map[common.Address]factory.Descriptor, len(descriptors)),
		topics:    mapset.NewThreadUnsafeSet[common.Hash](),
	}
	for _, d := range descriptors {
		m.factories[d.Address] = d
		m.topics.Add(d.CreationTopic)
	}
	return m
}

// IsFactory reports whether addr is a tracked factory contract.
func (m *Manager) IsFactory(addr common.Address) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.factories[addr]
	return ok
}

// AddFactory registers a new factory to watch (spec §4.7: "filter
// extension" — the live sync loop's log filter must grow to include this
// factory's address and creation topic going forward).
func (m *Manager) AddFactory(d factory.Descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories[d.Address] = d
	m.topics.Add(d.CreationTopic)
}

// FactoryAddresses returns every tracked factory's address.
func (m *Manager) FactoryAddresses() []common.Address {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]common.Address, 0, len(m.factories))
	for addr := range m.factories {
		out = append(out, addr)
	}
	return out
}

// CreationTopics returns the union of every tracked factory's creation
// topic, for building the live sync loop's composite log filter.
func (m *Manager) CreationTopics() []common.Hash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.topics.ToSlice()
}

// HandleCreationLog decodes l against its factory's descriptor and mints a
// freshly constructed (but not yet initialized — callers must still run the
// batched initializer) AMM for the new pool.
func (m *Manager) HandleCreationLog(l chainlog.Log) (amm.AMM, error) {
	m.mu.RLock()
	desc, ok := m.factories[l.Address]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ssmerrors.ErrUnknownFactory, l.Address)
	}

	created, err := factory.DecodeCreationLog(desc, l)
	if err != nil {
		return nil, err
	}

	switch desc.Variant {
	case amm.VariantConstantProduct:
		return cpmm.New(created.Pool, created.TokenA, created.TokenB, 0, 0, created.Fee), nil
	case amm.VariantConcentratedLiquidity:
		return clmm.New(created.Pool, created.TokenA, created.TokenB, 0, 0, created.Fee, created.TickSpacing), nil
	default:
		return nil, fmt.Errorf("%w: no constructor for variant %s", ssmerrors.ErrUnknownFactory, desc.Variant)
	}
}
