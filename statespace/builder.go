// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package statespace

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/luxfi/statespace/amm"
	"github.com/luxfi/statespace/amm/clmm"
	"github.com/luxfi/statespace/amm/cpmm"
	"github.com/luxfi/statespace/chainlog"
	"github.com/luxfi/statespace/config"
	"github.com/luxfi/statespace/factory"
	"github.com/luxfi/statespace/provider"
)

// Initializer batch-fetches each variant's on-chain state during bootstrap
// (spec §4.6 step 7): slot0/reserves/bitmap/tick fetches live behind this
// interface, implemented by the caller (this module has no aggregator
// client; factory/batchrequest defines only the request/response shapes),
// so the builder itself never issues a raw eth_call.
type Initializer interface {
	InitConstantProduct(ctx context.Context, pools []*cpmm.Pool, block uint64) error
	InitVariant(ctx context.Context, variant amm.Variant, pools []amm.AMM, block uint64) error
}

// Builder runs the bootstrap pipeline: discover every pool each configured
// factory has created up to a target block, batch-initialize their state,
// then replay every sync-event log since creation so a pool created near
// the start of the range ends up at the same state as one created near the
// end.
type Builder struct {
	Provider    provider.Provider
	Initializer Initializer
	Factories   []factory.Descriptor
	Config      config.Config
	Logger      log.Logger
}

// NewBuilder returns a Builder, defaulting Logger to the root logger and
// Config to config.Default() when left unset.
func NewBuilder(p provider.Provider, init Initializer, factories []factory.Descriptor) *Builder {
	return &Builder{
		Provider:    p,
		Initializer: init,
		Factories:   factories,
		Config:      config.Default(),
		Logger:      log.Root(),
	}
}

// Build runs the full bootstrap pipeline up to the current chain head and
// returns the populated Space plus that head block.
func (b *Builder) Build(ctx context.Context) (*Space, uint64, error) {
	if err := b.Config.Validate(); err != nil {
		return nil, 0, fmt.Errorf("statespace: invalid config: %w", err)
	}

	head, err := b.Provider.BlockNumber(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("statespace: fetch head block: %w", err)
	}

	created, err := b.discoverAll(ctx, head)
	if err != nil {
		return nil, 0, err
	}
	b.Logger.Info("discovered pools", "count", len(created))

	space := New()
	pools := make(map[common.Address]amm.AMM, len(created))
	byVariant := make(map[amm.Variant][]amm.AMM)
	for _, c := range created {
		desc := b.descriptorFor(c.Factory)
		p := instantiate(desc.Variant, c)
		pools[c.Pool] = p
		byVariant[desc.Variant] = append(byVariant[desc.Variant], p)
	}

	if err := b.initializeAll(ctx, byVariant, head); err != nil {
		return nil, 0, err
	}

	if err := b.replaySyncLogs(ctx, pools, head); err != nil {
		return nil, 0, err
	}

	for _, p := range pools {
		space.Add(p)
	}
	return space, head, nil
}

func (b *Builder) descriptorFor(addr common.Address) factory.Descriptor {
	for _, d := range b.Factories {
		if d.Address == addr {
			return d
		}
	}
	return factory.Descriptor{}
}

func instantiate(variant amm.Variant, c factory.Created) amm.AMM {
	switch variant {
	case amm.VariantConstantProduct:
		return cpmm.New(c.Pool, c.TokenA, c.TokenB, 0, 0, c.Fee)
	case amm.VariantConcentratedLiquidity:
		return clmm.New(c.Pool, c.TokenA, c.TokenB, 0, 0, c.Fee, c.TickSpacing)
	default:
		return cpmm.New(c.Pool, c.TokenA, c.TokenB, 0, 0, c.Fee)
	}
}

// discoverAll fetches every factory's creation logs, windowed by
// Config.SyncStep and fanned out across Config.TaskPermits concurrent
// fetches via a weighted semaphore — the same bounded-fan-out shape the
// teacher uses for concurrent historical range fetches.
func (b *Builder) discoverAll(ctx context.Context, head uint64) ([]factory.Created, error) {
	sem := semaphore.NewWeighted(b.Config.TaskPermits)
	g, ctx := errgroup.WithContext(ctx)

	type windowResult struct {
		from uint64
		logs []chainlog.Log
	}
	var results []windowResult
	var mu sync.Mutex

	for _, desc := range b.Factories {
		desc := desc
		cursor := desc.CreationBlock
		for cursor <= head {
			windowFrom := cursor
			windowTo := cursor + b.Config.SyncStep - 1
			if windowTo > head {
				windowTo = head
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil, fmt.Errorf("statespace: acquire bootstrap permit: %w", err)
			}
			g.Go(func() error {
				defer sem.Release(1)
				logs, err := b.Provider.Logs(ctx, provider.LogFilter{
					FromBlock: windowFrom,
					ToBlock:   windowTo,
					Addresses: []common.Address{desc.Address},
					Topics:    [][]common.Hash{{desc.CreationTopic}},
				})
				if err != nil {
					return fmt.Errorf("statespace: fetch creation logs [%d,%d]: %w", windowFrom, windowTo, err)
				}
				mu.Lock()
				results = append(results, windowResult{from: windowFrom, logs: logs})
				mu.Unlock()
				return nil
			})
			if windowTo == head {
				break
			}
			cursor = windowTo + 1
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].from < results[j].from })

	var created []factory.Created
	for _, r := range results {
		chainlog.SortByLogIndex(r.logs)
		for _, l := range r.logs {
			desc := b.descriptorForByTopic(l)
			c, err := factory.DecodeCreationLog(desc, l)
			if err != nil {
				return nil, err
			}
			created = append(created, c)
		}
	}
	return created, nil
}

func (b *Builder) descriptorForByTopic(l chainlog.Log) factory.Descriptor {
	for _, d := range b.Factories {
		if d.Address == l.Address {
			return d
		}
	}
	return factory.Descriptor{}
}

func (b *Builder) initializeAll(ctx context.Context, byVariant map[amm.Variant][]amm.AMM, block uint64) error {
	if cpPools := byVariant[amm.VariantConstantProduct]; len(cpPools) > 0 {
		typed := make([]*cpmm.Pool, 0, len(cpPools))
		for _, p := range cpPools {
			typed = append(typed, p.(*cpmm.Pool))
		}
		if err := b.Initializer.InitConstantProduct(ctx, typed, block); err != nil {
			return fmt.Errorf("statespace: init constant-product pools: %w", err)
		}
	}
	for variant, pools := range byVariant {
		if variant == amm.VariantConstantProduct {
			continue
		}
		if err := b.Initializer.InitVariant(ctx, variant, pools, block); err != nil {
			return fmt.Errorf("statespace: init %s pools: %w", variant, err)
		}
	}
	return nil
}

// replaySyncLogs fetches and applies every sync event emitted by every
// discovered pool, from block 0 up to block, in a single address+topic
// filtered query; unlike discoverAll, the range is not split into windows.
func (b *Builder) replaySyncLogs(ctx context.Context, pools map[common.Address]amm.AMM, block uint64) error {
	if len(pools) == 0 {
		return nil
	}
	addrs := make([]common.Address, 0, len(pools))
	var topics []common.Hash
	seen := make(map[common.Hash]struct{})
	for addr, p := range pools {
		addrs = append(addrs, addr)
		for _, t := range p.SyncEventSignatures() {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				topics = append(topics, t)
			}
		}
	}

	logs, err := b.Provider.Logs(ctx, provider.LogFilter{
		FromBlock: 0,
		ToBlock:   block,
		Addresses: addrs,
		Topics:    [][]common.Hash{topics},
	})
	if err != nil {
		return fmt.Errorf("statespace: fetch sync logs: %w", err)
	}
	chainlog.SortByLogIndex(logs)

	for _, l := range logs {
		p, ok := pools[l.Address]
		if !ok {
			continue
		}
		if err := p.Sync(l); err != nil {
			return fmt.Errorf("statespace: replay sync log for %s at block %d: %w", l.Address, l.BlockNumber, err)
		}
	}
	return nil
}
