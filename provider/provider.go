// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package provider defines the minimal chain-transport surface the state
// space manager consumes (spec §1, §6: "specified only by its
// request/response shape" — a real RPC/IPC/websocket client is an external
// collaborator, not implemented here). Consumers depend on this narrow
// interface rather than a concrete client so tests can supply a fake without
// pulling in a transport dependency.
package provider

import (
	"context"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/chainlog"
)

// LogFilter selects which logs a query or subscription should return.
type LogFilter struct {
	FromBlock uint64
	ToBlock   uint64 // ignored by subscriptions; inclusive for queries
	Addresses []common.Address
	Topics    [][]common.Hash // OR within a position, AND across positions
}

// BlockHeader is the minimal per-block metadata the sync loop needs to
// detect reorgs and stamp change-cache entries.
type BlockHeader struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  uint64
}

// CallMsg is a read-only contract call, used for the batched
// factory/batchrequest aggregator calls (spec §4.6 step 7).
type CallMsg struct {
	To   common.Address
	Data []byte
}

// Provider is every chain-read operation the state space manager needs.
// Implementations must be safe for concurrent use.
type Provider interface {
	// BlockNumber returns the chain's current head height.
	BlockNumber(ctx context.Context) (uint64, error)

	// Logs returns every log matching filter, sorted by (block, log index).
	Logs(ctx context.Context, filter LogFilter) ([]chainlog.Log, error)

	// SubscribeBlocks streams new block headers as they're observed. The
	// returned channel is closed, and the error channel receives the
	// terminal error, when the subscription ends (context cancellation,
	// transport failure, or normal shutdown).
	SubscribeBlocks(ctx context.Context) (<-chan BlockHeader, <-chan error, error)

	// CallRaw executes msg as an eth_call against the given block (0 means
	// latest), returning the raw ABI-encoded return data.
	CallRaw(ctx context.Context, msg CallMsg, block uint64) ([]byte, error)

	// BlockByNumber returns the full header for a single historical block,
	// used to validate checkpoint continuity and reorg ancestry.
	BlockByNumber(ctx context.Context, number uint64) (BlockHeader, error)
}
