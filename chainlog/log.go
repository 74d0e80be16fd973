// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chainlog defines the block-scoped event log shape the rest of the
// state space manager is built on, plus the canonical topic-0 signatures
// named in the specification.
package chainlog

import (
	"sort"

	"github.com/luxfi/geth/common"
)

// Log is a block-scoped record of a single emitted event. Within a block,
// Logs are totally ordered by LogIndex.
type Log struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	BlockNumber uint64
	BlockHash   common.Hash
	LogIndex    uint64
	TxHash      common.Hash
	TxIndex     uint64
	Removed     bool
}

// Topic0 returns the event signature hash, or the zero hash for an
// anonymous / malformed log.
func (l Log) Topic0() common.Hash {
	if len(l.Topics) == 0 {
		return common.Hash{}
	}
	return l.Topics[0]
}

// SortByLogIndex sorts logs in place by (BlockNumber, LogIndex), the order
// in which the sync pipeline must apply them.
func SortByLogIndex(logs []Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].LogIndex < logs[j].LogIndex
	})
}

// GroupByBlock partitions an already-sorted log slice into per-block groups,
// preserving block order and in-block log-index order.
func GroupByBlock(logs []Log) []BlockLogs {
	if len(logs) == 0 {
		return nil
	}
	var groups []BlockLogs
	cur := BlockLogs{Block: logs[0].BlockNumber}
	for _, l := range logs {
		if l.BlockNumber != cur.Block {
			groups = append(groups, cur)
			cur = BlockLogs{Block: l.BlockNumber}
		}
		cur.Logs = append(cur.Logs, l)
	}
	groups = append(groups, cur)
	return groups
}

// BlockLogs is every log emitted in a single block, in log-index order.
type BlockLogs struct {
	Block uint64
	Logs  []Log
}
