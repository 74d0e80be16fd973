// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package batchrequest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkEvenDivision(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	chunks := Chunk(items, 2)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5, 6}}, chunks)
}

func TestChunkUnevenLastGroup(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	chunks := Chunk(items, 2)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunks)
}

func TestChunkEmpty(t *testing.T) {
	chunks := Chunk([]int{}, 2)
	assert.Nil(t, chunks)
}

func TestChunkRespectsBatchConstants(t *testing.T) {
	pools := make([]int, 600)
	chunks := Chunk(pools, Slot0Batch)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], Slot0Batch)
}
