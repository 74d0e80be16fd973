// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clmm

import (
	"math/big"

	roaring "github.com/RoaringBitmap/roaring/v2"
	"github.com/holiman/uint256"

	"github.com/luxfi/statespace/fixedpoint"
)

// tickIndexOffset shifts a compressed tick index (tick/tick_spacing, which
// can be negative down to MIN_TICK) into the non-negative domain
// github.com/RoaringBitmap/roaring/v2 requires for its uint32 keys.
const tickIndexOffset = uint32(fixedpoint.MaxTick) + 1

func compressedToRoaringKey(compressed int32) uint32 {
	return uint32(compressed+int32(tickIndexOffset)) // always >= 0 for compressed in [MinTick, MaxTick]
}

func roaringKeyToCompressed(key uint32) int32 {
	return int32(key) - int32(tickIndexOffset)
}

// floorDiv is integer division rounding toward negative infinity, matching
// Solidity's `tick / tickSpacing` adjustment in TickBitmap.position (Go's
// native `/` truncates toward zero).
func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// position splits a compressed tick index into its bitmap word and bit
// position, matching TickBitmap.position.
func position(compressed int32) (word int16, bit uint8) {
	w := floorDiv(compressed, 256)
	b := compressed - w*256
	return int16(w), uint8(b)
}

// bitmap is the sparse tick-initialization index (spec §3: "Bit b of word w
// in tick_bitmap is set iff tick (w*256+b)*tick_spacing has a nonzero
// liquidity_gross"). The authoritative, checkpoint-serialized representation
// is the map[int16]*uint256.Int word map; bitmap additionally mirrors the
// same set as a github.com/RoaringBitmap/roaring/v2 bitmap over compressed
// tick indices so the "which ticks are initialized" query
// (Pool.InitializedTicks) is a compressed bitmap scan instead of a
// 256-wide per-word scan over every known word.
type bitmap struct {
	words map[int16]*uint256.Int
	index *roaring.Bitmap
}

func newBitmap() *bitmap {
	return &bitmap{words: make(map[int16]*uint256.Int), index: roaring.New()}
}

func (b *bitmap) clone() *bitmap {
	out := newBitmap()
	for w, v := range b.words {
		out.words[w] = new(uint256.Int).Set(v)
	}
	out.index = b.index.Clone()
	return out
}

func (b *bitmap) wordOrZero(w int16) *uint256.Int {
	if v, ok := b.words[w]; ok {
		return v
	}
	return new(uint256.Int)
}

// flip toggles the bit for compressed, keeping the roaring index in sync,
// and reports whether the bit ended up set.
func (b *bitmap) flip(compressed int32) bool {
	word, bit := position(compressed)
	cur := b.wordOrZero(word)
	curBig := cur.ToBig()
	mask := new(big.Int).Lsh(big.NewInt(1), uint(bit))
	next := new(big.Int).Xor(curBig, mask)
	nextU, _ := uint256.FromBig(next)
	if next.Sign() == 0 {
		delete(b.words, word)
	} else {
		b.words[word] = nextU
	}
	set := next.Bit(int(bit)) != 0
	key := compressedToRoaringKey(compressed)
	if set {
		b.index.Add(key)
	} else {
		b.index.Remove(key)
	}
	return set
}

func (b *bitmap) isSet(compressed int32) bool {
	word, bit := position(compressed)
	cur := b.wordOrZero(word)
	return cur.ToBig().Bit(int(bit)) != 0
}

// initializedTicks returns every initialized compressed tick index in
// ascending order, via a single pass over the compressed roaring bitmap.
func (b *bitmap) initializedTicks() []int32 {
	out := make([]int32, 0, b.index.GetCardinality())
	it := b.index.Iterator()
	for it.HasNext() {
		out = append(out, roaringKeyToCompressed(it.Next()))
	}
	return out
}

// nextInitializedTickWithinOneWord mirrors the on-chain
// TickBitmap.nextInitializedTickWithinOneWord exactly: search only the
// current word (plus, for lte=false, the immediately following compressed
// index), and if nothing is set, return that word's boundary.
func (b *bitmap) nextInitializedTickWithinOneWord(compressed int32, lte bool) (next int32, initialized bool) {
	if lte {
		word, bit := position(compressed)
		wordVal := b.wordOrZero(word).ToBig()
		mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bit)+1), big.NewInt(1)) // bits [0, bit]
		masked := new(big.Int).And(wordVal, mask)
		if masked.Sign() != 0 {
			msb := masked.BitLen() - 1
			return compressed - (int32(bit) - int32(msb)), true
		}
		return compressed - int32(bit), false
	}

	compressed++
	word, bit := position(compressed)
	wordVal := b.wordOrZero(word).ToBig()
	allOnes := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	lowMask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bit)), big.NewInt(1)) // bits [0, bit-1]
	mask := new(big.Int).AndNot(allOnes, lowMask)                                          // bits [bit, 255]
	masked := new(big.Int).And(wordVal, mask)
	if masked.Sign() != 0 {
		lsb := masked.TrailingZeroBits()
		return compressed + (int32(lsb) - int32(bit)), true
	}
	return compressed + (255 - int32(bit)), false
}
