// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package factory holds the per-protocol factory descriptors the bootstrap
// and discovery pipelines dispatch on (spec §2.4): each descriptor names
// the on-chain factory contract, the pool-creation event it emits, and the
// AMM variant its children are.
package factory

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/amm"
	"github.com/luxfi/statespace/chainlog"
	"github.com/luxfi/statespace/ssmerrors"
)

// Descriptor identifies one on-chain factory contract and how to interpret
// the pools it creates.
type Descriptor struct {
	Address          common.Address
	Variant          amm.Variant
	CreationTopic    common.Hash
	CreationBlock    uint64 // first block to scan for creation logs, 0 if unknown
	FeeBps           uint32 // fixed protocol fee, for constant-product factories that don't encode fee per-pool
}

// ConstantProduct returns a descriptor for a Uniswap-V2-style factory that
// emits PairCreated(token0, token1, pair, pairIndex).
func ConstantProduct(addr common.Address, creationBlock uint64, feeBps uint32) Descriptor {
	return Descriptor{
		Address:       addr,
		Variant:       amm.VariantConstantProduct,
		CreationTopic: chainlog.TopicPairCreatedV2,
		CreationBlock: creationBlock,
		FeeBps:        feeBps,
	}
}

// ConcentratedLiquidity returns a descriptor for a Uniswap-V3-style factory
// that emits PoolCreated(token0, token1, fee, tickSpacing, pool).
func ConcentratedLiquidity(addr common.Address, creationBlock uint64) Descriptor {
	return Descriptor{
		Address:       addr,
		Variant:       amm.VariantConcentratedLiquidity,
		CreationTopic: chainlog.TopicPoolCreatedV3,
		CreationBlock: creationBlock,
	}
}

// Created is a newly discovered pool's identity, decoded from a single
// factory creation log — enough to construct the right AMM variant and
// queue it for the batched initializer.
type Created struct {
	Factory     common.Address
	Pool        common.Address
	TokenA      common.Address
	TokenB      common.Address
	Fee         uint32 // meaningful for VariantConcentratedLiquidity only
	TickSpacing int32  // meaningful for VariantConcentratedLiquidity only
}

// DecodeCreationLog decodes a single factory creation log according to
// desc.Variant.
func DecodeCreationLog(desc Descriptor, l chainlog.Log) (Created, error) {
	if l.Topic0() != desc.CreationTopic {
		return Created{}, fmt.Errorf("%w: factory %s got topic0 %s", ssmerrors.ErrInvalidEventSignature, desc.Address, l.Topic0())
	}
	switch desc.Variant {
	case amm.VariantConstantProduct:
		return decodePairCreated(desc, l)
	case amm.VariantConcentratedLiquidity:
		return decodePoolCreated(desc, l)
	default:
		return Created{}, fmt.Errorf("%w: no creation decoder for variant %s", ssmerrors.ErrUnknownFactory, desc.Variant)
	}
}

// PairCreated(address indexed token0, address indexed token1, address pair,
// uint256 pairIndex): token0/token1 are indexed topics, pair is the first
// data word.
func decodePairCreated(desc Descriptor, l chainlog.Log) (Created, error) {
	if len(l.Topics) < 3 {
		return Created{}, fmt.Errorf("%w: PairCreated missing indexed topics", ssmerrors.ErrBatchDecodeMismatch)
	}
	if len(l.Data) < 32 {
		return Created{}, fmt.Errorf("%w: PairCreated data too short", ssmerrors.ErrBatchDecodeMismatch)
	}
	return Created{
		Factory: desc.Address,
		TokenA:  common.BytesToAddress(l.Topics[1].Bytes()),
		TokenB:  common.BytesToAddress(l.Topics[2].Bytes()),
		Pool:    common.BytesToAddress(l.Data[0:32]),
		Fee:     desc.FeeBps,
	}, nil
}

// PoolCreated(address indexed token0, address indexed token1,
// uint24 indexed fee, int24 tickSpacing, address pool): fee is also
// indexed (topic 3); tickSpacing and pool are the two data words.
func decodePoolCreated(desc Descriptor, l chainlog.Log) (Created, error) {
	if len(l.Topics) < 4 {
		return Created{}, fmt.Errorf("%w: PoolCreated missing indexed topics", ssmerrors.ErrBatchDecodeMismatch)
	}
	if len(l.Data) < 64 {
		return Created{}, fmt.Errorf("%w: PoolCreated data too short", ssmerrors.ErrBatchDecodeMismatch)
	}
	feeWord := new(big.Int).SetBytes(l.Topics[3].Bytes())
	tickSpacingWord := new(big.Int).SetBytes(l.Data[0:32])
	tickSpacing := int32(tickSpacingWord.Int64())

	return Created{
		Factory:     desc.Address,
		TokenA:      common.BytesToAddress(l.Topics[1].Bytes()),
		TokenB:      common.BytesToAddress(l.Topics[2].Bytes()),
		Pool:        common.BytesToAddress(l.Data[32:64]),
		Fee:         uint32(feeWord.Uint64()),
		TickSpacing: tickSpacing,
	}, nil
}
