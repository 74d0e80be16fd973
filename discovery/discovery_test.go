// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/statespace/amm"
	"github.com/luxfi/statespace/amm/cpmm"
	"github.com/luxfi/statespace/chainlog"
	"github.com/luxfi/statespace/factory"
)

func leftPadAddr(a common.Address) common.Hash {
	var h common.Hash
	copy(h[12:], a.Bytes())
	return h
}

func TestHandleCreationLogMintsPool(t *testing.T) {
	factoryAddr := common.HexToAddress("0xFAC")
	token0 := common.HexToAddress("0x1111")
	token1 := common.HexToAddress("0x2222")
	pool := common.HexToAddress("0x3333")

	m := New([]factory.Descriptor{factory.ConstantProduct(factoryAddr, 0, 30)})
	require.True(t, m.IsFactory(factoryAddr))

	data := make([]byte, 32)
	copy(data[12:32], pool.Bytes())
	l := chainlog.Log{
		Address: factoryAddr,
		Topics:  []common.Hash{chainlog.TopicPairCreatedV2, leftPadAddr(token0), leftPadAddr(token1)},
		Data:    data,
	}

	minted, err := m.HandleCreationLog(l)
	require.NoError(t, err)
	assert.Equal(t, pool, minted.Address())
	assert.Equal(t, amm.VariantConstantProduct, minted.Variant())

	cp := minted.(*cpmm.Pool)
	assert.Equal(t, token0, cp.TokenA)
	assert.Equal(t, token1, cp.TokenB)
}

func TestHandleCreationLogUnknownFactory(t *testing.T) {
	m := New(nil)
	l := chainlog.Log{Address: common.HexToAddress("0xGHOST"), Topics: []common.Hash{chainlog.TopicPairCreatedV2}}
	_, err := m.HandleCreationLog(l)
	assert.Error(t, err)
}

func TestAddFactoryExtendsTracking(t *testing.T) {
	m := New(nil)
	assert.Empty(t, m.FactoryAddresses())

	addr := common.HexToAddress("0xFAC2")
	m.AddFactory(factory.ConstantProduct(addr, 10, 30))
	assert.True(t, m.IsFactory(addr))
	assert.Contains(t, m.CreationTopics(), chainlog.TopicPairCreatedV2)
}
