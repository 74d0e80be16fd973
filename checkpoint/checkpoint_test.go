// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package checkpoint

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/statespace/amm"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	state, err := json.Marshal(map[string]any{"reserve_a": "100", "reserve_b": "200"})
	require.NoError(t, err)

	f := File{
		Timestamp:   1_700_000_000,
		BlockNumber: 12345,
		Factories: []FactoryRecord{
			{Address: common.HexToAddress("0xFAC"), Variant: amm.VariantConstantProduct, CreationBlock: 100},
		},
		AMMs: []AMMRecord{
			{Variant: amm.VariantConstantProduct, Address: common.HexToAddress("0xP00L"), State: state},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, f))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.SchemaVersion)
	assert.Equal(t, uint64(12345), loaded.BlockNumber)
	require.Len(t, loaded.Factories, 1)
	assert.Equal(t, common.HexToAddress("0xFAC"), loaded.Factories[0].Address)
	require.Len(t, loaded.AMMs, 1)
	assert.Equal(t, common.HexToAddress("0xP00L"), loaded.AMMs[0].Address)
}

func TestLoadRejectsNewerSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(File{SchemaVersion: schemaVersion + 1}))

	_, err := Load(&buf)
	assert.Error(t, err)
}
