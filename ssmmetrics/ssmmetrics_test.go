// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ssmmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllMetricsWithoutPanicking(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "statespace_test")
	require.NotNil(t, m)

	m.PoolsTracked.Set(5)
	m.BlocksProcessedTotal.Inc()
	m.ReorgsTotal.Inc()
	m.ReorgDepth.Observe(3)
	m.ChangeCacheSize.Set(10)
	m.BootstrapWindowsTotal.Inc()
	m.SyncLagBlocks.Set(2)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 7)
}

func TestTwoRegistriesDoNotCollide(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		New(reg1, "statespace_a")
		New(reg2, "statespace_b")
	})
}
