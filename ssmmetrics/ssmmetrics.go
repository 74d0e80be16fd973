// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ssmmetrics wires the state space manager's operational counters
// and gauges into a caller-supplied prometheus registry. Every constructor
// here takes a prometheus.Registerer explicitly rather than registering
// against the global default registry, so multiple state space manager
// instances (e.g. one per chain, or one per test) never collide on metric
// name registration.
package ssmmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the full set of counters and gauges the sync loop and
// bootstrap pipeline update.
type Metrics struct {
	PoolsTracked         prometheus.Gauge
	BlocksProcessedTotal prometheus.Counter
	ReorgsTotal          prometheus.Counter
	ReorgDepth           prometheus.Histogram
	ChangeCacheSize      prometheus.Gauge
	BootstrapWindowsTotal prometheus.Counter
	SyncLagBlocks        prometheus.Gauge
}

// New registers and returns a Metrics bound to reg. namespace typically
// identifies the chain or deployment ("statespace_<chain>").
func New(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		PoolsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pools_tracked",
			Help:      "Number of AMM pools currently tracked in the state space.",
		}),
		BlocksProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_processed_total",
			Help:      "Total number of blocks applied by the live sync loop.",
		}),
		ReorgsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reorgs_total",
			Help:      "Total number of chain reorganizations handled.",
		}),
		ReorgDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reorg_depth_blocks",
			Help:      "Depth, in blocks, of each handled chain reorganization.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 89},
		}),
		ChangeCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "change_cache_size",
			Help:      "Number of blocks of history currently held in the change cache.",
		}),
		BootstrapWindowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_windows_total",
			Help:      "Total number of block-range log-fetch windows completed during bootstrap.",
		}),
		SyncLagBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_lag_blocks",
			Help:      "Chain head height minus the state space's last synced block.",
		}),
	}

	reg.MustRegister(
		m.PoolsTracked,
		m.BlocksProcessedTotal,
		m.ReorgsTotal,
		m.ReorgDepth,
		m.ChangeCacheSize,
		m.BootstrapWindowsTotal,
		m.SyncLagBlocks,
	)
	return m
}
