// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the state space manager's tunables. It is a plain
// struct, not a loader — wiring it up from flags, environment, or a file is
// left to the caller, the way the teacher repo's command wrappers own
// flag/env binding rather than the library packages they call into.
package config

import "fmt"

// Config controls bootstrap concurrency, change-cache depth, channel
// backpressure, and optional subsystems.
type Config struct {
	// SyncStep bounds how many blocks a single bootstrap log-fetch window
	// covers (spec §4.6 step 2).
	SyncStep uint64

	// TaskPermits bounds how many bootstrap windows/batches run
	// concurrently, via a golang.org/x/sync/semaphore.Weighted.
	TaskPermits int64

	// CacheSize is the change cache's ring-buffer capacity (spec §4.5).
	CacheSize int

	// ChannelBuffer sizes the changed-pools subscription channel the live
	// sync loop publishes to (spec §4.6).
	ChannelBuffer int

	// DiscoveryEnabled turns on the factory-log discovery manager (spec
	// §4.7); when false, only the pools present at bootstrap are tracked.
	DiscoveryEnabled bool
}

// Default returns the specification's baseline tunables.
func Default() Config {
	return Config{
		SyncStep:         10_000,
		TaskPermits:      50,
		CacheSize:        150,
		ChannelBuffer:    8,
		DiscoveryEnabled: false,
	}
}

// Validate reports the first tunable that is out of range.
func (c Config) Validate() error {
	if c.SyncStep == 0 {
		return fmt.Errorf("sync step must be positive")
	}
	if c.TaskPermits <= 0 {
		return fmt.Errorf("task permits must be positive")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive")
	}
	if c.ChannelBuffer < 0 {
		return fmt.Errorf("channel buffer must not be negative")
	}
	return nil
}
