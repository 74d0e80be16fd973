// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package checkpoint persists and restores a state space snapshot to JSON
// (spec §6): enough to resume a live sync loop without a full bootstrap
// replay — the last synced block, every tracked factory, and every
// tracked pool's serialized state.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/statespace/amm"
	"github.com/luxfi/statespace/ssmerrors"
)

// schemaVersion is bumped whenever the on-disk shape changes
// incompatibly. Supplemented beyond spec §6's literal schema, which names
// only {timestamp, block_number, factories, amms} — this field lets a
// future loader refuse (or migrate) a checkpoint written by an older
// revision instead of silently misinterpreting its fields.
const schemaVersion = 1

// File is the on-disk checkpoint shape (spec §6).
type File struct {
	SchemaVersion int               `json:"schema_version"`
	Timestamp     int64             `json:"timestamp"`
	BlockNumber   uint64            `json:"block_number"`
	Factories     []FactoryRecord   `json:"factories"`
	AMMs          []AMMRecord       `json:"amms"`
}

// FactoryRecord is one tracked factory contract.
type FactoryRecord struct {
	Address       common.Address `json:"address"`
	Variant       amm.Variant    `json:"variant"`
	CreationBlock uint64         `json:"creation_block"`
}

// AMMRecord is one tracked pool, serialized through its variant-specific
// JSON encoding (each amm package's concrete type is itself
// json.Marshal-able; AMMRecord just tags the payload with the variant so a
// caller of Load can tell which concrete type to unmarshal State into —
// Load itself returns State undecoded).
type AMMRecord struct {
	Variant amm.Variant     `json:"variant"`
	Address common.Address  `json:"address"`
	State   json.RawMessage `json:"state"`
}

// Save writes a checkpoint to w.
func Save(w io.Writer, f File) error {
	f.SchemaVersion = schemaVersion
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	return nil
}

// SaveFile writes a checkpoint to path, replacing any existing file.
func SaveFile(path string, f File) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("checkpoint: create %s: %w", path, err)
	}
	defer out.Close()
	return Save(out, f)
}

// Load reads and validates a checkpoint from r.
func Load(r io.Reader) (File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return File{}, fmt.Errorf("checkpoint: decode: %w", err)
	}
	if f.SchemaVersion > schemaVersion {
		return File{}, fmt.Errorf("%w: checkpoint schema_version %d is newer than supported %d", ssmerrors.ErrPoolDataError, f.SchemaVersion, schemaVersion)
	}
	return f, nil
}

// LoadFile reads and validates a checkpoint from path.
func LoadFile(path string) (File, error) {
	in, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	defer in.Close()
	return Load(in)
}
