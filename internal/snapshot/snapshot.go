// Package snapshot persists the merged citation mapping as a JSON
// audit trail and reloads it for re-aggregation without re-fetching.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/frantsen/citewatch/internal/citation"
)

// DefaultFileName is the snapshot file written after each full run.
const DefaultFileName = "all_citing_papers_by_doi.json"

// ErrNoSnapshot indicates the snapshot file does not exist. A corrupt
// file reports a parse error instead.
var ErrNoSnapshot = errors.New("no snapshot file")

// Snapshot maps a tracked publication's key to its deduplicated,
// ordered citation records.
type Snapshot map[string][]citation.Record

// Write atomically replaces the snapshot at path. The data is
// serialized to a temp file in the destination directory and renamed
// over the target, so a failed write leaves any previous snapshot
// intact.
func Write(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("setting snapshot permissions: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot back for re-aggregation.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, path)
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return snap, nil
}
