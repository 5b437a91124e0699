package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tangtown/tangdesk/internal/utils"
)

// ErrNothingMapped means the upstream returned records but not a single one
// resolved to a known collection member. That pattern is an upstream schema
// change or a stale launcher map, never a genuinely empty market, so the run
// aborts instead of replacing a good snapshot with an empty one.
var ErrNothingMapped = errors.New("fetched listings but mapped none; refusing to write snapshot")

// Write validates the snapshot against the empty-wipe gate and writes it
// atomically: marshal, write to a temp file next to the target, rename. A
// crashed run can never leave a half-written snapshot behind.
func Write(path string, snap *Snapshot) error {
	if snap.Stats.FetchedCount > 0 && snap.ListingsByID.Len() == 0 {
		return fmt.Errorf("%w (fetched %d records)", ErrNothingMapped, snap.Stats.FetchedCount)
	}

	lock, err := utils.NewSnapshotLock(path)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Read loads a snapshot file.
func Read(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return &snap, nil
}
