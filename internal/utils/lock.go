package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
)

// SnapshotLock manages a file-based lock for a snapshot output file, so two
// aggregator runs pointed at the same output cannot interleave their writes.
type SnapshotLock struct {
	lock *flock.Flock
	path string
}

// NewSnapshotLock creates a new lock for the given output path.
func NewSnapshotLock(outPath string) (*SnapshotLock, error) {
	absPath, err := filepath.Abs(outPath)
	if err != nil {
		return nil, fmt.Errorf("could not resolve output path: %w", err)
	}
	lockPath := absPath + lockFileSuffix
	return &SnapshotLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Lock acquires the snapshot lock, waiting if necessary.
// It will print a message if it has to wait.
func (l *SnapshotLock) Lock() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another tangdesk process is writing this snapshot, waiting for it to finish...\n")
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// Unlock releases the snapshot lock.
func (l *SnapshotLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		// Suppress error if the lock file doesn't exist, as it means we don't hold the lock.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
