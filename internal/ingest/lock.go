package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/errors"
)

// RebuildLock serializes index rebuilds across processes with an
// exclusive file lock in the index directory. Works on all platforms.
type RebuildLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewRebuildLock creates a rebuild lock for the given index directory.
// The lock file lives at <indexDir>/.rebuild.lock
func NewRebuildLock(indexDir string) *RebuildLock {
	lockPath := filepath.Join(indexDir, ".rebuild.lock")
	return &RebuildLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Acquire takes the lock without blocking. A lock held by another process
// is reported as an index-locked error rather than waiting, so a second
// rebuild fails fast with an actionable message.
func (l *RebuildLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire rebuild lock: %w", err)
	}
	if !acquired {
		return errors.New(errors.ErrCodeIndexLocked,
			"index is locked by another process", nil).
			WithDetail("lock_file", l.path).
			WithSuggestion("wait for the running indexing operation to finish")
	}

	l.locked = true
	return nil
}

// Release unlocks. Safe to call on an unheld lock.
func (l *RebuildLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release rebuild lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *RebuildLock) Path() string {
	return l.path
}
