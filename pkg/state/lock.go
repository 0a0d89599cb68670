package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// LockFileName is created next to the state file while a run holds the lock.
const LockFileName = "run.lock"

// DefaultStaleLockAge is how old a lock may get before it is presumed abandoned.
const DefaultStaleLockAge = 10 * time.Minute

// ErrLocked means another run holds the lock.
var ErrLocked = errors.New("another run holds the state lock")

// Lock is an advisory single-writer lock on the state directory.
// Runs are expected not to overlap; the lock enforces it when enabled.
type Lock struct {
	path string
}

// AcquireLock creates the lock file exclusively. A lock older than staleAfter
// is removed and retaken once.
func AcquireLock(dir string, staleAfter time.Duration) (*Lock, error) {
	path := filepath.Join(dir, LockFileName)

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
			if closeErr := f.Close(); closeErr != nil {
				return nil, fmt.Errorf("failed to close lock file: %w", closeErr)
			}
			return &Lock{path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create lock file %s: %w", path, err)
		}

		info, statErr := os.Stat(path)
		if errors.Is(statErr, os.ErrNotExist) {
			continue
		}
		if statErr != nil || time.Since(info.ModTime()) < staleAfter {
			return nil, ErrLocked
		}
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale lock: %w", rmErr)
		}
	}
	return nil, ErrLocked
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
