// Package runlock keeps two batches from working on the same directory
// tree at once.
package runlock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the lock file created in the scan root.
const FileName = ".hevcsweep.lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another hevcsweep batch is already running in this directory")

// Lock is a held advisory lock on a scan root.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire takes the lock for root without blocking.
func Acquire(root string) (*Lock, error) {
	path := filepath.Join(root, FileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release unlocks the lock file and leaves it in place, so every process
// contends on the same inode. Safe on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	l.fl = nil
	return nil
}
