package lock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/lite-lake/wildcert/internal/constants"
	"github.com/lite-lake/wildcert/internal/domain"
)

// RunLock serialises generate and renew runs that share a working directory,
// since they share one credentials file.
type RunLock struct {
	flock *flock.Flock
}

func New(dir string) *RunLock {
	return &RunLock{flock: flock.New(filepath.Join(dir, constants.LockFileName))}
}

// Acquire does not wait: a held lock means another run is in progress.
func (l *RunLock) Acquire() error {
	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrLockFailed, l.flock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyRunning, l.flock.Path())
	}
	return nil
}

func (l *RunLock) Release() error {
	return l.flock.Unlock()
}
