package lock

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/lite-lake/wildcert/internal/domain"
)

func TestRunLock(t *testing.T) {
	dir := t.TempDir()

	first := New(dir)
	if err := first.Acquire(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := New(dir)
	if err := second.Acquire(); !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
	if err := second.Acquire(); err != nil {
		t.Errorf("lock should be free after release: %v", err)
	}
	second.Release()
}

func TestRunLock_MissingDir(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "absent"))
	err := l.Acquire()
	if !errors.Is(err, domain.ErrLockFailed) {
		t.Errorf("expected ErrLockFailed, got %v", err)
	}
	if errors.Is(err, domain.ErrAlreadyRunning) {
		t.Error("an I/O failure is not a held lock")
	}
}
