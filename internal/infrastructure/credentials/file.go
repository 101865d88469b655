package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lite-lake/wildcert/internal/constants"
	"github.com/lite-lake/wildcert/internal/domain"
)

// Manager owns the transient credentials file read by the certbot
// dns-cloudflare plugin. The file lives in a single well-known location, so
// two runs sharing a directory must not overlap.
type Manager struct {
	dir string
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

func (m *Manager) Path() string {
	return filepath.Join(m.dir, constants.CredentialFileName)
}

// Materialize writes the plugin credential line into a new file readable by
// the owner only.
func (m *Manager) Materialize(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrCredentialFile, domain.RequiredField("api token"))
	}

	path := m.Path()
	// a stale file or symlink is replaced, never written through
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: remove stale %s: %w", domain.ErrCredentialFile, path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, constants.FilePermissionOwnerRW)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %w", domain.ErrCredentialFile, path, err)
	}
	if _, err := fmt.Fprintf(f, "dns_cloudflare_api_token = %s\n", token); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: write %s: %w", domain.ErrCredentialFile, path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: close %s: %w", domain.ErrCredentialFile, path, err)
	}

	slog.Debug("credential file created", "path", path)
	return path, nil
}

// Release removes the file. A missing file is not an error.
func (m *Manager) Release(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %w", domain.ErrCredentialFile, path, err)
	}
	slog.Debug("credential file removed", "path", path)
	return nil
}

// With materializes the file, runs fn with its path and removes the file on
// every exit path, including a panic in fn.
func (m *Manager) With(token string, fn func(path string) error) error {
	path, err := m.Materialize(token)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Release(path); err != nil {
			slog.Error("failed to remove credential file", "path", path, "error", err)
		}
	}()
	return fn(path)
}
