package ssh

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/lite-lake/wildcert/internal/constants"
)

var ErrHostKeyMismatch = errors.New("SSH host key mismatch")

func defaultKnownHostsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
	}
	return filepath.Join(homeDir, ".ssh", "known_hosts")
}

// hostKeyCallback trusts a host on first use by appending its key to
// known_hosts, and rejects a host whose recorded key differs.
func hostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(knownHostsPath), 0700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(knownHostsPath, []byte{}, constants.FilePermissionOwnerRW); err != nil {
			return nil, err
		}
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		// re-read each time so keys learned earlier in this run are seen
		callback, err := knownhosts.New(knownHostsPath)
		if err != nil {
			return err
		}
		err = callback(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) {
			return err
		}
		if len(keyErr.Want) > 0 {
			return fmt.Errorf("%w for %s", ErrHostKeyMismatch, hostname)
		}

		line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
		f, err := os.OpenFile(knownHostsPath, os.O_APPEND|os.O_WRONLY, constants.FilePermissionOwnerRW)
		if err != nil {
			return fmt.Errorf("open known_hosts: %w", err)
		}
		defer f.Close()
		if _, err := fmt.Fprintln(f, line); err != nil {
			return fmt.Errorf("write known_hosts: %w", err)
		}
		return nil
	}, nil
}
