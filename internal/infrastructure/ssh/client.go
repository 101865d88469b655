package ssh

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/lite-lake/wildcert/internal/constants"
	"github.com/lite-lake/wildcert/internal/domain"
	"github.com/lite-lake/wildcert/internal/domain/entity"
	"github.com/lite-lake/wildcert/internal/domain/retry"
	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
)

// Uploader pushes distributed certificate files to a remote directory over
// SFTP. One connection is opened per Upload call.
type Uploader struct {
	cfg            entity.UploadConfig
	KnownHostsPath string
	// DialRetry tunes how the TCP connect is repeated. The SSH handshake is
	// never retried.
	DialRetry []retry.Option
}

func NewUploader(cfg entity.UploadConfig) *Uploader {
	return &Uploader{
		cfg:            cfg,
		KnownHostsPath: defaultKnownHostsPath(),
		DialRetry: []retry.Option{
			retry.WithMaxAttempts(domain.UploadDialAttempts),
			retry.WithInitialDelay(domain.UploadDialInitialDelay),
		},
	}
}

func (u *Uploader) Target() string {
	return fmt.Sprintf("%s@%s:%s", u.cfg.User, net.JoinHostPort(u.cfg.Host, strconv.Itoa(u.cfg.Port)), u.cfg.Path)
}

// Upload copies each local file into the configured remote directory under
// its base name. Private keys (0600 locally) keep that mode remotely.
func (u *Uploader) Upload(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}

	client, err := u.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}
	defer client.Close()

	sc, err := sftp.NewClient(client)
	if err != nil {
		return fmt.Errorf("%w: start sftp: %w", domain.ErrUploadFailed, err)
	}
	defer sc.Close()

	if err := sc.MkdirAll(u.cfg.Path); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", domain.ErrUploadFailed, u.cfg.Path, err)
	}

	log := logger.FromContext(ctx)
	for _, local := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		remote := path.Join(u.cfg.Path, filepath.Base(local))
		if err := uploadFile(sc, local, remote); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrUploadFailed, remote, err)
		}
		log.Debug("uploaded", "local", local, "remote", remote)
	}
	return nil
}

func (u *Uploader) dial(ctx context.Context) (*ssh.Client, error) {
	callback, err := hostKeyCallback(u.KnownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("host key callback: %w", err)
	}

	config := &ssh.ClientConfig{
		User:            u.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(u.cfg.Password.Value())},
		HostKeyCallback: callback,
	}

	addr := net.JoinHostPort(u.cfg.Host, strconv.Itoa(u.cfg.Port))
	log := logger.FromContext(ctx)
	opts := append([]retry.Option{
		retry.WithOnRetry(func(attempt int, delay time.Duration, err error) {
			log.Warn("dial failed, retrying", "addr", addr, "attempt", attempt, "delay", delay, "error", err)
		}),
	}, u.DialRetry...)
	var conn net.Conn
	err = retry.Do(ctx, func() error {
		var d net.Dialer
		c, err := d.DialContext(ctx, "tcp", addr)
		conn = c
		return err
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake %s: %w", addr, err)
	}
	return ssh.NewClient(c, chans, reqs), nil
}

func uploadFile(sc *sftp.Client, local, remote string) error {
	in, err := os.Open(local)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp := path.Join(path.Dir(remote), fmt.Sprintf(constants.RemoteTempFileFmt, os.Getpid(), path.Base(remote)))
	out, err := sc.Create(tmp)
	if err != nil {
		return err
	}
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		out.Close()
		sc.Remove(tmp)
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		sc.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		sc.Remove(tmp)
		return err
	}
	if err := sc.PosixRename(tmp, remote); err != nil {
		sc.Remove(tmp)
		return err
	}
	return nil
}
