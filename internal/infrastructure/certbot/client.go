package certbot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lite-lake/wildcert/internal/domain"
	"github.com/lite-lake/wildcert/internal/domain/entity"
	"github.com/lite-lake/wildcert/internal/domain/valueobject"
	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
)

// Output markers of `certbot certificates`. These are the only parts of the
// human readable listing this tool depends on.
const (
	NoCertificatesMarker = "No certificates found"
	ExpiryDateMarker     = "Expiry Date:"
)

type Client struct {
	runner Runner
	cfg    entity.CertbotConfig
}

func NewClient(runner Runner, cfg entity.CertbotConfig) *Client {
	return &Client{runner: runner, cfg: cfg}
}

// Certificates returns the stdout of `certbot certificates -d <domain>`.
func (c *Client) Certificates(ctx context.Context, name string) (string, error) {
	stdout, _, err := c.runner.Run(ctx, c.cfg.Binary, "certificates", "-d", name)
	if err != nil {
		return stdout, domain.WrapEntity("certificates", name, err)
	}
	return stdout, nil
}

func (c *Client) Issue(ctx context.Context, name, email, credentialsPath string) error {
	args := c.IssueArgs(name, email, credentialsPath)
	stdout, _, err := c.runner.Run(ctx, c.cfg.Binary, args...)
	logger.FromContext(ctx).Debug("certbot output", "stdout", stdout)
	if err != nil {
		return domain.WrapEntity("issue", name, fmt.Errorf("%w: %w", domain.ErrCertObtainFailed, err))
	}
	return nil
}

func (c *Client) Renew(ctx context.Context, name, credentialsPath string) error {
	args := c.RenewArgs(name, credentialsPath)
	stdout, _, err := c.runner.Run(ctx, c.cfg.Binary, args...)
	logger.FromContext(ctx).Debug("certbot output", "stdout", stdout)
	if err != nil {
		return domain.WrapEntity("renew", name, fmt.Errorf("%w: %w", domain.ErrCertRenewFailed, err))
	}
	return nil
}

// IssueArgs builds a first issuance request for the domain and its wildcard.
func (c *Client) IssueArgs(name, email, credentialsPath string) []string {
	args := c.baseArgs(name, credentialsPath)
	return append(args, "--email", email, "--agree-tos", "--non-interactive")
}

// RenewArgs builds a forced renewal. Account email and terms acceptance are
// already on file with the ACME server.
func (c *Client) RenewArgs(name, credentialsPath string) []string {
	args := c.baseArgs(name, credentialsPath)
	return append(args, "--force-renewal")
}

func (c *Client) baseArgs(name, credentialsPath string) []string {
	args := []string{
		"certonly",
		"--preferred-challenges", "dns",
		"--server", c.cfg.Server,
		"--dns-cloudflare",
		"--dns-cloudflare-credentials", credentialsPath,
		"--dns-cloudflare-propagation-seconds", strconv.Itoa(c.cfg.PropagationSeconds),
	}
	for _, san := range valueobject.WildcardSANs(name) {
		args = append(args, "-d", san)
	}
	return args
}

// InstallCommands lists the package installs run by --install, in order.
func InstallCommands() [][]string {
	return [][]string{
		{"apt-get", "install", "-y", "certbot"},
		{"pip", "install", "certbot-dns-cloudflare"},
	}
}
