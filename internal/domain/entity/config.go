package entity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lite-lake/wildcert/internal/constants"
	"github.com/lite-lake/wildcert/internal/domain"
	"github.com/lite-lake/wildcert/internal/domain/valueobject"
)

type Config struct {
	Cloudflare CloudflareConfig `yaml:"cloudflare"`
	Email      string           `yaml:"email"`
	Domains    []string         `yaml:"domains"`
	DestPath   string           `yaml:"dest_path"`
	OutputDir  string           `yaml:"output_dir"`
	Certbot    CertbotConfig    `yaml:"certbot,omitempty"`
	Upload     *UploadConfig    `yaml:"upload,omitempty"`
}

type CloudflareConfig struct {
	APIToken    valueobject.SecretRef `yaml:"api_token"`
	VerifyZones bool                  `yaml:"verify_zones,omitempty"`
}

type CertbotConfig struct {
	Binary             string `yaml:"binary,omitempty"`
	Server             string `yaml:"server,omitempty"`
	LiveDir            string `yaml:"live_dir,omitempty"`
	PropagationSeconds int    `yaml:"propagation_seconds,omitempty"`
}

type UploadConfig struct {
	Host     string                `yaml:"host"`
	Port     int                   `yaml:"port,omitempty"`
	User     string                `yaml:"user"`
	Password valueobject.SecretRef `yaml:"password,omitempty"`
	Path     string                `yaml:"path"`
}

var domainRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

// ApplyDefaults fills the optional sections only. Required keys are never
// defaulted.
func (c *Config) ApplyDefaults() {
	if c.Certbot.Binary == "" {
		c.Certbot.Binary = constants.DefaultCertbotBin
	}
	if c.Certbot.Server == "" {
		c.Certbot.Server = constants.LetsEncryptURL
	}
	if c.Certbot.LiveDir == "" {
		c.Certbot.LiveDir = constants.DefaultLiveDir
	}
	if c.Certbot.PropagationSeconds == 0 {
		c.Certbot.PropagationSeconds = domain.DefaultPropagationSeconds
	}
	if c.Upload != nil && c.Upload.Port == 0 {
		c.Upload.Port = constants.DefaultSSHPort
	}
	for i, d := range c.Domains {
		c.Domains[i] = strings.ToLower(strings.TrimSpace(d))
	}
}

func (c *Config) Validate() error {
	if err := c.Cloudflare.APIToken.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.RequiredField("cloudflare.api_token"), err)
	}
	if c.Email == "" {
		return domain.RequiredField("email")
	}
	if !strings.Contains(c.Email, "@") {
		return fmt.Errorf("invalid email %q", c.Email)
	}
	if len(c.Domains) == 0 {
		return domain.RequiredField("domains")
	}
	seen := make(map[string]bool, len(c.Domains))
	for i, d := range c.Domains {
		if err := ValidateDomainName(d); err != nil {
			return fmt.Errorf("domains[%d]: %w", i, err)
		}
		if seen[d] {
			return fmt.Errorf("domains[%d]: %w: %s", i, domain.ErrDuplicate, d)
		}
		seen[d] = true
	}
	if c.DestPath == "" {
		return domain.RequiredField("dest_path")
	}
	if c.OutputDir == "" {
		return domain.RequiredField("output_dir")
	}
	if c.Certbot.PropagationSeconds < 0 {
		return fmt.Errorf("certbot.propagation_seconds: must not be negative, got %d", c.Certbot.PropagationSeconds)
	}
	if c.Upload != nil {
		if err := c.Upload.Validate(); err != nil {
			return fmt.Errorf("upload: %w", err)
		}
	}
	return nil
}

// ValidateDomainName accepts a bare registrable name. The wildcard SAN is
// derived from it, so "*.example.com" is rejected.
func ValidateDomainName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: domain name is required", domain.ErrInvalidDomain)
	}
	if strings.HasPrefix(name, "*.") {
		return fmt.Errorf("%w: list %s without the wildcard prefix", domain.ErrInvalidDomain, name)
	}
	if !domainRegex.MatchString(name) {
		return fmt.Errorf("%w: invalid domain format %s", domain.ErrInvalidDomain, name)
	}
	return nil
}

func (u *UploadConfig) Validate() error {
	if u.Host == "" {
		return domain.RequiredField("host")
	}
	if u.User == "" {
		return domain.RequiredField("user")
	}
	if u.Path == "" {
		return domain.RequiredField("path")
	}
	if u.Port < 0 || u.Port > domain.MaxPortNumber {
		return fmt.Errorf("invalid port %d", u.Port)
	}
	return nil
}
