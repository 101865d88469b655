package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lite-lake/wildcert/internal/constants"
	"github.com/lite-lake/wildcert/internal/domain"
	"github.com/lite-lake/wildcert/internal/domain/entity"
	"github.com/lite-lake/wildcert/internal/domain/valueobject"
	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
	"github.com/lite-lake/wildcert/internal/infrastructure/secrets"
)

type ConfigLoader struct {
	resolver *secrets.SecretResolver
}

// NewConfigLoader resolves environment references from the process
// environment.
func NewConfigLoader() *ConfigLoader {
	return NewConfigLoaderWithResolver(secrets.NewEnvResolver())
}

func NewConfigLoaderWithResolver(resolver *secrets.SecretResolver) *ConfigLoader {
	return &ConfigLoader{resolver: resolver}
}

// Load reads and validates the configuration at path. Every failure wraps one
// of the domain.ErrConfig* sentinels.
func (l *ConfigLoader) Load(ctx context.Context, path string) (*entity.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, errors.Join(domain.ErrConfigReadFailed, err))
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := l.resolver.ResolveAll(cfg); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, errors.Join(domain.ErrConfigValidateFail, err))
	}

	logger.FromContext(ctx).Debug("config loaded", "path", path, "domains", len(cfg.Domains))
	return cfg, nil
}

func Parse(data []byte) (*entity.Config, error) {
	var cfg entity.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Join(domain.ErrConfigParseFailed, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(domain.ErrConfigValidateFail, err)
	}
	return &cfg, nil
}

// Template is the starting configuration written by --init.
func Template() *entity.Config {
	return &entity.Config{
		Cloudflare: entity.CloudflareConfig{APIToken: *valueobject.NewSecretRefPlain("your_cloudflare_api_token")},
		Email:      "you@example.com",
		Domains:    []string{"example.com", "another-domain.com"},
		DestPath:   "/path/to/store/certificates",
		OutputDir:  "/path/to/output",
	}
}

// WriteTemplate writes Template to path, refusing to replace an existing file.
func WriteTemplate(path string) error {
	data, err := yaml.Marshal(Template())
	if err != nil {
		return domain.WrapOp("marshal template", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermission); err != nil {
			return domain.WrapOp("create config directory", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, constants.FilePermissionOwnerRW)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", domain.ErrConfigExists, path)
		}
		return domain.WrapOp("create config", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return domain.WrapOp("write config", err)
	}
	return f.Close()
}
