package secrets

import (
	"fmt"
	"os"

	"github.com/lite-lake/wildcert/internal/domain/entity"
)

type LookupFunc func(key string) (string, bool)

// SecretResolver fills in the credentials of a loaded config that are given
// as environment variable references.
type SecretResolver struct {
	lookup LookupFunc
}

func NewSecretResolver(lookup LookupFunc) *SecretResolver {
	return &SecretResolver{lookup: lookup}
}

func NewEnvResolver() *SecretResolver {
	return NewSecretResolver(os.LookupEnv)
}

func (r *SecretResolver) ResolveAll(cfg *entity.Config) error {
	if err := cfg.Cloudflare.APIToken.Resolve(r.lookup); err != nil {
		return fmt.Errorf("cloudflare.api_token: %w", err)
	}
	if cfg.Upload != nil && !cfg.Upload.Password.IsZero() {
		if err := cfg.Upload.Password.Resolve(r.lookup); err != nil {
			return fmt.Errorf("upload.password: %w", err)
		}
	}
	return nil
}
