package valueobject

import (
	"fmt"
	"log/slog"

	"github.com/lite-lake/wildcert/internal/domain"
)

// SecretRef is a credential given either inline or as the name of an
// environment variable:
//
//	api_token: abc123
//	api_token: {env: CLOUDFLARE_API_TOKEN}
type SecretRef struct {
	Plain string `yaml:"plain,omitempty"`
	Env   string `yaml:"env,omitempty"`

	resolved string
}

func NewSecretRefPlain(plain string) *SecretRef {
	return &SecretRef{Plain: plain}
}

func (s *SecretRef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var plain string
	if err := unmarshal(&plain); err == nil {
		s.Plain = plain
		return nil
	}

	type alias SecretRef
	var ref alias
	if err := unmarshal(&ref); err != nil {
		return err
	}
	s.Plain = ref.Plain
	s.Env = ref.Env
	return nil
}

func (s SecretRef) MarshalYAML() (interface{}, error) {
	if s.Env != "" {
		return map[string]string{"env": s.Env}, nil
	}
	return s.Plain, nil
}

// Resolve looks the variable up and keeps the result for Value. Inline
// values resolve to themselves.
func (s *SecretRef) Resolve(lookup func(string) (string, bool)) error {
	if s.Env == "" {
		s.resolved = s.Plain
		return nil
	}
	val, ok := lookup(s.Env)
	if !ok || val == "" {
		return fmt.Errorf("%w: environment variable %s", domain.ErrMissingSecret, s.Env)
	}
	s.resolved = val
	return nil
}

func (s *SecretRef) Value() string {
	if s.resolved != "" {
		return s.resolved
	}
	return s.Plain
}

func (s *SecretRef) IsZero() bool {
	return s.Plain == "" && s.Env == ""
}

func (s *SecretRef) Validate() error {
	if s.IsZero() {
		return domain.ErrEmptyValue
	}
	return nil
}

// LogValue masks the secret in structured logs.
func (s *SecretRef) LogValue() slog.Value {
	if s.Env != "" {
		return slog.StringValue("env:***")
	}
	return slog.StringValue("***")
}
