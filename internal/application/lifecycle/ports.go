package lifecycle

import "context"

// CertbotClient is the subset of the certbot wrapper the lifecycle needs.
type CertbotClient interface {
	Certificates(ctx context.Context, name string) (string, error)
	Issue(ctx context.Context, name, email, credentialsPath string) error
	Renew(ctx context.Context, name, credentialsPath string) error
}

type CredentialScope interface {
	With(token string, fn func(path string) error) error
}

type RunLocker interface {
	Acquire() error
	Release() error
}

type ZoneChecker interface {
	Verify(ctx context.Context, name string) (string, error)
}

type Backupper interface {
	Backup(ctx context.Context, name string) bool
}

type Uploader interface {
	Target() string
	Upload(ctx context.Context, files []string) error
}
