package lifecycle

import (
	"context"
	"crypto/x509"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"

	"github.com/lite-lake/wildcert/internal/constants"
	"github.com/lite-lake/wildcert/internal/domain"
	"github.com/lite-lake/wildcert/internal/domain/valueobject"
	"github.com/lite-lake/wildcert/internal/infrastructure/filesystem"
	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
)

type CertificateInfo struct {
	Domain        string
	NotAfter      time.Time
	DaysRemaining int
	SANs          []string
}

// CoversWildcard reports whether the certificate names both the domain and
// its wildcard.
func (c *CertificateInfo) CoversWildcard() bool {
	for _, san := range valueobject.WildcardSANs(c.Domain) {
		if !slices.Contains(c.SANs, san) {
			return false
		}
	}
	return true
}

// StatusReporter reads the live certificates directly instead of asking
// certbot, so it works without certbot on the PATH.
type StatusReporter struct {
	liveDir string
	now     func() time.Time
}

func NewStatusReporter(liveDir string, now func() time.Time) *StatusReporter {
	if now == nil {
		now = time.Now
	}
	return &StatusReporter{liveDir: liveDir, now: now}
}

func (s *StatusReporter) Read(name string) (*CertificateInfo, error) {
	path := valueobject.Artifacts[0].LivePath(s.liveDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if filesystem.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCertNotFound, path)
		}
		return nil, err
	}
	cert, err := certcrypto.ParsePEMCertificate(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCertInvalid, path, err)
	}
	return newCertificateInfo(name, cert, s.now()), nil
}

func newCertificateInfo(name string, cert *x509.Certificate, now time.Time) *CertificateInfo {
	return &CertificateInfo{
		Domain:        name,
		NotAfter:      cert.NotAfter,
		DaysRemaining: DaysUntil(cert.NotAfter, now),
		SANs:          cert.DNSNames,
	}
}

func (s *StatusReporter) Report(ctx context.Context, domains []string) (*valueobject.Report, error) {
	ctx = logger.WithOperation(ctx, "status")
	log := logger.FromContext(ctx)
	report := valueobject.NewReport("status")

	for _, name := range domains {
		result := &valueobject.DomainResult{Domain: name, Action: valueobject.ActionStatus}
		report.Add(result)

		info, err := s.Read(name)
		if err != nil {
			log.Warn("certificate unreadable", "domain", name, "error", err)
			result.Message = "no readable certificate"
			result.Err = domain.WrapEntity("domain", name, err)
			continue
		}

		result.Message = fmt.Sprintf("expires %s (%d days) [%s]",
			info.NotAfter.Format(constants.ExpiryDateLayout), info.DaysRemaining, strings.Join(info.SANs, ", "))
		if !info.CoversWildcard() {
			result.Err = domain.WrapEntity("domain", name,
				fmt.Errorf("%w: missing %s", domain.ErrCertInvalid, strings.Join(valueobject.WildcardSANs(name), " or ")))
			continue
		}
		if info.DaysRemaining < domain.RenewalThresholdDays {
			log.Warn("certificate due for renewal", "domain", name, "days", info.DaysRemaining)
		}
	}
	return report, nil
}
