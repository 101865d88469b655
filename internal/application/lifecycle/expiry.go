package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/lite-lake/wildcert/internal/constants"
	"github.com/lite-lake/wildcert/internal/domain"
	"github.com/lite-lake/wildcert/internal/infrastructure/certbot"
	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
)

type CertificateStatus struct {
	Domain        string
	Found         bool
	ExpiryKnown   bool
	Expiry        time.Time
	DaysRemaining int
	// QueryErr is set when certbot could not be queried at all; Found and
	// ExpiryKnown are then meaningless.
	QueryErr error
}

// NeedsRenewal is true only for a found certificate with a parsed expiry
// less than RenewalThresholdDays away.
func (s CertificateStatus) NeedsRenewal() bool {
	return s.QueryErr == nil && s.Found && s.ExpiryKnown && s.DaysRemaining < domain.RenewalThresholdDays
}

type ExpiryInspector struct {
	certbot CertbotClient
	now     func() time.Time
}

func NewExpiryInspector(client CertbotClient, now func() time.Time) *ExpiryInspector {
	if now == nil {
		now = time.Now
	}
	return &ExpiryInspector{certbot: client, now: now}
}

func (i *ExpiryInspector) Inspect(ctx context.Context, name string) CertificateStatus {
	log := logger.FromContext(ctx)
	status := CertificateStatus{Domain: name}

	out, err := i.certbot.Certificates(ctx, name)
	if err != nil {
		status.QueryErr = err
		return status
	}
	log.Debug("certificate listing", "output", out)

	if strings.Contains(out, certbot.NoCertificatesMarker) {
		log.Debug("no certificate on record")
		return status
	}
	status.Found = true

	expiry, ok := ParseExpiry(out)
	if !ok {
		log.Warn("could not determine expiry date, assuming no renewal needed")
		return status
	}
	status.ExpiryKnown = true
	status.Expiry = expiry
	status.DaysRemaining = DaysUntil(expiry, i.now())
	log.Debug("days until expiry", "days", status.DaysRemaining, "expiry", expiry.Format(constants.ExpiryDateLayout))
	return status
}

// NeedsRenewal reports false for a missing certificate as well as for one
// whose expiry cannot be read. Use Inspect to tell these apart.
func (i *ExpiryInspector) NeedsRenewal(ctx context.Context, name string) bool {
	return i.Inspect(ctx, name).NeedsRenewal()
}

// ParseExpiry takes the date from the first "Expiry Date:" line of a certbot
// listing, e.g. "Expiry Date: 2025-03-01 12:00:00+00:00 (VALID: 89 days)".
func ParseExpiry(out string) (time.Time, bool) {
	for _, line := range strings.Split(out, "\n") {
		idx := strings.Index(line, certbot.ExpiryDateMarker)
		if idx < 0 {
			continue
		}
		fields := strings.Fields(line[idx+len(certbot.ExpiryDateMarker):])
		if len(fields) == 0 {
			return time.Time{}, false
		}
		t, err := time.Parse(constants.ExpiryDateLayout, fields[0])
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// DaysUntil counts whole calendar days from now's date to expiry's date.
// Time of day and zone offsets are ignored.
func DaysUntil(expiry, now time.Time) int {
	ey, em, ed := expiry.Date()
	ny, nm, nd := now.Date()
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	n := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(e.Sub(n).Hours() / 24)
}
