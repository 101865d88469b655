package dns

import (
	"context"
	"fmt"
	"time"

	"github.com/lite-lake/wildcert/internal/domain"
	"github.com/lite-lake/wildcert/internal/domain/retry"
	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
)

// ZoneVerifier checks, before certbot runs, that the API token can reach the
// zone that will hold the _acme-challenge record for a domain.
type ZoneVerifier struct {
	lookup    ZoneLookup
	retryOpts []retry.Option
}

func NewZoneVerifier(lookup ZoneLookup, opts ...retry.Option) *ZoneVerifier {
	return &ZoneVerifier{
		lookup: lookup,
		retryOpts: append([]retry.Option{
			retry.WithMaxAttempts(domain.ZoneLookupAttempts),
			retry.WithInitialDelay(domain.ZoneLookupInitialDelay),
			retry.WithIsRetryable(IsRetryableDNSError),
		}, opts...),
	}
}

// Verify returns the zone serving name, or an error wrapping
// domain.ErrZoneNotFound when none of its candidate zones is visible.
func (v *ZoneVerifier) Verify(ctx context.Context, name string) (string, error) {
	log := logger.FromContext(ctx)
	opts := append([]retry.Option{
		retry.WithOnRetry(func(attempt int, delay time.Duration, err error) {
			log.Warn("zone lookup failed, retrying", "provider", v.lookup.Name(), "attempt", attempt, "delay", delay, "error", err)
		}),
	}, v.retryOpts...)
	for _, zone := range CandidateZones(name) {
		found, err := retry.DoWithResult(ctx, func() (bool, error) {
			return v.lookup.HasZone(ctx, zone)
		}, opts...)
		if err != nil {
			return "", domain.WrapEntity("zone", zone, fmt.Errorf("%w: %w", domain.ErrDNSError, err))
		}
		if found {
			log.Debug("zone visible to token", "provider", v.lookup.Name(), "zone", zone)
			return zone, nil
		}
	}
	return "", fmt.Errorf("%w: no %s zone for %s", domain.ErrZoneNotFound, v.lookup.Name(), name)
}
