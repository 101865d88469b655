package dns

import (
	"context"
	"net"
	"strings"
)

// ZoneLookup answers whether the credentials can see a zone with exactly
// this name.
type ZoneLookup interface {
	Name() string
	HasZone(ctx context.Context, zone string) (bool, error)
}

// CandidateZones lists name and each parent that still has at least two
// labels, most specific first: a.b.example.com, b.example.com, example.com.
func CandidateZones(name string) []string {
	name = strings.TrimSuffix(strings.ToLower(name), ".")
	labels := strings.Split(name, ".")
	var out []string
	for i := 0; i+1 < len(labels); i++ {
		out = append(out, strings.Join(labels[i:], "."))
	}
	return out
}

func IsRetryableDNSError(err error) bool {
	if err == nil {
		return false
	}

	if errs, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range errs.Unwrap() {
			if IsRetryableDNSError(e) {
				return true
			}
		}
	}

	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure",
		"rate limit",
		"too many requests",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
