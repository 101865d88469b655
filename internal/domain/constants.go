package domain

import "time"

const MaxPortNumber = 65535

// RenewalThresholdDays is the remaining lifetime below which an existing
// certificate is force-renewed.
const RenewalThresholdDays = 30

const DefaultPropagationSeconds = 60

const (
	DefaultRetryMaxAttempts    = 3
	DefaultRetryInitialDelayMs = 500
	DefaultRetryMaxDelaySec    = 30
	DefaultRetryMultiplier     = 2.0
)

var (
	DefaultRetryInitialDelay = DefaultRetryInitialDelayMs * time.Millisecond
	DefaultRetryMaxDelay     = DefaultRetryMaxDelaySec * time.Second
)

// Zone lookups back off longer than the defaults to ride out Cloudflare rate
// limiting.
const (
	ZoneLookupAttempts     = 4
	ZoneLookupInitialDelay = time.Second
)

const (
	UploadDialAttempts     = 3
	UploadDialInitialDelay = 2 * time.Second
)
