package calendly

import "errors"

var (
	// ErrRateLimited is returned when the provider keeps answering 429 after
	// the retry budget is spent, or on the non-retried token endpoints. Callers
	// should present a "try again later" message rather than a generic failure.
	ErrRateLimited = errors.New("calendly: rate limited")

	// ErrReauthorizationRequired is returned on 401 responses. A fresh access
	// token will not fix a revoked grant, so this is never retried; the
	// consultant has to reconnect their account.
	ErrReauthorizationRequired = errors.New("calendly: reauthorization required")

	// ErrNotConfigured is returned when the OAuth client credentials are
	// missing. Terminal; meant to be caught by diagnostics before production.
	ErrNotConfigured = errors.New("calendly: client credentials not configured")
)
