package token

import "errors"

// ErrNoRefreshToken is returned when a consultant has never connected a
// Calendly account (or the credential was cleared). Terminal; the consultant
// must go through the OAuth connect flow.
var ErrNoRefreshToken = errors.New("token: refresh token not found")
