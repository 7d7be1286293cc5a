package domain

import "time"

// TokenPair is the upstream OAuth access/refresh token pair. ExpiresAt is
// the server-reported expiry as written, with no safety buffer applied;
// callers decide staleness at read time.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is stale at the given instant.
func (t TokenPair) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
