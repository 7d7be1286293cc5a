package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/RealSaake/waveline-sub000/internal/seal"
)

const (
	sessionCookieName = "waveline_session"
	sessionMaxAge     = 7 * 24 * time.Hour
)

// sessionEnvelope is what the cookie carries: an opaque session id minted
// at exchange time plus the issue instant for expiry checks. The whole
// envelope is sealed; the browser never sees tokens.
type sessionEnvelope struct {
	SID      string    `json:"sid"`
	IssuedAt time.Time `json:"iat"`
}

// CookieCodec seals and opens the session cookie.
type CookieCodec struct {
	sealer *seal.Sealer
	secure bool
}

// NewCookieCodec constructs a codec. secure controls the cookie's Secure
// attribute (off for plain-HTTP local development).
func NewCookieCodec(sealer *seal.Sealer, secure bool) *CookieCodec {
	return &CookieCodec{sealer: sealer, secure: secure}
}

// Set writes the session cookie for the given session id.
func (c *CookieCodec) Set(w http.ResponseWriter, sid string) error {
	payload, err := json.Marshal(sessionEnvelope{SID: sid, IssuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("rest: encode session envelope: %w", err)
	}
	value, err := c.sealer.SealString(payload)
	if err != nil {
		return fmt.Errorf("rest: seal session envelope: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read opens and validates the session cookie. Any problem (missing,
// tampered, expired) is reported as a single error: the caller treats all
// of them as "no session".
func (c *CookieCodec) Read(r *http.Request) (sessionEnvelope, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return sessionEnvelope{}, fmt.Errorf("rest: no session cookie")
	}
	payload, err := c.sealer.OpenString(cookie.Value)
	if err != nil {
		return sessionEnvelope{}, fmt.Errorf("rest: unreadable session cookie")
	}
	var env sessionEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return sessionEnvelope{}, fmt.Errorf("rest: malformed session envelope")
	}
	if time.Since(env.IssuedAt) > sessionMaxAge {
		return sessionEnvelope{}, fmt.Errorf("rest: session cookie expired")
	}
	return env, nil
}

// Clear expires the session cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
