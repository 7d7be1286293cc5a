// Package session owns the OAuth token lifecycle: code exchange, expiry
// checks, single-flight refresh, and terminal teardown.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
	"github.com/RealSaake/waveline-sub000/internal/core/ports"
	"github.com/RealSaake/waveline-sub000/internal/flight"
)

// SpotifyEndpoint is the upstream authorization server.
var SpotifyEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.spotify.com/authorize",
	TokenURL:  "https://accounts.spotify.com/api/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// Config carries the confidential client credentials. Endpoint defaults to
// SpotifyEndpoint and is overridable for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Endpoint     oauth2.Endpoint
}

// Manager is the token lifecycle manager. It is the only component that
// mutates the vault; everything else obtains access tokens through Token.
type Manager struct {
	vault      ports.TokenVault
	httpClient *http.Client
	oauth      *oauth2.Config
	clock      ports.Clock
	refresh    flight.Group
}

// NewManager constructs a Manager. A nil httpClient falls back to
// http.DefaultClient, a nil clock to the system clock.
func NewManager(vault ports.TokenVault, httpClient *http.Client, cfg Config, clock ports.Clock) *Manager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = SpotifyEndpoint
	}
	return &Manager{
		vault:      vault,
		httpClient: httpClient,
		clock:      clock,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
	}
}

// AuthURL returns the upstream authorize URL for the given state.
func (m *Manager) AuthURL(state string) string {
	return m.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token pair and stores it.
func (m *Manager) Exchange(ctx context.Context, code, redirectURI string) (domain.TokenPair, error) {
	cfg := *m.oauth
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("session: code exchange failed: %w", err)
	}
	pair := domain.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if err := m.vault.Store(ctx, pair); err != nil {
		return domain.TokenPair{}, fmt.Errorf("session: store token pair: %w", err)
	}
	return pair, nil
}

// Token returns a currently valid access token, refreshing first when the
// stored pair is stale. No expiry buffer is applied: a token is used up to
// the instant the server said it dies.
func (m *Manager) Token(ctx context.Context) (string, error) {
	pair, err := m.vault.Load(ctx)
	if err != nil {
		if err == domain.ErrNoSession {
			return "", domain.ErrUnauthenticated
		}
		return "", fmt.Errorf("session: load token pair: %w", err)
	}
	if pair.Expired(m.clock.Now()) {
		return m.Refresh(ctx)
	}
	return pair.AccessToken, nil
}

// Refresh exchanges the stored refresh token for a new pair. Concurrent
// callers share one upstream call. Any failure is terminal: the vault is
// cleared and the user must re-authenticate.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	return m.refresh.Do(func() (string, error) {
		return m.doRefresh(ctx)
	})
}

func (m *Manager) doRefresh(ctx context.Context) (string, error) {
	pair, err := m.vault.Load(ctx)
	if err != nil {
		if err == domain.ErrNoSession {
			return "", domain.ErrUnauthenticated
		}
		return "", fmt.Errorf("session: load token pair: %w", err)
	}
	if pair.RefreshToken == "" {
		_ = m.vault.Clear(ctx)
		return "", domain.ErrRefreshFailed
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {pair.RefreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.oauth.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("session: build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(m.oauth.ClientID, m.oauth.ClientSecret)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		_ = m.vault.Clear(ctx)
		return "", fmt.Errorf("%w: %v", domain.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = m.vault.Clear(ctx)
		return "", fmt.Errorf("%w: token endpoint status %d", domain.ErrRefreshFailed, resp.StatusCode)
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		_ = m.vault.Clear(ctx)
		return "", fmt.Errorf("%w: decode token response: %v", domain.ErrRefreshFailed, err)
	}

	next := domain.TokenPair{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    m.clock.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}
	// the server may omit a new refresh token; keep the old one
	if next.RefreshToken == "" {
		next.RefreshToken = pair.RefreshToken
	}
	if err := m.vault.Store(ctx, next); err != nil {
		return "", fmt.Errorf("session: store refreshed pair: %w", err)
	}
	return next.AccessToken, nil
}

// Seed stores a pair holding only a refresh token, already marked stale,
// so the next Token or Refresh call exchanges it for a live one. Used by
// clients re-bootstrapping a lost session from their own stored token.
func (m *Manager) Seed(ctx context.Context, refreshToken string) error {
	return m.vault.Store(ctx, domain.TokenPair{
		RefreshToken: refreshToken,
		ExpiresAt:    m.clock.Now(),
	})
}

// Pair returns the stored token pair.
func (m *Manager) Pair(ctx context.Context) (domain.TokenPair, error) {
	return m.vault.Load(ctx)
}

// Logout clears the stored session.
func (m *Manager) Logout(ctx context.Context) error {
	return m.vault.Clear(ctx)
}
