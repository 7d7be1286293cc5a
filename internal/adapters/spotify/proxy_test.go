package spotify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
)

// --- Mocks ---

type mockTokens struct {
	token        string
	tokenErr     error
	refreshed    string
	refreshErr   error
	refreshCalls int
	logoutCalls  int
}

func (m *mockTokens) Token(ctx context.Context) (string, error) {
	if m.tokenErr != nil {
		return "", m.tokenErr
	}
	return m.token, nil
}

func (m *mockTokens) Refresh(ctx context.Context) (string, error) {
	m.refreshCalls++
	if m.refreshErr != nil {
		return "", m.refreshErr
	}
	return m.refreshed, nil
}

func (m *mockTokens) Logout(ctx context.Context) error {
	m.logoutCalls++
	return nil
}

// --- Tests ---

func TestForwardRetryOnceOn401(t *testing.T) {
	var calls int
	var seenTokens []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		seenTokens = append(seenTokens, r.Header.Get("Authorization"))
		if calls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	tokens := &mockTokens{token: "stale", refreshed: "fresh"}
	p := NewProxyWithBaseURL(tokens, http.DefaultClient, ts.URL)

	resp, err := p.Forward(context.Background(), http.MethodGet, "v1/me", nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.Status)
	}
	if calls != 2 {
		t.Errorf("upstream calls: got %d, want 2", calls)
	}
	if tokens.refreshCalls != 1 {
		t.Errorf("refresh calls: got %d, want 1", tokens.refreshCalls)
	}
	if seenTokens[0] != "Bearer stale" || seenTokens[1] != "Bearer fresh" {
		t.Errorf("bearer tokens: got %v", seenTokens)
	}
}

func TestForwardSecondUnauthorizedTearsDown(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	tokens := &mockTokens{token: "stale", refreshed: "fresh"}
	p := NewProxyWithBaseURL(tokens, http.DefaultClient, ts.URL)

	_, err := p.Forward(context.Background(), http.MethodGet, "v1/me", nil, nil, nil)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
	// not 2 retries, not 0: exactly one retry happened
	if calls != 2 {
		t.Errorf("upstream calls: got %d, want 2", calls)
	}
	if tokens.refreshCalls != 1 {
		t.Errorf("refresh calls: got %d, want 1", tokens.refreshCalls)
	}
	if tokens.logoutCalls != 1 {
		t.Errorf("logout calls: got %d, want 1", tokens.logoutCalls)
	}
}

func TestForwardRefreshFailureSurfacesUnauthenticated(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	tokens := &mockTokens{token: "stale", refreshErr: domain.ErrRefreshFailed}
	p := NewProxyWithBaseURL(tokens, http.DefaultClient, ts.URL)

	_, err := p.Forward(context.Background(), http.MethodGet, "v1/me", nil, nil, nil)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
	if calls != 1 {
		t.Errorf("upstream calls: got %d, want 1 (no resend after failed refresh)", calls)
	}
}

func TestForwardFailsClosedWithoutToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called without a token")
	}))
	defer ts.Close()

	tokens := &mockTokens{tokenErr: domain.ErrUnauthenticated}
	p := NewProxyWithBaseURL(tokens, http.DefaultClient, ts.URL)

	if _, err := p.Forward(context.Background(), http.MethodGet, "v1/me", nil, nil, nil); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
}

func TestForwardPassesThroughVerbatim(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method: got %s, want PUT", r.Method)
		}
		if got := r.URL.Query().Get("device_id"); got != "d1" {
			t.Errorf("query device_id: got %q, want d1", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"position_ms":0}` {
			t.Errorf("body: got %s", body)
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"status":403,"reason":"PREMIUM_REQUIRED"}}`))
	}))
	defer ts.Close()

	tokens := &mockTokens{token: "good"}
	p := NewProxyWithBaseURL(tokens, http.DefaultClient, ts.URL)

	resp, err := p.Forward(context.Background(), http.MethodPut, "v1/me/player/play",
		url.Values{"device_id": {"d1"}}, []byte(`{"position_ms":0}`), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", resp.Status)
	}
	if string(resp.Body) != `{"error":{"status":403,"reason":"PREMIUM_REQUIRED"}}` {
		t.Errorf("body not passed through: %s", resp.Body)
	}
	if tokens.refreshCalls != 0 {
		t.Errorf("refresh calls on non-auth failure: got %d, want 0", tokens.refreshCalls)
	}
}

func TestNowPlaying(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		response   string
		want       *domain.TrackSnapshot
		wantErr    bool
	}{
		{
			name:       "nothing playing maps 204 to nil",
			statusCode: http.StatusNoContent,
			response:   "",
			want:       nil,
		},
		{
			name:       "null item maps to nil",
			statusCode: http.StatusOK,
			response:   `{"is_playing":false,"progress_ms":0,"item":null}`,
			want:       nil,
		},
		{
			name:       "playing track",
			statusCode: http.StatusOK,
			response: `{
				"is_playing": true,
				"progress_ms": 41000,
				"item": {
					"id": "t1",
					"name": "Test Track",
					"duration_ms": 200000,
					"preview_url": "https://cdn.example/preview.mp3",
					"artists": [ { "name": "Artist A" }, { "name": "Artist B" } ],
					"album": { "name": "Test Album" }
				}
			}`,
			want: &domain.TrackSnapshot{
				ID:         "t1",
				Name:       "Test Track",
				Artists:    []string{"Artist A", "Artist B"},
				Album:      "Test Album",
				DurationMs: 200000,
				ProgressMs: 41000,
				IsPlaying:  true,
				PreviewURL: "https://cdn.example/preview.mp3",
			},
		},
		{
			name:       "upstream rejection surfaces status",
			statusCode: http.StatusNotFound,
			response:   `{"error":{"status":404,"reason":"NO_ACTIVE_DEVICE"}}`,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer ts.Close()

			p := NewProxyWithBaseURL(&mockTokens{token: "good"}, http.DefaultClient, ts.URL)
			got, err := p.NowPlaying(context.Background())

			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error: %v, got: %v", tt.wantErr, err)
			}
			if tt.wantErr {
				var upErr *domain.UpstreamError
				if !errors.As(err, &upErr) {
					t.Fatalf("want UpstreamError, got %T", err)
				}
				if upErr.Status != tt.statusCode {
					t.Errorf("upstream status: got %d, want %d", upErr.Status, tt.statusCode)
				}
				return
			}

			if (got == nil) != (tt.want == nil) {
				t.Fatalf("snapshot: got %+v, want %+v", got, tt.want)
			}
			if got == nil {
				return
			}
			if got.ID != tt.want.ID || got.Name != tt.want.Name || got.Album != tt.want.Album {
				t.Errorf("snapshot: got %+v, want %+v", got, tt.want)
			}
			if got.ProgressMs != tt.want.ProgressMs || got.DurationMs != tt.want.DurationMs {
				t.Errorf("progress/duration: got %d/%d", got.ProgressMs, got.DurationMs)
			}
			if got.IsPlaying != tt.want.IsPlaying || got.PreviewURL != tt.want.PreviewURL {
				t.Errorf("is_playing/preview: got %v/%q", got.IsPlaying, got.PreviewURL)
			}
			if len(got.Artists) != len(tt.want.Artists) {
				t.Fatalf("artists: got %v, want %v", got.Artists, tt.want.Artists)
			}
			for i := range got.Artists {
				if got.Artists[i] != tt.want.Artists[i] {
					t.Errorf("artist %d: got %q, want %q", i, got.Artists[i], tt.want.Artists[i])
				}
			}
		})
	}
}
