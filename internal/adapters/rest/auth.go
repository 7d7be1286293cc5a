package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
)

type loginResponse struct {
	URL string `json:"url"`
}

// Login hands the frontend the upstream authorize URL to open.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	writeJSON(w, http.StatusOK, loginResponse{URL: h.sessions.AuthURL(state)})
}

type exchangeRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

type tokenPairResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Exchange handles POST /auth/exchange: trades the authorization code for
// a token pair and hands the browser its sealed session cookie.
func (h *Handler) Exchange(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	pair, err := h.sessions.Exchange(r.Context(), req.Code, req.RedirectURI)
	if err != nil {
		writeError(w, http.StatusBadGateway, "code exchange failed")
		return
	}

	if err := h.cookies.Set(w, uuid.NewString()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to establish session")
		return
	}
	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.ExpiresAt.Unix(),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh. The body's refresh token can seed a
// vault that lost its session (a client re-bootstrapping from its own
// stored token); otherwise the stored one is used. Terminal failures
// clear the cookie: the user must re-authenticate.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if req.RefreshToken != "" {
		if _, err := h.sessions.Token(r.Context()); errors.Is(err, domain.ErrUnauthenticated) {
			_ = h.sessions.Seed(r.Context(), req.RefreshToken)
		}
	}

	access, err := h.sessions.Refresh(r.Context())
	if err != nil {
		h.cookies.Clear(w)
		writeError(w, http.StatusUnauthorized, "refresh failed, re-authenticate")
		return
	}

	pair := domain.TokenPair{AccessToken: access}
	if loaded, lerr := h.sessions.Pair(r.Context()); lerr == nil {
		pair = loaded
	}
	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.ExpiresAt.Unix(),
	})
}

// Logout handles POST /auth/logout: clears the vault and the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
