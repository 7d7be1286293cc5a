// Package rest is the HTTP surface: auth session endpoints, the generic
// authorized forwarder, and the visualization event stream.
package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/RealSaake/waveline-sub000/internal/adapters/spotify"
	"github.com/RealSaake/waveline-sub000/internal/session"
	"github.com/RealSaake/waveline-sub000/internal/stream"
)

// Handler manages the HTTP interface for our application.
type Handler struct {
	sessions *session.Manager
	proxy    *spotify.Proxy
	bus      *stream.Broadcaster
	cookies  *CookieCodec
	router   *http.ServeMux
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(sessions *session.Manager, proxy *spotify.Proxy, bus *stream.Broadcaster, cookies *CookieCodec) *Handler {
	h := &Handler{
		sessions: sessions,
		proxy:    proxy,
		bus:      bus,
		cookies:  cookies,
		router:   http.NewServeMux(),
	}
	h.routes()
	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	// Health Check
	h.router.HandleFunc("GET /health", h.HealthCheck)

	// Session lifecycle
	h.router.HandleFunc("GET /auth/login", h.Login)
	h.router.HandleFunc("POST /auth/exchange", h.Exchange)
	h.router.HandleFunc("POST /auth/refresh", h.Refresh)
	h.router.HandleFunc("POST /auth/logout", h.Logout)

	// Authorized forwarder
	h.router.HandleFunc("/proxy/", h.requireSession(h.ProxyForward))

	// Visualization consumers
	h.router.HandleFunc("GET /now-playing", h.requireSession(h.NowPlaying))
	h.router.HandleFunc("GET /stream", h.requireSession(h.Stream))
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireSession rejects requests without a valid sealed session cookie.
func (h *Handler) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.cookies.Read(r); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next(w, r)
	}
}

// --- Shared helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(ct, "application/json")
}
