package rest

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
)

// ProxyForward handles ANY /proxy/{...path}: the method, body, and query
// string pass through to the upstream API, and the response comes back
// verbatim. The refresh-and-retry-once policy lives in the proxy itself.
func (h *Handler) ProxyForward(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/proxy/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "upstream path is required")
		return
	}

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable request body")
			return
		}
	}

	header := http.Header{}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		header.Set("Content-Type", ct)
	}

	resp, err := h.proxy.Forward(r.Context(), r.Method, path, r.URL.Query(), body, header)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			h.cookies.Clear(w)
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		writeError(w, http.StatusBadGateway, "upstream unreachable")
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

type nowPlayingResponse struct {
	IsPlaying bool                  `json:"is_playing"`
	Track     *domain.TrackSnapshot `json:"track"`
}

// NowPlaying handles GET /now-playing. An idle player maps to a normal
// response with a null track, never an error.
func (h *Handler) NowPlaying(w http.ResponseWriter, r *http.Request) {
	snap, err := h.proxy.NowPlaying(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			h.cookies.Clear(w)
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		var upErr *domain.UpstreamError
		if errors.As(err, &upErr) {
			writeError(w, upErr.Status, "upstream rejected the request")
			return
		}
		writeError(w, http.StatusBadGateway, "upstream unreachable")
		return
	}

	resp := nowPlayingResponse{Track: snap}
	if snap != nil {
		resp.IsPlaying = snap.IsPlaying
	}
	writeJSON(w, http.StatusOK, resp)
}
