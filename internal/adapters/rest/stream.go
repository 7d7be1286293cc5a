package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Stream handles GET /stream: a server-sent-events feed of analyzed
// frames and beat events for renderers. A client that cannot keep up with
// the frame cadence silently misses frames rather than stalling the pump.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	listener := h.bus.Subscribe()
	defer h.bus.Unsubscribe(listener)

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-listener.C:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
