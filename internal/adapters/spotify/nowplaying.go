package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
	"github.com/RealSaake/waveline-sub000/internal/core/ports"
)

const currentlyPlayingPath = "v1/me/player/currently-playing"

// compile-time interface assertion
var _ ports.NowPlayingSource = (*Proxy)(nil)

// NowPlaying fetches the current playback state. A 204 means no active
// playback session and maps to (nil, nil) rather than an error; the body
// is empty in that case and is never handed to the JSON decoder.
func (p *Proxy) NowPlaying(ctx context.Context) (*domain.TrackSnapshot, error) {
	resp, err := p.Forward(ctx, http.MethodGet, currentlyPlayingPath, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	if resp.Status == http.StatusNoContent || len(resp.Body) == 0 {
		return nil, nil
	}
	if resp.Status != http.StatusOK {
		return nil, &domain.UpstreamError{Status: resp.Status, Body: resp.Body}
	}

	var wire wireCurrentlyPlaying
	if err := json.Unmarshal(resp.Body, &wire); err != nil {
		return nil, fmt.Errorf("spotify proxy: decode currently playing: %w", err)
	}
	return wire.toDomain(), nil
}
