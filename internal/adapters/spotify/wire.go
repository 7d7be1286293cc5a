package spotify

import "github.com/RealSaake/waveline-sub000/internal/core/domain"

// wireTrack represents the track object from the Web API.
type wireTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMs int    `json:"duration_ms"`
	PreviewURL string `json:"preview_url"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
}

// wireCurrentlyPlaying represents the currently-playing object. Item is a
// pointer because the API sends null when nothing is loaded in the player.
type wireCurrentlyPlaying struct {
	IsPlaying  bool       `json:"is_playing"`
	ProgressMs int        `json:"progress_ms"`
	Item       *wireTrack `json:"item"`
}

// toDomain flattens the wire shape into a TrackSnapshot. Returns nil when
// no item is loaded.
func (w wireCurrentlyPlaying) toDomain() *domain.TrackSnapshot {
	if w.Item == nil {
		return nil
	}
	artists := make([]string, len(w.Item.Artists))
	for i, a := range w.Item.Artists {
		artists[i] = a.Name
	}
	return &domain.TrackSnapshot{
		ID:         w.Item.ID,
		Name:       w.Item.Name,
		Artists:    artists,
		Album:      w.Item.Album.Name,
		DurationMs: w.Item.DurationMs,
		ProgressMs: w.ProgressMs,
		IsPlaying:  w.IsPlaying,
		PreviewURL: w.Item.PreviewURL,
	}
}
