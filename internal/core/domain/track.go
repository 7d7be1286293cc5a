package domain

// TrackSnapshot is the point-in-time description of the currently playing
// item. It is an immutable value replaced wholesale on every poll; an ID
// change between consecutive snapshots is a track transition.
type TrackSnapshot struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	DurationMs int      `json:"duration_ms"`
	ProgressMs int      `json:"progress_ms"`
	IsPlaying  bool     `json:"is_playing"`

	// PreviewURL points at the short preview clip when the track exposes
	// one; empty otherwise. Consumed by the preview-decode audio tier.
	PreviewURL string `json:"preview_url,omitempty"`
}

// SameTrack reports whether two snapshots describe the same item. Either
// side may be nil (nothing playing).
func SameTrack(a, b *TrackSnapshot) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
