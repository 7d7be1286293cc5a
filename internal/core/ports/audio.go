package ports

import (
	"context"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
)

// SpectrumSource is a live frequency-domain signal. FrequencyFrame fills
// dst with per-bin magnitudes (0-255, low to high frequency) and returns
// the number of bins written. Done is closed when the underlying stream
// ends on its own (e.g. the user stops sharing a captured surface); Close
// releases every resource the source holds and is idempotent.
type SpectrumSource interface {
	FrequencyFrame(dst []byte) int
	Done() <-chan struct{}
	Close() error
}

// MediaElementTap attaches an analysis node to the media element created
// by the playback SDK, when one exists. Attach blocks through the settle
// delay and returns domain.ErrResourceUnavailable if no element is found.
type MediaElementTap interface {
	Attach(ctx context.Context) (SpectrumSource, error)
}

// DisplayCapturer acquires the audio track of a shared screen or tab.
// Capture returns domain.ErrPermissionDenied if the user declines and
// domain.ErrResourceUnavailable if the grant carries no audio track.
type DisplayCapturer interface {
	Capture(ctx context.Context) (SpectrumSource, error)
}

// PreviewDecoder fetches and fully decodes a track's preview clip into a
// loopable buffer-backed source. Valid only while that track is current.
type PreviewDecoder interface {
	Decode(ctx context.Context, previewURL string) (SpectrumSource, error)
}

// NowPlayingSource fetches the current playback state. A nil snapshot with
// a nil error means nothing is playing (the upstream 204 case).
type NowPlayingSource interface {
	NowPlaying(ctx context.Context) (*domain.TrackSnapshot, error)
}
