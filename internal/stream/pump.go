package stream

import (
	"context"
	"time"

	"github.com/RealSaake/waveline-sub000/internal/audio"
	"github.com/RealSaake/waveline-sub000/internal/core/domain"
)

// DefaultFrameInterval targets ~60 Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// Pump drives the animation clock: every tick it pulls a raw frame from
// the negotiator, runs the analyzer and beat detector, and publishes the
// result. The negotiator guarantees a frame always exists, so the pump
// never stalls waiting for a source.
type Pump struct {
	negotiator *audio.Negotiator
	analyzer   *audio.Analyzer
	beats      *audio.BeatDetector
	bus        *Broadcaster
	interval   time.Duration
}

// NewPump constructs a Pump. A non-positive interval falls back to
// DefaultFrameInterval.
func NewPump(negotiator *audio.Negotiator, analyzer *audio.Analyzer, beats *audio.BeatDetector, bus *Broadcaster, interval time.Duration) *Pump {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Pump{
		negotiator: negotiator,
		analyzer:   analyzer,
		beats:      beats,
		bus:        bus,
		interval:   interval,
	}
}

// Run produces frames until the context is canceled.
func (p *Pump) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	lastTier := domain.TierIdle
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		raw := make([]byte, domain.FrameBins)
		tier := p.negotiator.FillFrame(raw)
		if tier != lastTier {
			// level history is meaningless across a source discontinuity
			p.beats.Reset()
			lastTier = tier
		}

		frame := p.analyzer.Analyze(raw)
		beat := p.beats.Feed(frame.BassLevel)

		p.bus.Publish(Event{
			Frame: frame,
			Beat:  beat,
			Tier:  tier.String(),
			Track: p.negotiator.Track(),
		})
	}
}
