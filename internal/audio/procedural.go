package audio

import (
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
	"github.com/RealSaake/waveline-sub000/internal/core/ports"
)

// proceduralSource synthesizes a frequency frame from track metadata
// alone. It is the floor of the tier ladder: acquisition never fails, so
// the animation loop always has a moving, reproducible signal.
type proceduralSource struct {
	seed      uint64
	bpm       float64
	startedAt time.Time
	baseMs    int
	clock     ports.Clock

	done      chan struct{}
	closeOnce sync.Once
}

func newProceduralSource(track *domain.TrackSnapshot, clock ports.Clock) *proceduralSource {
	h := fnv.New64a()
	_, _ = h.Write([]byte(track.ID))
	seed := h.Sum64()
	return &proceduralSource{
		seed: seed,
		// tempo hint derived from the track identity: stable per track,
		// spread across a plausible 90-150 BPM range
		bpm:       90 + float64(seed%61),
		startedAt: clock.Now(),
		baseMs:    track.ProgressMs,
		clock:     clock,
		done:      make(chan struct{}),
	}
}

// FrequencyFrame fills dst deterministically from the seed and elapsed
// playback position: same track, same instant, same frame.
func (p *proceduralSource) FrequencyFrame(dst []byte) int {
	elapsedMs := float64(p.baseMs) + float64(p.clock.Now().Sub(p.startedAt))/float64(time.Millisecond)
	t := elapsedMs / 1000.0

	beatPhase := math.Mod(t*p.bpm/60.0, 1.0)
	// sharp attack, exponential decay within each beat
	pulse := math.Exp(-6 * beatPhase)

	n := len(dst)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		// low bins carry the beat pulse, upper bins shimmer on slower
		// seed-detuned oscillators
		envelope := math.Exp(-3 * x)
		phase := t*(0.5+3*x) + float64((p.seed>>(i%48))&0xff)/37.0
		shimmer := 0.5 + 0.5*math.Sin(2*math.Pi*phase)
		v := (0.65*pulse*envelope + 0.35*shimmer*(1-0.6*x)) * 255
		if v > 255 {
			v = 255
		}
		if v < 0 {
			v = 0
		}
		dst[i] = byte(v)
	}
	return n
}

func (p *proceduralSource) Done() <-chan struct{} { return p.done }

func (p *proceduralSource) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}
