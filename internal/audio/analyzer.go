package audio

import (
	"time"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
	"github.com/RealSaake/waveline-sub000/internal/core/ports"
)

// Band split as fractions of the bin count: bass is the lowest 10%, mid
// the next 55%, treble the rest. Contiguous and non-overlapping.
const (
	bassFraction = 0.10
	midFraction  = 0.55
)

// Analyzer derives banded levels from a raw frequency frame. It carries
// no per-frame state; all state lives in the BeatDetector.
type Analyzer struct{}

func NewAnalyzer() *Analyzer { return &Analyzer{} }

// Analyze computes band levels and overall volume, each the mean of its
// bins normalized to [0,1].
func (a *Analyzer) Analyze(bins []byte) domain.AudioFrame {
	frame := domain.AudioFrame{Frequencies: bins}
	n := len(bins)
	if n == 0 {
		return frame
	}

	bassEnd := int(float64(n) * bassFraction)
	if bassEnd < 1 {
		bassEnd = 1
	}
	midEnd := bassEnd + int(float64(n)*midFraction)
	if midEnd > n {
		midEnd = n
	}

	frame.BassLevel = meanLevel(bins[:bassEnd])
	frame.MidLevel = meanLevel(bins[bassEnd:midEnd])
	frame.TrebleLevel = meanLevel(bins[midEnd:])
	frame.Volume = meanLevel(bins)
	return frame
}

func meanLevel(bins []byte) float64 {
	if len(bins) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bins {
		sum += float64(b)
	}
	return sum / float64(len(bins)) / 255.0
}

const (
	beatHistorySize = 10
	beatMultiplier  = 1.3
	// DefaultRefractory is the minimum gap between detected beats.
	DefaultRefractory = 180 * time.Millisecond
)

// BeatDetector fires on bass transients using a rolling adaptive
// threshold: a short history self-calibrates to the track's loudness and
// the refractory period suppresses double triggers on sustained bass.
type BeatDetector struct {
	clock      ports.Clock
	refractory time.Duration
	history    []float64
	threshold  float64
	lastBeatAt time.Time
}

// NewBeatDetector constructs a detector. A non-positive refractory falls
// back to DefaultRefractory; a nil clock to the system clock.
func NewBeatDetector(clock ports.Clock, refractory time.Duration) *BeatDetector {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if refractory <= 0 {
		refractory = DefaultRefractory
	}
	return &BeatDetector{
		clock:      clock,
		refractory: refractory,
		history:    make([]float64, 0, beatHistorySize),
	}
}

// Feed consumes one frame's bass level and reports whether a beat fired.
// The history accumulates raw levels regardless of firing.
func (d *BeatDetector) Feed(bassLevel float64) bool {
	if len(d.history) == beatHistorySize {
		copy(d.history, d.history[1:])
		d.history = d.history[:beatHistorySize-1]
	}
	d.history = append(d.history, bassLevel)

	var sum float64
	for _, v := range d.history {
		sum += v
	}
	d.threshold = sum / float64(len(d.history)) * beatMultiplier

	now := d.clock.Now()
	if bassLevel > d.threshold && now.Sub(d.lastBeatAt) > d.refractory {
		d.lastBeatAt = now
		return true
	}
	return false
}

// Threshold exposes the current adaptive threshold.
func (d *BeatDetector) Threshold() float64 { return d.threshold }

// Reset drops the history. Called when the audio source tier changes: the
// rolling average is meaningless across a timbre or level discontinuity.
func (d *BeatDetector) Reset() {
	d.history = d.history[:0]
	d.threshold = 0
	d.lastBeatAt = time.Time{}
}
