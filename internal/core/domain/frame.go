package domain

// FrameBins is the number of frequency bins carried by an AudioFrame.
// Matches half the FFT size used by the decode and capture tiers.
const FrameBins = 128

// AudioFrame is one frequency-domain frame plus derived band levels.
// Regenerated at animation-frame cadence and always replaced as a whole.
type AudioFrame struct {
	Frequencies []byte  `json:"frequencies"`
	BassLevel   float64 `json:"bass_level"`
	MidLevel    float64 `json:"mid_level"`
	TrebleLevel float64 `json:"treble_level"`
	Volume      float64 `json:"volume"`
}

// Tier identifies one of the mutually exclusive audio-source strategies,
// ordered highest fidelity first. TierIdle means no source is engaged.
type Tier int

const (
	TierIdle Tier = iota
	TierSdkTap
	TierDisplayCapture
	TierPreviewDecode
	TierProcedural
)

func (t Tier) String() string {
	switch t {
	case TierIdle:
		return "idle"
	case TierSdkTap:
		return "sdk_tap"
	case TierDisplayCapture:
		return "display_capture"
	case TierPreviewDecode:
		return "preview_decode"
	case TierProcedural:
		return "procedural"
	}
	return "unknown"
}
