// Package audio owns signal acquisition and analysis: the tiered source
// negotiator, the per-tier spectrum sources, and the frame analyzer.
package audio

import (
	"math"
	"math/cmplx"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
)

// fftSize is the analysis window. Half of it lands in an AudioFrame.
const fftSize = domain.FrameBins * 2

// spectra turns a block of PCM samples into byte-scaled magnitude bins.
type spectra struct {
	window []float64
}

func newSpectra() *spectra {
	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return &spectra{window: window}
}

// frame fills dst with magnitude bins (low to high frequency) computed
// from up to fftSize samples. Returns the number of bins written.
func (s *spectra) frame(samples []float64, dst []byte) int {
	buf := make([]complex128, fftSize)
	for i := 0; i < fftSize && i < len(samples); i++ {
		buf[i] = complex(samples[i]*s.window[i], 0)
	}

	spectrum := fft(buf)

	bins := len(dst)
	if bins > fftSize/2 {
		bins = fftSize / 2
	}
	for i := 0; i < bins; i++ {
		// normalize so a full-scale sine fills its bin, then compress
		mag := cmplx.Abs(spectrum[i]) / (fftSize / 4)
		v := math.Log10(1+9*math.Min(mag, 1)) * 255
		if v > 255 {
			v = 255
		}
		dst[i] = byte(v)
	}
	return bins
}

// fft is an iterative radix-2 transform. Input length must be a power of
// two.
func fft(data []complex128) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, len(data))
		copy(result, data)
		return result
	}

	bits := 0
	for tmp := n; tmp > 1; tmp >>= 1 {
		bits++
	}

	result := make([]complex128, n)
	for i := 0; i < n; i++ {
		result[bitReverse(i, bits)] = data[i]
	}

	for size := 2; size <= n; size *= 2 {
		halfSize := size / 2
		wBase := -2.0 * math.Pi / float64(size)
		for start := 0; start < n; start += size {
			for i := 0; i < halfSize; i++ {
				w := cmplx.Rect(1, wBase*float64(i))
				t := w * result[start+i+halfSize]
				result[start+i+halfSize] = result[start+i] - t
				result[start+i] = result[start+i] + t
			}
		}
	}

	return result
}

func bitReverse(x, bits int) int {
	result := 0
	for i := 0; i < bits; i++ {
		result = (result << 1) | (x & 1)
		x >>= 1
	}
	return result
}
