package audio

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
	"github.com/RealSaake/waveline-sub000/internal/core/ports"
)

// PreviewDecoder fetches a track's preview clip and decodes the whole
// thing into memory up front, so analysis reads a local buffer with no
// network jitter. The buffer loops for as long as the track is current.
type PreviewDecoder struct {
	httpClient *http.Client
	clock      ports.Clock
}

var _ ports.PreviewDecoder = (*PreviewDecoder)(nil)

// NewPreviewDecoder constructs a decoder. Nil arguments fall back to
// http.DefaultClient and the system clock.
func NewPreviewDecoder(httpClient *http.Client, clock ports.Clock) *PreviewDecoder {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &PreviewDecoder{httpClient: httpClient, clock: clock}
}

// Decode fetches and fully decodes the clip. Any fetch or decode problem
// maps to domain.ErrResourceUnavailable so the negotiator falls through.
func (d *PreviewDecoder) Decode(ctx context.Context, previewURL string) (ports.SpectrumSource, error) {
	if previewURL == "" {
		return nil, domain.ErrResourceUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrResourceUnavailable, err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: preview fetch: %v", domain.ErrResourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: preview fetch status %d", domain.ErrResourceUnavailable, resp.StatusCode)
	}

	decoder, err := mp3.NewDecoder(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: preview decode: %v", domain.ErrResourceUnavailable, err)
	}

	samples, err := readMonoSamples(decoder)
	if err != nil {
		return nil, fmt.Errorf("%w: preview read: %v", domain.ErrResourceUnavailable, err)
	}
	if len(samples) <= fftSize {
		return nil, fmt.Errorf("%w: preview too short", domain.ErrResourceUnavailable)
	}

	return &previewSource{
		samples:    samples,
		sampleRate: decoder.SampleRate(),
		startedAt:  d.clock.Now(),
		clock:      d.clock,
		spectra:    newSpectra(),
		done:       make(chan struct{}),
	}, nil
}

// readMonoSamples drains the decoder's 16-bit stereo stream into mono
// float64 samples in [-1,1].
func readMonoSamples(r io.Reader) ([]float64, error) {
	var samples []float64
	buf := make([]byte, 4096)
	rem := 0
	for {
		n, err := r.Read(buf[rem:])
		n += rem
		i := 0
		for ; i+3 < n; i += 4 {
			left := int16(buf[i]) | int16(buf[i+1])<<8
			right := int16(buf[i+2]) | int16(buf[i+3])<<8
			samples = append(samples, (float64(left)+float64(right))/2/32768.0)
		}
		// a short read can split a frame; carry the tail into the next read
		rem = copy(buf, buf[i:n])
		if err != nil {
			if err == io.EOF {
				return samples, nil
			}
			return nil, err
		}
	}
}

// previewSource replays the decoded buffer as a looping spectrum source.
type previewSource struct {
	samples    []float64
	sampleRate int
	startedAt  time.Time
	clock      ports.Clock
	spectra    *spectra

	done      chan struct{}
	closeOnce sync.Once
}

func (p *previewSource) FrequencyFrame(dst []byte) int {
	elapsed := p.clock.Now().Sub(p.startedAt).Seconds()
	span := len(p.samples) - fftSize
	pos := int(math.Mod(elapsed*float64(p.sampleRate), float64(span)))
	return p.spectra.frame(p.samples[pos:pos+fftSize], dst)
}

func (p *previewSource) Done() <-chan struct{} { return p.done }

func (p *previewSource) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}
