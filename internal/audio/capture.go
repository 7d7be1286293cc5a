package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strings"
	"sync"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
	"github.com/RealSaake/waveline-sub000/internal/core/ports"
)

const captureSampleRate = 44100

// LoopbackCapturer implements the display-capture port against the local
// audio server's monitor source (parec). Capture requires an explicit
// grant: the user opts in via configuration, the moral equivalent of the
// browser's share-audio prompt.
type LoopbackCapturer struct {
	granted bool
}

var _ ports.DisplayCapturer = (*LoopbackCapturer)(nil)

func NewLoopbackCapturer(granted bool) *LoopbackCapturer {
	return &LoopbackCapturer{granted: granted}
}

// Capture starts a monitor-source recorder and returns it as a spectrum
// source. Denied grants and missing audio plumbing both fall through to
// lower tiers via the error taxonomy.
func (c *LoopbackCapturer) Capture(ctx context.Context) (ports.SpectrumSource, error) {
	if !c.granted {
		return nil, domain.ErrPermissionDenied
	}

	out, err := exec.CommandContext(ctx, "pactl", "get-default-sink").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: no default sink: %v", domain.ErrResourceUnavailable, err)
	}
	sink := strings.TrimSpace(string(out))
	if sink == "" {
		return nil, fmt.Errorf("%w: empty default sink", domain.ErrResourceUnavailable)
	}

	// the recorder outlives this call, so it hangs off its own context;
	// while acquisition is still in flight, canceling ctx kills it too
	procCtx, procCancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, procCancel)
	defer stop()

	cmd := exec.CommandContext(procCtx, "parec",
		"--format=float32le",
		fmt.Sprintf("--rate=%d", captureSampleRate),
		"--channels=1",
		fmt.Sprintf("--device=%s.monitor", sink),
		"--latency-msec=25",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		procCancel()
		return nil, fmt.Errorf("%w: %v", domain.ErrResourceUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		procCancel()
		return nil, fmt.Errorf("%w: start parec: %v", domain.ErrResourceUnavailable, err)
	}

	src := &captureSource{
		cmd:     cmd,
		cancel:  procCancel,
		reader:  stdout,
		samples: make([]float64, fftSize),
		spectra: newSpectra(),
		done:    make(chan struct{}),
	}
	go src.readLoop()
	return src, nil
}

// captureSource holds the recorder process and the most recent window of
// samples.
type captureSource struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	reader io.ReadCloser

	mu      sync.Mutex
	samples []float64

	spectra   *spectra
	done      chan struct{}
	closeOnce sync.Once
}

func (s *captureSource) readLoop() {
	buf := make([]byte, fftSize*4)
	window := make([]float64, fftSize)
	for {
		if _, err := io.ReadFull(s.reader, buf); err != nil {
			// recorder gone: surface stream end so the negotiator can
			// renegotiate, exactly like a user ending a shared tab
			s.closeOnce.Do(func() { close(s.done) })
			return
		}
		for i := 0; i < fftSize; i++ {
			bits := binary.LittleEndian.Uint32(buf[i*4:])
			window[i] = float64(math.Float32frombits(bits))
		}
		s.mu.Lock()
		copy(s.samples, window)
		s.mu.Unlock()
	}
}

func (s *captureSource) FrequencyFrame(dst []byte) int {
	s.mu.Lock()
	window := make([]float64, len(s.samples))
	copy(window, s.samples)
	s.mu.Unlock()
	return s.spectra.frame(window, dst)
}

func (s *captureSource) Done() <-chan struct{} { return s.done }

func (s *captureSource) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	_ = s.reader.Close()
	s.cancel()
	_ = s.cmd.Wait()
	return nil
}
