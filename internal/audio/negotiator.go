package audio

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
	"github.com/RealSaake/waveline-sub000/internal/core/ports"
	"github.com/RealSaake/waveline-sub000/internal/flight"
)

// acquireTimeout bounds a single tier acquisition so a hung prompt or
// settle delay cannot stall the ladder.
const acquireTimeout = 5 * time.Second

// Handle owns the resources of the active tier: exactly one Handle is
// live at any time, replaced atomically on tier switch.
type Handle struct {
	Tier   domain.Tier
	source ports.SpectrumSource
	gen    uint64
}

// Negotiator walks the tier ladder (SDK tap, display capture, preview
// decode, procedural) on every explicit trigger and exposes whichever
// signal it lands on. Tier errors never escape it.
type Negotiator struct {
	sdk     ports.MediaElementTap
	display ports.DisplayCapturer
	preview ports.PreviewDecoder
	clock   ports.Clock

	gate flight.Gate

	mu     sync.Mutex
	gen    uint64
	active *Handle
	track  *domain.TrackSnapshot
}

// NewNegotiator constructs a Negotiator. Any tier dependency may be nil,
// in which case that tier is simply never viable. A nil clock falls back
// to the system clock.
func NewNegotiator(sdk ports.MediaElementTap, display ports.DisplayCapturer, preview ports.PreviewDecoder, clock ports.Clock) *Negotiator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Negotiator{sdk: sdk, display: display, preview: preview, clock: clock}
}

// Engage reacts to a trigger (track start, track change, user request,
// source failure): it tears the previous tier down, then acquires the
// best available one for the given track. A nil track disengages to Idle.
// Concurrent triggers are idempotent: while one engagement is acquiring,
// later ones only bump the generation and the in-flight engagement
// re-acquires for the newest state instead of committing a stale source.
func (n *Negotiator) Engage(ctx context.Context, track *domain.TrackSnapshot) {
	n.mu.Lock()
	n.gen++
	n.track = track
	n.teardownLocked()
	n.mu.Unlock()

	n.drive(ctx)
}

// drive runs engagements until every generation observed so far has been
// served. A trigger that loses the gate in the narrow window between the
// holder's commit and its gate release would otherwise go unserved until
// the next track change, so the holder re-checks after releasing.
func (n *Negotiator) drive(ctx context.Context) {
	for {
		if !n.gate.TryBegin() {
			// an engagement is already running; it observes the new generation
			return
		}
		served := n.engage(ctx)
		n.gate.End()

		n.mu.Lock()
		done := n.gen == served
		n.mu.Unlock()
		if done {
			return
		}
	}
}

// engage holds the gate. It acquires a source for the current track,
// re-acquiring as long as newer triggers keep arriving, and reports the
// generation it served.
func (n *Negotiator) engage(ctx context.Context) uint64 {
	for {
		n.mu.Lock()
		myGen := n.gen
		current := n.track
		n.mu.Unlock()

		if current == nil {
			return myGen
		}

		source, tier := n.acquire(ctx, current)

		n.mu.Lock()
		if n.gen != myGen {
			// a newer trigger arrived while we were acquiring; this
			// result is stale and must not overwrite newer state
			n.mu.Unlock()
			if source != nil {
				_ = source.Close()
			}
			continue
		}
		if source != nil {
			// a duplicate engagement can reach here with a handle already
			// committed at this generation; it must be released first
			n.teardownLocked()
			n.active = &Handle{Tier: tier, source: source, gen: myGen}
			go n.watch(source, myGen)
			log.Printf("audio: engaged tier %s for track %s", tier, current.ID)
		}
		n.mu.Unlock()
		return myGen
	}
}

// acquire walks the ladder top down. It only returns nil when the context
// is dead: the procedural floor cannot fail.
func (n *Negotiator) acquire(ctx context.Context, track *domain.TrackSnapshot) (ports.SpectrumSource, domain.Tier) {
	if n.sdk != nil {
		if src, err := n.attempt(ctx, n.sdk.Attach); err == nil {
			return src, domain.TierSdkTap
		} else {
			n.logFallthrough(domain.TierSdkTap, err)
		}
	}
	if n.display != nil {
		if src, err := n.attempt(ctx, n.display.Capture); err == nil {
			return src, domain.TierDisplayCapture
		} else {
			n.logFallthrough(domain.TierDisplayCapture, err)
		}
	}
	if n.preview != nil && track.PreviewURL != "" {
		attempt := func(ctx context.Context) (ports.SpectrumSource, error) {
			return n.preview.Decode(ctx, track.PreviewURL)
		}
		if src, err := n.attempt(ctx, attempt); err == nil {
			return src, domain.TierPreviewDecode
		} else {
			n.logFallthrough(domain.TierPreviewDecode, err)
		}
	}
	if ctx.Err() != nil {
		return nil, domain.TierIdle
	}
	return newProceduralSource(track, n.clock), domain.TierProcedural
}

func (n *Negotiator) attempt(ctx context.Context, acquire func(context.Context) (ports.SpectrumSource, error)) (ports.SpectrumSource, error) {
	ctx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()
	return acquire(ctx)
}

func (n *Negotiator) logFallthrough(tier domain.Tier, err error) {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		log.Printf("audio: %s denied, falling through", tier)
	case errors.Is(err, domain.ErrResourceUnavailable):
		log.Printf("audio: %s unavailable, falling through", tier)
	default:
		log.Printf("WARN audio: %s failed: %v, falling through", tier, err)
	}
}

// watch forces renegotiation when the active source's stream ends on its
// own (a stopped screen share, a dead recorder).
func (n *Negotiator) watch(source ports.SpectrumSource, gen uint64) {
	<-source.Done()

	n.mu.Lock()
	stale := n.gen != gen
	if !stale {
		n.teardownLocked()
	}
	n.mu.Unlock()

	if !stale {
		log.Printf("audio: source stream ended, back to idle")
	}
}

// teardownLocked releases the active handle's resources. Callers hold
// n.mu. Teardown strictly precedes the next tier's setup: no two tiers'
// resources are ever held simultaneously.
func (n *Negotiator) teardownLocked() {
	if n.active == nil {
		return
	}
	_ = n.active.source.Close()
	n.active = nil
}

// FillFrame writes the current frequency frame into dst and reports the
// tier it came from. When idle it writes silence, so the animation loop
// always has a full frame to render.
func (n *Negotiator) FillFrame(dst []byte) domain.Tier {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.active == nil {
		for i := range dst {
			dst[i] = 0
		}
		return domain.TierIdle
	}
	n.active.source.FrequencyFrame(dst)
	return n.active.Tier
}

// ActiveTier reports the current tier, TierIdle when no source is held.
func (n *Negotiator) ActiveTier() domain.Tier {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.active == nil {
		return domain.TierIdle
	}
	return n.active.Tier
}

// Track returns the snapshot the current engagement was made for.
func (n *Negotiator) Track() *domain.TrackSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.track
}

// Close disengages and releases whatever is held.
func (n *Negotiator) Close() {
	n.mu.Lock()
	n.gen++
	n.track = nil
	n.teardownLocked()
	n.mu.Unlock()
}
