// Package poller drives the now-playing poll loop and turns successive
// snapshots into track-change events.
package poller

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
	"github.com/RealSaake/waveline-sub000/internal/core/ports"
)

const (
	// DefaultEngagedInterval is the poll cadence while something plays.
	DefaultEngagedInterval = 1500 * time.Millisecond
	// DefaultIdleInterval is the cadence while nothing is playing.
	DefaultIdleInterval = 3 * time.Second
)

// Update is one poll result. Snapshot is nil when nothing is playing.
// TrackChanged marks a track transition (including playback starting or
// stopping entirely) and is what re-engages the audio negotiator.
type Update struct {
	Snapshot     *domain.TrackSnapshot
	TrackChanged bool
}

// Poller periodically fetches now-playing state through the proxy.
type Poller struct {
	source  ports.NowPlayingSource
	engaged time.Duration
	idle    time.Duration
	updates chan Update
}

// New constructs a Poller. Non-positive intervals fall back to defaults.
func New(source ports.NowPlayingSource, engaged, idle time.Duration) *Poller {
	if engaged <= 0 {
		engaged = DefaultEngagedInterval
	}
	if idle <= 0 {
		idle = DefaultIdleInterval
	}
	return &Poller{
		source:  source,
		engaged: engaged,
		idle:    idle,
		updates: make(chan Update, 16),
	}
}

// Updates is the stream of poll results.
func (p *Poller) Updates() <-chan Update {
	return p.updates
}

// Run polls until the context is canceled or the session dies. Transient
// failures are logged and swallowed; the next tick retries naturally.
// Terminal auth failures stop the loop and are returned to the caller.
func (p *Poller) Run(ctx context.Context) error {
	defer close(p.updates)

	var prev *domain.TrackSnapshot
	interval := p.idle

	timer := time.NewTimer(0) // first poll fires immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		snap, err := p.source.NowPlaying(ctx)
		switch {
		case err == nil:
			changed := !domain.SameTrack(prev, snap)
			prev = snap
			p.emit(Update{Snapshot: snap, TrackChanged: changed})
			if snap != nil && snap.IsPlaying {
				interval = p.engaged
			} else {
				interval = p.idle
			}
		case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrRefreshFailed):
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			var upErr *domain.UpstreamError
			if errors.As(err, &upErr) {
				log.Printf("WARN poller: upstream status %d, will retry next tick", upErr.Status)
			} else {
				log.Printf("WARN poller: poll failed: %v", err)
			}
		}

		timer.Reset(interval)
	}
}

func (p *Poller) emit(u Update) {
	select {
	case p.updates <- u:
	default:
		log.Printf("WARN poller: dropping update, consumer too slow")
	}
}
