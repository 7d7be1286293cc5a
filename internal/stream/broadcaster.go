// Package stream fans analyzed audio out to renderer clients and owns the
// animation-cadence pump that produces the frames.
package stream

import (
	"sync"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
)

// Event is one visualization update: the analyzed frame, whether a beat
// fired on it, the tier it came from, and the track it belongs to.
type Event struct {
	Frame domain.AudioFrame     `json:"frame"`
	Beat  bool                  `json:"beat"`
	Tier  string                `json:"tier"`
	Track *domain.TrackSnapshot `json:"track"`
}

// Broadcaster fans out events from the pump to N listeners.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
}

// Listener receives events from the broadcaster.
type Listener struct {
	C    chan Event
	done chan struct{}
}

// Done is closed when the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[*Listener]struct{})}
}

// Subscribe registers a new listener.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan Event, 120), // ~2 seconds of buffer at 60 fps
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	_, ok := b.listeners[l]
	delete(b.listeners, l)
	b.mu.Unlock()
	if ok {
		close(l.done)
	}
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Publish fans an event out to all listeners. Slow listeners get events
// dropped rather than blocking the animation cadence.
func (b *Broadcaster) Publish(e Event) {
	b.mu.RLock()
	for l := range b.listeners {
		select {
		case l.C <- e:
		default:
			// listener too slow, drop to keep the frame clock moving
		}
	}
	b.mu.RUnlock()
}
