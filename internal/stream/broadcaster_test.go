package stream

import (
	"testing"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
)

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster()
	l1 := b.Subscribe()
	l2 := b.Subscribe()

	if got := b.ListenerCount(); got != 2 {
		t.Fatalf("listener count: got %d, want 2", got)
	}

	e := Event{Tier: domain.TierProcedural.String(), Beat: true}
	b.Publish(e)

	for i, l := range []*Listener{l1, l2} {
		select {
		case got := <-l.C:
			if got.Tier != e.Tier || !got.Beat {
				t.Errorf("listener %d: got %+v", i, got)
			}
		default:
			t.Errorf("listener %d received nothing", i)
		}
	}
}

func TestBroadcasterDropsWhenSlow(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()

	// overflow the listener buffer; Publish must never block
	for i := 0; i < cap(l.C)+50; i++ {
		b.Publish(Event{})
	}

	if got := len(l.C); got != cap(l.C) {
		t.Errorf("buffered events: got %d, want full buffer %d", got, cap(l.C))
	}
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()
	b.Unsubscribe(l)

	if got := b.ListenerCount(); got != 0 {
		t.Errorf("listener count: got %d, want 0", got)
	}
	select {
	case <-l.Done():
	default:
		t.Error("done not signaled on unsubscribe")
	}

	// unsubscribing twice must not panic
	b.Unsubscribe(l)
}
