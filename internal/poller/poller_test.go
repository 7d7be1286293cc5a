package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
)

// scriptedSource replays a fixed sequence of poll results, then repeats
// the last one.
type scriptedSource struct {
	mu      sync.Mutex
	results []pollResult
	i       int
}

type pollResult struct {
	snap *domain.TrackSnapshot
	err  error
}

func (s *scriptedSource) NowPlaying(ctx context.Context) (*domain.TrackSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.results[s.i]
	if s.i < len(s.results)-1 {
		s.i++
	}
	return r.snap, r.err
}

func collect(t *testing.T, p *Poller, n int) []Update {
	t.Helper()
	var got []Update
	timeout := time.After(2 * time.Second)
	for len(got) < n {
		select {
		case u, ok := <-p.Updates():
			if !ok {
				t.Fatalf("updates closed after %d of %d", len(got), n)
			}
			got = append(got, u)
		case <-timeout:
			t.Fatalf("timed out after %d of %d updates", len(got), n)
		}
	}
	return got
}

func TestPollerTrackChangeEvents(t *testing.T) {
	trackA := &domain.TrackSnapshot{ID: "a", Name: "Alpha", IsPlaying: true}
	trackA2 := &domain.TrackSnapshot{ID: "a", Name: "Alpha", ProgressMs: 1500, IsPlaying: true}
	trackB := &domain.TrackSnapshot{ID: "b", Name: "Beta", IsPlaying: true}

	src := &scriptedSource{results: []pollResult{
		{snap: trackA},
		{snap: trackA2},
		{snap: trackB},
		{snap: nil}, // playback stopped
	}}
	p := New(src, time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	got := collect(t, p, 4)

	wantChanged := []bool{true, false, true, true}
	for i, u := range got {
		if u.TrackChanged != wantChanged[i] {
			t.Errorf("update %d: TrackChanged got %v, want %v", i, u.TrackChanged, wantChanged[i])
		}
	}
	if got[3].Snapshot != nil {
		t.Errorf("stopped playback: snapshot got %+v, want nil", got[3].Snapshot)
	}
}

func TestPollerSwallowsTransientErrors(t *testing.T) {
	trackA := &domain.TrackSnapshot{ID: "a", IsPlaying: true}
	src := &scriptedSource{results: []pollResult{
		{err: errors.New("connection reset")},
		{err: &domain.UpstreamError{Status: 502}},
		{snap: trackA},
	}}
	p := New(src, time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	got := collect(t, p, 1)
	if !got[0].TrackChanged || got[0].Snapshot == nil || got[0].Snapshot.ID != "a" {
		t.Errorf("first update after transient failures: %+v", got[0])
	}
}

func TestPollerStopsOnTerminalAuthError(t *testing.T) {
	src := &scriptedSource{results: []pollResult{
		{err: domain.ErrUnauthenticated},
	}}
	p := New(src, time.Millisecond, time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("got %v, want ErrUnauthenticated", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on terminal auth error")
	}
}
