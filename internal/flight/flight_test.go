package flight

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestGroupSharesOneExecution(t *testing.T) {
	var g Group
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			val, err := g.Do(func() (string, error) {
				atomic.AddInt32(&calls, 1)
				close(started)
				<-release
				return "token-1", nil
			})
			if err != nil {
				t.Errorf("caller %d: unexpected error: %v", i, err)
			}
			results[i] = val
		}(i)
		if i == 0 {
			// make sure the first caller owns the in-flight slot before
			// the rest pile on
			<-started
		}
	}

	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("executions: got %d, want 1", got)
	}
	for i, r := range results {
		if r != "token-1" {
			t.Errorf("caller %d: got %q, want token-1", i, r)
		}
	}
}

func TestGroupSharesFailure(t *testing.T) {
	var g Group
	wantErr := errors.New("refresh rejected")

	_, err := g.Do(func() (string, error) { return "", wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}

	// a completed failure must not poison the next call
	val, err := g.Do(func() (string, error) { return "token-2", nil })
	if err != nil || val != "token-2" {
		t.Fatalf("second call: got (%q, %v), want (token-2, nil)", val, err)
	}
}

func TestGateSingleWinner(t *testing.T) {
	var g Gate
	if !g.TryBegin() {
		t.Fatal("first TryBegin should win")
	}
	if g.TryBegin() {
		t.Fatal("second TryBegin should lose while busy")
	}
	g.End()
	if !g.TryBegin() {
		t.Fatal("TryBegin after End should win again")
	}
}
