// Package flight provides small in-flight operation de-duplicators shared
// by the token refresh path and the audio tier acquisition path.
package flight

import "sync"

type result struct {
	val string
	err error
}

type call struct {
	done chan struct{}
	res  result
}

// Group collapses concurrent executions of one logical operation into a
// single upstream call whose outcome every caller shares. The in-flight
// reference is cleared on completion, success or failure, before the next
// call may start a new execution.
type Group struct {
	mu      sync.Mutex
	current *call
}

// Do runs fn unless an execution is already in flight, in which case it
// waits for that execution and returns its outcome.
func (g *Group) Do(fn func() (string, error)) (string, error) {
	g.mu.Lock()
	if c := g.current; c != nil {
		g.mu.Unlock()
		<-c.done
		return c.res.val, c.res.err
	}
	c := &call{done: make(chan struct{})}
	g.current = c
	g.mu.Unlock()

	c.res.val, c.res.err = fn()

	g.mu.Lock()
	g.current = nil
	g.mu.Unlock()
	close(c.done)

	return c.res.val, c.res.err
}

// Gate is an idempotency guard for acquisition attempts: TryBegin reports
// whether the caller won the right to attempt, and End releases it. A
// loser does not wait; it simply observes that an attempt is in progress.
type Gate struct {
	mu   sync.Mutex
	busy bool
}

// TryBegin claims the gate. It returns false if an attempt is already in
// progress.
func (g *Gate) TryBegin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return false
	}
	g.busy = true
	return true
}

// End releases the gate.
func (g *Gate) End() {
	g.mu.Lock()
	g.busy = false
	g.mu.Unlock()
}
