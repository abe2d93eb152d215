// Package guard gates protected operations on the auth session state.
package guard

import (
	"context"
	"sync"
)

// State is the guard's access decision for protected operations.
type State int

const (
	// Pending means the first session resolution has not landed yet; no
	// decision can be made and callers must wait rather than deny.
	Pending State = iota
	// Denied means the session is resolved and absent.
	Denied
	// Granted means the session is resolved and present.
	Granted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	default:
		return "unknown"
	}
}

// SessionSource is the slice of the session store the guard reads.
type SessionSource interface {
	Checking() bool
	IsAuthenticated() bool
	Resolved() <-chan struct{}
	Subscribe(fn func()) func()
}

type Guard struct {
	sessions SessionSource
}

func New(sessions SessionSource) *Guard {
	return &Guard{sessions: sessions}
}

// Evaluate returns the current state without waiting.
func (g *Guard) Evaluate() State {
	if g.sessions.Checking() {
		return Pending
	}
	if g.sessions.IsAuthenticated() {
		return Granted
	}
	return Denied
}

// WaitResolved blocks until the first session resolution or ctx is done.
func (g *Guard) WaitResolved(ctx context.Context) error {
	select {
	case <-g.sessions.Resolved():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Decision is the outcome of authorizing access to a destination. From keeps
// the requested destination so a denied caller can be sent back there after
// signing in.
type Decision struct {
	State State
	From  string
}

// Authorize waits out the pending state and then grants or denies access to
// destination. It never returns Pending unless ctx expires first.
func (g *Guard) Authorize(ctx context.Context, destination string) (Decision, error) {
	if err := g.WaitResolved(ctx); err != nil {
		return Decision{State: Pending, From: destination}, err
	}
	if g.sessions.IsAuthenticated() {
		return Decision{State: Granted, From: destination}, nil
	}
	return Decision{State: Denied, From: destination}, nil
}

// Watch calls onChange with the new state whenever it differs from the last
// observed one, so a session that expires mid-use flips Granted to Denied.
// The returned function stops watching.
func (g *Guard) Watch(onChange func(State)) func() {
	var mu sync.Mutex
	last := g.Evaluate()

	return g.sessions.Subscribe(func() {
		cur := g.Evaluate()
		mu.Lock()
		changed := cur != last
		last = cur
		mu.Unlock()
		if changed {
			onChange(cur)
		}
	})
}
