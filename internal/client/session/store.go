// Package session keeps a single client-wide view of the auth session and
// notifies interested parties when it changes.
package session

import (
	"context"
	"sync"

	"github.com/dkurbatov/catalogkeeper/internal/gateway"
	"github.com/dkurbatov/catalogkeeper/internal/logging"
)

// AuthGateway is the slice of the gateway's auth client the store needs.
type AuthGateway interface {
	GetSession(ctx context.Context) (*gateway.Session, error)
	OnAuthStateChange(cb func(event gateway.AuthEvent, session *gateway.Session)) *gateway.Subscription
}

// Store tracks the current session. It starts in the "checking" state, wires
// itself to auth-state changes before the initial fetch so no event is lost,
// and applies updates in arrival order: whichever write lands last wins,
// whether it came from the fetch or from an event.
type Store struct {
	auth AuthGateway
	log  logging.Logger

	mu       sync.Mutex
	session  *gateway.Session
	checking bool
	subs     map[int64]func()
	nextSub  int64

	resolved    chan struct{}
	resolveOnce sync.Once

	authSub   *gateway.Subscription
	closeOnce sync.Once
}

func NewStore(auth AuthGateway, log logging.Logger) *Store {
	return &Store{
		auth:     auth,
		log:      log,
		checking: true,
		subs:     make(map[int64]func()),
		resolved: make(chan struct{}),
	}
}

// Start subscribes to auth-state changes and kicks off the initial session
// fetch in the background. A fetch error is logged and treated as signed out
// rather than surfaced.
func (s *Store) Start(ctx context.Context) {
	s.authSub = s.auth.OnAuthStateChange(func(_ gateway.AuthEvent, sess *gateway.Session) {
		s.apply(sess)
	})

	go func() {
		sess, err := s.auth.GetSession(ctx)
		if err != nil {
			s.log.Error(ctx, "initial session fetch failed", "error", err)
			sess = nil
		}
		s.apply(sess)
	}()
}

// apply installs a new session snapshot and leaves the checking state.
func (s *Store) apply(sess *gateway.Session) {
	s.mu.Lock()
	s.session = sess
	s.checking = false
	listeners := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	s.resolveOnce.Do(func() { close(s.resolved) })

	for _, fn := range listeners {
		fn()
	}
}

// Checking reports whether the first session resolution is still in flight.
func (s *Store) Checking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checking
}

// IsAuthenticated reports whether a session is currently installed.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// Current returns the current session snapshot, nil when signed out.
func (s *Store) Current() *gateway.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Resolved returns a channel closed once the first resolution lands.
func (s *Store) Resolved() <-chan struct{} {
	return s.resolved
}

// Subscribe registers fn to run after every session change. The returned
// function removes the registration and is safe to call more than once.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Close detaches the store from auth-state changes.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.authSub.Unsubscribe()
	})
}
