package gateway

import (
	"sync"
	"time"
)

// User is the authenticated identity attached to a session. UserMetadata is
// free-form; the admin UI reads "full_name" and "role" from it.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// Session is the token set issued by the auth service. Consumers receive
// snapshots and must treat them as read-only; a new snapshot replaces the
// previous one wholesale on every auth-state change.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// AuthEvent classifies an auth-state change notification.
type AuthEvent string

const (
	SignedIn       AuthEvent = "SIGNED_IN"
	SignedOut      AuthEvent = "SIGNED_OUT"
	TokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	UserUpdated    AuthEvent = "USER_UPDATED"
)

// Subscription is the handle returned by OnAuthStateChange. Unsubscribe is
// idempotent and safe to call during teardown.
type Subscription struct {
	once   sync.Once
	remove func()
}

func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.remove != nil {
			s.remove()
		}
	})
}
