package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkurbatov/catalogkeeper/internal/logging"
)

// sessionCacheKey is the key the persisted session lives under.
const sessionCacheKey = "session"

// SessionCache persists the session between runs so a restart does not force
// a new login. Get returns (nil, nil) when the key is absent.
type SessionCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// AuthClient talks to the project's auth REST API and owns the in-process
// session: it signs in, refreshes the token before expiry, persists the
// session through a SessionCache and notifies subscribers on every
// auth-state change.
type AuthClient struct {
	baseURL       string
	apiKey        string
	http          *http.Client
	log           logging.Logger
	cache         SessionCache
	refreshMargin time.Duration

	mu       sync.Mutex
	session  *Session
	restored bool
	subs     map[int64]func(AuthEvent, *Session)
	nextSub  int64
	timer    *time.Timer
}

func newAuthClient(cfg Config, httpClient *http.Client, log logging.Logger, cache SessionCache) *AuthClient {
	return &AuthClient{
		baseURL:       strings.TrimRight(cfg.ProjectURL, "/"),
		apiKey:        cfg.APIKey,
		http:          httpClient,
		log:           log,
		cache:         cache,
		refreshMargin: cfg.RefreshMargin,
		subs:          make(map[int64]func(AuthEvent, *Session)),
	}
}

// OnAuthStateChange registers cb to be invoked on every session change:
// sign-in, sign-out and token refresh. The returned subscription's
// Unsubscribe is idempotent.
func (a *AuthClient) OnAuthStateChange(cb func(event AuthEvent, session *Session)) *Subscription {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = cb
	a.mu.Unlock()

	return &Subscription{remove: func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}}
}

// SignInWithPassword exchanges credentials for a session and makes it the
// held session. Subscribers are notified with SignedIn.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	tr, err := a.tokenRequest(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	sess := a.sessionFromToken(tr)
	a.setSession(ctx, sess, SignedIn)
	return sess.clone(), nil
}

// GetSession returns a snapshot of the current session, restoring it from
// the cache on first use and refreshing it when it is about to expire.
// (nil, nil) means "not signed in"; an error means the auth service could
// not be reached to re-establish the session.
func (a *AuthClient) GetSession(ctx context.Context) (*Session, error) {
	a.mu.Lock()
	sess := a.session
	needRestore := sess == nil && !a.restored && a.cache != nil
	a.mu.Unlock()

	if needRestore {
		sess = a.restoreFromCache(ctx)
	}
	if sess == nil {
		return nil, nil
	}
	if time.Until(sess.ExpiresAt) > a.refreshMargin {
		return sess.clone(), nil
	}
	return a.RefreshSession(ctx)
}

// RefreshSession trades the held refresh token for a new token pair and
// notifies subscribers with TokenRefreshed.
func (a *AuthClient) RefreshSession(ctx context.Context) (*Session, error) {
	a.mu.Lock()
	cur := a.session
	a.mu.Unlock()
	if cur == nil {
		return nil, ErrNoSession
	}

	tr, err := a.tokenRequest(ctx, "refresh_token", map[string]string{
		"refresh_token": cur.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	sess := a.sessionFromToken(tr)
	a.setSession(ctx, sess, TokenRefreshed)
	return sess.clone(), nil
}

// UserAttributes is the changeable part of the signed-in account. Zero
// fields are left untouched by UpdateUser.
type UserAttributes struct {
	Password string         `json:"password,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// UpdateUser changes the signed-in account: a new password, new metadata, or
// both. The held session keeps its tokens but takes over the server's copy of
// the user; subscribers are notified with UserUpdated.
func (a *AuthClient) UpdateUser(ctx context.Context, attrs UserAttributes) (*User, error) {
	a.mu.Lock()
	cur := a.session
	a.mu.Unlock()
	if cur == nil {
		return nil, ErrNoSession
	}

	payload, err := json.Marshal(attrs)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, a.baseURL+"/auth/v1/user", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", a.apiKey)
	req.Header.Set("Authorization", "Bearer "+cur.AccessToken)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("update user response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("update user failed: %s", authErrorMessage(raw, resp.StatusCode))
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("update user response: %w", err)
	}

	a.mu.Lock()
	sess := a.session
	if sess != nil {
		sess.User = user
		sess = sess.clone()
	}
	a.mu.Unlock()

	if sess != nil {
		if a.cache != nil {
			if b, err := json.Marshal(sess); err == nil {
				if err := a.cache.Set(ctx, sessionCacheKey, b); err != nil {
					a.log.Warn(ctx, "failed to persist session", "error", err)
				}
			}
		}
		a.emit(UserUpdated, sess)
	}
	return &user, nil
}

// SignOut revokes the session server-side (best effort), wipes the cached
// copy and notifies subscribers with SignedOut. The local session is cleared
// even when the revocation call fails.
func (a *AuthClient) SignOut(ctx context.Context) error {
	a.mu.Lock()
	cur := a.session
	a.session = nil
	a.restored = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	if cur != nil {
		if err := a.revoke(ctx, cur.AccessToken); err != nil {
			a.log.Warn(ctx, "sign-out revocation failed", "error", err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Delete(ctx, sessionCacheKey); err != nil {
			a.log.Warn(ctx, "failed to clear cached session", "error", err)
		}
	}

	a.emit(SignedOut, nil)
	return nil
}

// Close stops the background refresher. It does not sign out.
func (a *AuthClient) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *AuthClient) restoreFromCache(ctx context.Context) *Session {
	a.mu.Lock()
	a.restored = true
	a.mu.Unlock()

	b, err := a.cache.Get(ctx, sessionCacheKey)
	if err != nil {
		a.log.Warn(ctx, "failed to read cached session", "error", err)
		return nil
	}
	if b == nil {
		return nil
	}

	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		a.log.Warn(ctx, "cached session is corrupt, discarding", "error", err)
		_ = a.cache.Delete(ctx, sessionCacheKey)
		return nil
	}

	a.mu.Lock()
	a.session = &sess
	a.scheduleRefreshLocked(&sess)
	a.mu.Unlock()
	return &sess
}

// setSession replaces the held session, persists it and notifies
// subscribers. The previous session is replaced wholesale.
func (a *AuthClient) setSession(ctx context.Context, sess *Session, event AuthEvent) {
	a.mu.Lock()
	a.session = sess
	a.restored = true
	a.scheduleRefreshLocked(sess)
	a.mu.Unlock()

	if a.cache != nil {
		if b, err := json.Marshal(sess); err == nil {
			if err := a.cache.Set(ctx, sessionCacheKey, b); err != nil {
				a.log.Warn(ctx, "failed to persist session", "error", err)
			}
		}
	}

	a.emit(event, sess)
}

// scheduleRefreshLocked arms the refresh timer for just before expiry.
// Callers must hold a.mu.
func (a *AuthClient) scheduleRefreshLocked(sess *Session) {
	if a.timer != nil {
		a.timer.Stop()
	}
	d := time.Until(sess.ExpiresAt) - a.refreshMargin
	if d < time.Second {
		d = time.Second
	}
	a.timer = time.AfterFunc(d, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if _, err := a.RefreshSession(ctx); err != nil {
			a.log.Warn(ctx, "background token refresh failed", "error", err)
		}
	})
}

func (a *AuthClient) emit(event AuthEvent, sess *Session) {
	a.mu.Lock()
	cbs := make([]func(AuthEvent, *Session), 0, len(a.subs))
	for _, cb := range a.subs {
		cbs = append(cbs, cb)
	}
	a.mu.Unlock()

	for _, cb := range cbs {
		cb(event, sess.clone())
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         User   `json:"user"`
}

func (a *AuthClient) sessionFromToken(tr *tokenResponse) *Session {
	expiresAt := time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	if exp, ok := tokenExpiry(tr.AccessToken); ok {
		expiresAt = exp
	}
	return &Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         tr.User,
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client only needs the timestamp to schedule refreshes, validation is the
// backend's job.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (a *AuthClient) tokenRequest(ctx context.Context, grant string, body map[string]string) (*tokenResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/auth/v1/token?grant_type=%s", a.baseURL, grant)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", a.apiKey)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth request failed: %s", authErrorMessage(raw, resp.StatusCode))
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("auth response: %w", err)
	}
	return &tr, nil
}

func (a *AuthClient) revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", a.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("logout failed: %s", authErrorMessage(raw, resp.StatusCode))
	}
	return nil
}

// authErrorMessage extracts the service's message from an error payload,
// falling back to the HTTP status.
func authErrorMessage(raw []byte, status int) string {
	var e struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(raw, &e); err == nil {
		for _, m := range []string{e.ErrorDescription, e.Msg, e.Error} {
			if m != "" {
				return m
			}
		}
	}
	return http.StatusText(status)
}
