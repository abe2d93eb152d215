package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkurbatov/catalogkeeper/internal/logging"
)

// ---- fakes ----

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte

	getErr error
}

func newMemCache() *memCache { return &memCache{m: make(map[string][]byte)} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	b, ok := c.m[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = append([]byte(nil), value...)
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

type recordedEvent struct {
	event   AuthEvent
	session *Session
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) callback(event AuthEvent, session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event, session})
}

func (r *eventRecorder) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

// ---- helpers ----

func newTestAuth(t *testing.T, handler http.Handler, cache SessionCache) *AuthClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := newAuthClient(Config{
		ProjectURL:    srv.URL,
		APIKey:        "anon-key",
		RefreshMargin: 30 * time.Second,
	}, srv.Client(), logging.NewDiscard(), cache)
	t.Cleanup(a.Close)
	return a
}

func tokenHandler(t *testing.T, wantGrant string, tr tokenResponse) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, wantGrant, r.URL.Query().Get("grant_type"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))
		_ = json.NewEncoder(w).Encode(tr)
	})
}

// ---- tests ----

func TestSignInWithPassword_Success(t *testing.T) {
	cache := newMemCache()
	a := newTestAuth(t, tokenHandler(t, "password", tokenResponse{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresIn:    3600,
		User:         User{ID: "u-1", Email: "admin@example.com", UserMetadata: map[string]any{"role": "admin"}},
	}), cache)

	rec := &eventRecorder{}
	sub := a.OnAuthStateChange(rec.callback)
	defer sub.Unsubscribe()

	sess, err := a.SignInWithPassword(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "at-1", sess.AccessToken)
	assert.Equal(t, "u-1", sess.User.ID)
	assert.Equal(t, "admin", sess.User.UserMetadata["role"])
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, SignedIn, events[0].event)
	require.NotNil(t, events[0].session)
	assert.Equal(t, "at-1", events[0].session.AccessToken)

	cached, err := cache.Get(context.Background(), sessionCacheKey)
	require.NoError(t, err)
	require.NotNil(t, cached, "session must be persisted")
}

func TestSignInWithPassword_BadCredentials(t *testing.T) {
	a := newTestAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error_description":"Invalid login credentials"}`)
	}), newMemCache())

	_, err := a.SignInWithPassword(context.Background(), "admin@example.com", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid login credentials")
}

func TestGetSession_NoSession(t *testing.T) {
	a := newTestAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}), newMemCache())

	sess, err := a.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestGetSession_RestoresFromCache(t *testing.T) {
	cache := newMemCache()
	stored := Session{
		AccessToken:  "at-cached",
		RefreshToken: "rt-cached",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         User{ID: "u-1"},
	}
	b, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, cache.Set(context.Background(), sessionCacheKey, b))

	a := newTestAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("fresh session must not hit the network")
	}), cache)

	sess, err := a.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "at-cached", sess.AccessToken)
}

func TestGetSession_RefreshesExpiring(t *testing.T) {
	cache := newMemCache()
	stored := Session{
		AccessToken:  "at-old",
		RefreshToken: "rt-old",
		ExpiresAt:    time.Now().Add(time.Second), // inside the refresh margin
		User:         User{ID: "u-1"},
	}
	b, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, cache.Set(context.Background(), sessionCacheKey, b))

	a := newTestAuth(t, tokenHandler(t, "refresh_token", tokenResponse{
		AccessToken:  "at-new",
		RefreshToken: "rt-new",
		ExpiresIn:    3600,
		User:         User{ID: "u-1"},
	}), cache)

	rec := &eventRecorder{}
	sub := a.OnAuthStateChange(rec.callback)
	defer sub.Unsubscribe()

	sess, err := a.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "at-new", sess.AccessToken)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, TokenRefreshed, events[0].event)
}

func TestRefreshSession_WithoutSession(t *testing.T) {
	a := newTestAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), newMemCache())

	_, err := a.RefreshSession(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSignOut_ClearsEverything(t *testing.T) {
	cache := newMemCache()
	var loggedOut bool
	a := newTestAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			_ = json.NewEncoder(w).Encode(tokenResponse{
				AccessToken: "at-1", RefreshToken: "rt-1", ExpiresIn: 3600,
			})
		case "/auth/v1/logout":
			loggedOut = true
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), cache)

	_, err := a.SignInWithPassword(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)

	rec := &eventRecorder{}
	sub := a.OnAuthStateChange(rec.callback)
	defer sub.Unsubscribe()

	require.NoError(t, a.SignOut(context.Background()))
	assert.True(t, loggedOut)

	sess, err := a.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)

	cached, err := cache.Get(context.Background(), sessionCacheKey)
	require.NoError(t, err)
	assert.Nil(t, cached)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, SignedOut, events[0].event)
	assert.Nil(t, events[0].session)
}

func TestUpdateUser_WithoutSession(t *testing.T) {
	a := newTestAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}), newMemCache())

	_, err := a.UpdateUser(context.Background(), UserAttributes{Password: "new-password"})
	require.ErrorIs(t, err, ErrNoSession)
}

func TestUpdateUser_MetadataReplacesSessionUser(t *testing.T) {
	cache := newMemCache()
	a := newTestAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			_ = json.NewEncoder(w).Encode(tokenResponse{
				AccessToken: "at-1", RefreshToken: "rt-1", ExpiresIn: 3600,
				User: User{ID: "u-1", Email: "admin@example.com"},
			})
		case "/auth/v1/user":
			require.Equal(t, http.MethodPut, r.Method)
			require.Equal(t, "anon-key", r.Header.Get("apikey"))
			require.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))

			var body struct {
				Password string         `json:"password"`
				Data     map[string]any `json:"data"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Empty(t, body.Password)
			assert.Equal(t, "New Name", body.Data["full_name"])

			_ = json.NewEncoder(w).Encode(User{
				ID: "u-1", Email: "admin@example.com",
				UserMetadata: map[string]any{"full_name": "New Name"},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), cache)

	_, err := a.SignInWithPassword(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)

	rec := &eventRecorder{}
	sub := a.OnAuthStateChange(rec.callback)
	defer sub.Unsubscribe()

	user, err := a.UpdateUser(context.Background(), UserAttributes{
		Data: map[string]any{"full_name": "New Name"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", user.UserMetadata["full_name"])

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, UserUpdated, events[0].event)
	require.NotNil(t, events[0].session)
	assert.Equal(t, "at-1", events[0].session.AccessToken, "tokens survive a user update")
	assert.Equal(t, "New Name", events[0].session.User.UserMetadata["full_name"])

	cached, err := cache.Get(context.Background(), sessionCacheKey)
	require.NoError(t, err)
	var persisted Session
	require.NoError(t, json.Unmarshal(cached, &persisted))
	assert.Equal(t, "New Name", persisted.User.UserMetadata["full_name"])
}

func TestUpdateUser_ErrorSurfacesServiceMessage(t *testing.T) {
	a := newTestAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			_ = json.NewEncoder(w).Encode(tokenResponse{
				AccessToken: "at-1", RefreshToken: "rt-1", ExpiresIn: 3600,
			})
		case "/auth/v1/user":
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"msg":"New password should be different from the old password"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), newMemCache())

	_, err := a.SignInWithPassword(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)

	_, err = a.UpdateUser(context.Background(), UserAttributes{Password: "pw"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "New password should be different")
}

func TestSubscription_UnsubscribeIsIdempotent(t *testing.T) {
	a := newTestAuth(t, tokenHandler(t, "password", tokenResponse{
		AccessToken: "at-1", RefreshToken: "rt-1", ExpiresIn: 3600,
	}), newMemCache())

	rec := &eventRecorder{}
	sub := a.OnAuthStateChange(rec.callback)
	sub.Unsubscribe()
	sub.Unsubscribe()

	_, err := a.SignInWithPassword(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	assert.Empty(t, rec.all())
}

func TestTokenExpiry_FromJWT(t *testing.T) {
	exp := time.Now().Add(42 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	got, ok := tokenExpiry(signed)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
}

func TestTokenExpiry_Opaque(t *testing.T) {
	_, ok := tokenExpiry("not-a-jwt")
	assert.False(t, ok)
}
