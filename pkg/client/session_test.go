package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeEnvelope mimics the server's response envelope
func writeEnvelope(w http.ResponseWriter, status int, success bool, data interface{}, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": success,
		"data":    data,
		"error":   errMsg,
	})
}

func authorized(r *http.Request, token string) bool {
	return r.Header.Get("Authorization") == "Bearer "+token
}

// newAuthServer stands in for the API's auth endpoints. "good-access" and
// "good-refresh" are the only live credentials; a successful refresh
// rotates them to the rotated-* pair.
func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()

	user := &User{ID: 7, Username: "alice", Role: "RESEARCHER", EmailVerified: true}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, "good-access") && !authorized(r, "rotated-access") {
			writeEnvelope(w, http.StatusUnauthorized, false, nil, "invalid token")
			return
		}
		writeEnvelope(w, http.StatusOK, true, map[string]interface{}{"user": user}, "")
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.RefreshToken != "good-refresh" {
			writeEnvelope(w, http.StatusUnauthorized, false, nil, "token revoked")
			return
		}
		writeEnvelope(w, http.StatusOK, true, &authPayload{
			AccessToken:  "rotated-access",
			RefreshToken: "rotated-refresh",
			User:         user,
		}, "")
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username != "alice" || body.Password != "secret-password-1" {
			writeEnvelope(w, http.StatusUnauthorized, false, nil, "invalid credentials")
			return
		}
		writeEnvelope(w, http.StatusOK, true, &authPayload{
			AccessToken:  "good-access",
			RefreshToken: "good-refresh",
			User:         user,
		}, "")
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, nil, "")
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestSession(t *testing.T, server *httptest.Server) (*Session, TokenStore) {
	t.Helper()
	store := NewMemoryStore()
	c := New(server.URL, WithTokenStore(store))
	return NewSession(c), store
}

func seedSnapshot(t *testing.T, store TokenStore, access, refresh, role string) {
	t.Helper()
	require.NoError(t, store.Set(AccessTokenKey, access))
	require.NoError(t, store.Set(RefreshTokenKey, refresh))
	require.NoError(t, store.Set(RoleKey, role))
}

func TestRestoreWithNoCredentials(t *testing.T) {
	session, _ := newTestSession(t, newAuthServer(t))

	assert.Equal(t, StateUninitialized, session.State())
	assert.False(t, session.Loaded())

	session.Restore()

	assert.Equal(t, StateAnonymous, session.State())
	assert.True(t, session.Loaded())
	assert.Nil(t, session.User())
}

func TestRestoreResolvesFromSnapshotWithoutNetwork(t *testing.T) {
	// No server behind this URL: restore must not need one
	store := NewMemoryStore()
	session := NewSession(New("http://127.0.0.1:1", WithTokenStore(store)))
	seedSnapshot(t, store, "good-access", "good-refresh", "RESEARCHER")

	session.Restore()

	assert.Equal(t, StateAuthenticated, session.State())
	assert.True(t, session.Loaded())
	require.NotNil(t, session.User())
	assert.Equal(t, "RESEARCHER", session.User().Role)

	// A cold start with stored credentials renders, never bounces to login
	assert.Equal(t, Render, Guard(session))
	assert.Equal(t, Render, Guard(session, "RESEARCHER"))
}

func TestRestoreClearsHalfSnapshot(t *testing.T) {
	session, store := newTestSession(t, newAuthServer(t))
	require.NoError(t, store.Set(AccessTokenKey, "good-access"))
	// RoleKey deliberately missing

	session.Restore()

	assert.Equal(t, StateAnonymous, session.State())
	_, err := store.Get(AccessTokenKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestValidateWithLiveAccessToken(t *testing.T) {
	session, store := newTestSession(t, newAuthServer(t))
	seedSnapshot(t, store, "good-access", "good-refresh", "RESEARCHER")
	session.Restore()

	require.NoError(t, session.Validate(context.Background()))

	assert.Equal(t, StateAuthenticated, session.State())
	require.NotNil(t, session.User())
	assert.Equal(t, "alice", session.User().Username)
}

func TestValidateRefreshesExpiredAccessToken(t *testing.T) {
	session, store := newTestSession(t, newAuthServer(t))
	seedSnapshot(t, store, "expired-access", "good-refresh", "RESEARCHER")
	session.Restore()

	require.NoError(t, session.Validate(context.Background()))

	assert.Equal(t, StateAuthenticated, session.State())

	// The rotated pair replaced the stored credentials
	access, err := store.Get(AccessTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "rotated-access", access)

	refresh, err := store.Get(RefreshTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "rotated-refresh", refresh)
}

func TestValidateWithDeadCredentials(t *testing.T) {
	session, store := newTestSession(t, newAuthServer(t))
	seedSnapshot(t, store, "expired-access", "revoked-refresh", "RESEARCHER")
	session.Restore()

	// A rejected refresh resolves anonymous without surfacing an error
	require.NoError(t, session.Validate(context.Background()))

	assert.Equal(t, StateAnonymous, session.State())
	assert.True(t, session.Loaded())

	// The dead credentials were cleared
	_, err := store.Get(AccessTokenKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	_, err = store.Get(RefreshTokenKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	_, err = store.Get(RoleKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestValidateKeepsSessionOnServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, false, nil, "database down")
	}))
	t.Cleanup(server.Close)

	session, store := newTestSession(t, server)
	seedSnapshot(t, store, "good-access", "good-refresh", "RESEARCHER")
	session.Restore()

	err := session.Validate(context.Background())
	require.Error(t, err)

	// The restored session and its credentials survive a transport failure
	assert.Equal(t, StateAuthenticated, session.State())

	access, getErr := store.Get(AccessTokenKey)
	require.NoError(t, getErr)
	assert.Equal(t, "good-access", access)
}

func TestLoginLifecycle(t *testing.T) {
	session, store := newTestSession(t, newAuthServer(t))

	t.Run("bad credentials resolve anonymous and stale the captcha", func(t *testing.T) {
		_, err := session.Login(context.Background(), "alice", "wrong", "captcha-abc")
		require.Error(t, err)
		assert.True(t, IsUnauthorized(err))
		assert.Equal(t, StateAnonymous, session.State())
		assert.True(t, session.NeedsFreshCaptcha())
	})

	t.Run("good credentials authenticate and persist the snapshot", func(t *testing.T) {
		user, err := session.Login(context.Background(), "alice", "secret-password-1", "captcha-def")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, StateAuthenticated, session.State())
		assert.False(t, session.NeedsFreshCaptcha())

		access, err := store.Get(AccessTokenKey)
		require.NoError(t, err)
		assert.Equal(t, "good-access", access)

		role, err := store.Get(RoleKey)
		require.NoError(t, err)
		assert.Equal(t, "RESEARCHER", role)
	})
}

func TestLogoutAlwaysClearsCredentials(t *testing.T) {
	// A server whose logout endpoint always fails
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, false, nil, "database down")
	}))
	t.Cleanup(server.Close)

	session, store := newTestSession(t, server)
	seedSnapshot(t, store, "good-access", "good-refresh", "RESEARCHER")
	session.Restore()

	err := session.Logout(context.Background())
	require.Error(t, err)

	// A failed revocation never leaves the client logged in
	assert.Equal(t, StateAnonymous, session.State())
	assert.Nil(t, session.User())

	for _, key := range []string{AccessTokenKey, RefreshTokenKey, RoleKey} {
		_, getErr := store.Get(key)
		assert.ErrorIs(t, getErr, ErrKeyNotFound, key)
	}
}

func TestReset(t *testing.T) {
	session, store := newTestSession(t, newAuthServer(t))

	_, err := session.Login(context.Background(), "alice", "secret-password-1", "")
	require.NoError(t, err)

	session.Reset()

	assert.Equal(t, StateUninitialized, session.State())
	assert.False(t, session.Loaded())
	assert.Nil(t, session.User())

	_, getErr := store.Get(AccessTokenKey)
	assert.ErrorIs(t, getErr, ErrKeyNotFound)
}

func TestPasswordResetFlowStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/password-reset", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, nil, "")
	})
	mux.HandleFunc("/auth/password-reset/confirm", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Token != "valid-reset-token" {
			writeEnvelope(w, http.StatusBadRequest, false, nil, "invalid token")
			return
		}
		writeEnvelope(w, http.StatusOK, true, nil, "")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	session, store := newTestSession(t, server)
	seedSnapshot(t, store, "good-access", "good-refresh", "RESEARCHER")

	assert.Equal(t, FlowIdle, session.PasswordResetStatus())

	require.NoError(t, session.RequestPasswordReset(context.Background(), "alice@university.edu"))
	assert.Equal(t, FlowSucceeded, session.PasswordResetStatus())

	t.Run("bad token fails the flow", func(t *testing.T) {
		err := session.ConfirmPasswordReset(context.Background(), "bad-token", "brand-new-password")
		require.Error(t, err)
		assert.Equal(t, FlowFailed, session.PasswordResetStatus())
	})

	t.Run("success drops the session to anonymous", func(t *testing.T) {
		err := session.ConfirmPasswordReset(context.Background(), "valid-reset-token", "brand-new-password")
		require.NoError(t, err)
		assert.Equal(t, FlowSucceeded, session.PasswordResetStatus())

		// Every server session was revoked, so stored credentials are dead
		assert.Equal(t, StateAnonymous, session.State())
		_, getErr := store.Get(AccessTokenKey)
		assert.ErrorIs(t, getErr, ErrKeyNotFound)
	})
}

func TestEmailVerificationFlowStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/verify-email/confirm", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, nil, "")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	session, _ := newTestSession(t, server)
	session.state = StateAuthenticated
	session.user = &User{ID: 7, Username: "alice"}
	session.loaded = true

	assert.Equal(t, FlowIdle, session.EmailVerificationStatus())

	require.NoError(t, session.ConfirmEmailVerification(context.Background(), "verify-token"))

	assert.Equal(t, FlowSucceeded, session.EmailVerificationStatus())
	assert.True(t, session.User().EmailVerified)
}
