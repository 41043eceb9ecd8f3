package authapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-app/parley/internal/model"
	"github.com/parley-app/parley/internal/token"
	"github.com/parley-app/parley/internal/testutil"
)

const testSecret = "testsecret"

func signAccessToken(t *testing.T, userID uuid.UUID, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func sessionBody(t *testing.T, userID uuid.UUID, accessToken, refreshToken string) map[string]any {
	t.Helper()
	return map[string]any{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_at":    time.Now().Add(time.Hour).Unix(),
		"user": map[string]string{
			"id":    userID.String(),
			"email": "a@b.com",
		},
	}
}

func newTestClient(t *testing.T, baseURL string, cache model.Cache) *Client {
	t.Helper()
	return NewClient(baseURL, "anon-key", token.NewParser(testSecret), cache, testutil.MakeNoopLogger())
}

func TestClient_SignIn(t *testing.T) {
	userID := uuid.New()
	access := signAccessToken(t, userID, time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, "swordfish", body["password"])

		_ = json.NewEncoder(w).Encode(sessionBody(t, userID, access, "refresh-1"))
	}))
	defer srv.Close()

	cache := testutil.NewMemoryCache()
	c := newTestClient(t, srv.URL, cache)

	var events []model.AuthEvent
	unsubscribe := c.OnSessionChange(func(event model.AuthEvent, _ model.AuthSession) {
		events = append(events, event)
	})
	defer unsubscribe()

	session, err := c.SignIn(context.Background(), "a@b.com", "swordfish")
	require.NoError(t, err)
	assert.Equal(t, userID, session.User.ID)
	assert.Equal(t, "a@b.com", session.User.Email)
	assert.Equal(t, []model.AuthEvent{model.AuthEventSignedIn}, events)

	// persisted for restart recovery
	assert.True(t, cache.Has(model.CacheKeyAuthSession))

	// subsequent GetSession serves from memory, no extra round trip
	got, err := c.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.AccessToken, got.AccessToken)
}

func TestClient_SignIn_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"msg": "Invalid login credentials"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testutil.NewMemoryCache())

	_, err := c.SignIn(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid login credentials")
}

func TestClient_GetSession_RestoresFromCache(t *testing.T) {
	userID := uuid.New()
	access := signAccessToken(t, userID, time.Hour)
	cache := testutil.NewMemoryCache()

	stored, err := json.Marshal(sessionBody(t, userID, access, "refresh-1"))
	require.NoError(t, err)
	require.NoError(t, cache.SetItem(context.Background(), model.CacheKeyAuthSession, string(stored)))

	c := newTestClient(t, "http://unreachable.invalid", cache)

	session, err := c.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, userID, session.User.ID)
}

func TestClient_GetSession_NoSession(t *testing.T) {
	c := newTestClient(t, "http://unreachable.invalid", testutil.NewMemoryCache())

	_, err := c.GetSession(context.Background())
	require.ErrorIs(t, err, model.ErrNoSession)
}

func TestClient_GetSession_RefreshesExpiredToken(t *testing.T) {
	userID := uuid.New()
	expired := signAccessToken(t, userID, -time.Minute)
	fresh := signAccessToken(t, userID, time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body["refresh_token"])

		_ = json.NewEncoder(w).Encode(sessionBody(t, userID, fresh, "refresh-2"))
	}))
	defer srv.Close()

	cache := testutil.NewMemoryCache()
	stored, err := json.Marshal(sessionBody(t, userID, expired, "refresh-1"))
	require.NoError(t, err)
	require.NoError(t, cache.SetItem(context.Background(), model.CacheKeyAuthSession, string(stored)))

	c := newTestClient(t, srv.URL, cache)

	var events []model.AuthEvent
	defer c.OnSessionChange(func(event model.AuthEvent, _ model.AuthSession) {
		events = append(events, event)
	})()

	session, err := c.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, session.AccessToken)
	assert.Equal(t, "refresh-2", session.RefreshToken)
	assert.Equal(t, []model.AuthEvent{model.AuthEventTokenRefreshed}, events)
}

func TestClient_GetSession_RefreshFailureSignsOut(t *testing.T) {
	userID := uuid.New()
	expired := signAccessToken(t, userID, -time.Minute)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"msg": "Invalid Refresh Token"})
	}))
	defer srv.Close()

	cache := testutil.NewMemoryCache()
	stored, err := json.Marshal(sessionBody(t, userID, expired, "refresh-1"))
	require.NoError(t, err)
	require.NoError(t, cache.SetItem(context.Background(), model.CacheKeyAuthSession, string(stored)))

	c := newTestClient(t, srv.URL, cache)

	var events []model.AuthEvent
	defer c.OnSessionChange(func(event model.AuthEvent, _ model.AuthSession) {
		events = append(events, event)
	})()

	_, err = c.GetSession(context.Background())
	require.ErrorIs(t, err, model.ErrNoSession)
	assert.Equal(t, []model.AuthEvent{model.AuthEventSignedOut}, events)
	assert.False(t, cache.Has(model.CacheKeyAuthSession))
}

func TestClient_SignOut_ClearsSessionEvenOnRemoteFailure(t *testing.T) {
	userID := uuid.New()
	access := signAccessToken(t, userID, time.Hour)

	var logoutCalled bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/logout" {
			logoutCalled = true
			require.Equal(t, "Bearer "+access, r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(sessionBody(t, userID, access, "refresh-1"))
	}))
	defer srv.Close()

	cache := testutil.NewMemoryCache()
	c := newTestClient(t, srv.URL, cache)

	_, err := c.SignIn(context.Background(), "a@b.com", "swordfish")
	require.NoError(t, err)

	err = c.SignOut(context.Background())
	require.Error(t, err)
	assert.True(t, logoutCalled)

	// stored session is gone regardless of the remote failure
	assert.False(t, cache.Has(model.CacheKeyAuthSession))
	_, err = c.GetSession(context.Background())
	require.ErrorIs(t, err, model.ErrNoSession)
}

func TestClient_ResetPasswordForEmail(t *testing.T) {
	var gotRedirect string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/recover", r.URL.Path)
		gotRedirect = r.URL.Query().Get("redirect_to")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testutil.NewMemoryCache())

	require.NoError(t, c.ResetPasswordForEmail(context.Background(), "a@b.com", "https://app/reset"))
	assert.Equal(t, "https://app/reset", gotRedirect)
}

func TestClient_OnSessionChange_Unsubscribe(t *testing.T) {
	userID := uuid.New()
	access := signAccessToken(t, userID, time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sessionBody(t, userID, access, "refresh-1"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testutil.NewMemoryCache())

	var calls int
	unsubscribe := c.OnSessionChange(func(model.AuthEvent, model.AuthSession) {
		calls++
	})

	_, err := c.SignIn(context.Background(), "a@b.com", "swordfish")
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	unsubscribe()

	_, err = c.SignIn(context.Background(), "a@b.com", "swordfish")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
