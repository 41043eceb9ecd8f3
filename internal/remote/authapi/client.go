package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parley-app/parley/internal/logger"
	"github.com/parley-app/parley/internal/model"
	"github.com/parley-app/parley/internal/token"
)

// refreshSkew refreshes access tokens slightly before their expiry.
const refreshSkew = 30 * time.Second

var _ model.AuthGateway = (*Client)(nil)

// Client talks to the hosted auth service over HTTP and implements
// model.AuthGateway. The issued session is persisted in the local cache so
// it survives restarts; expired access tokens are refreshed transparently.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   model.Cache
	tokens  *token.Parser
	logger  *logger.Logger

	mu        sync.Mutex
	session   *model.AuthSession
	listeners map[int]model.SessionListener
	nextID    int
}

// NewClient creates an auth service client persisting sessions in cache.
func NewClient(baseURL, apiKey string, tokens *token.Parser, cache model.Cache, logger *logger.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: 30 * time.Second},
		cache:     cache,
		tokens:    tokens,
		logger:    logger,
		listeners: make(map[int]model.SessionListener),
	}
}

type sessionPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorPayload struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	Message     string `json:"msg"`
}

func (p sessionPayload) toSession() (model.AuthSession, error) {
	userID, err := uuid.Parse(p.User.ID)
	if err != nil {
		return model.AuthSession{}, fmt.Errorf("failed to parse user id: %w", err)
	}

	expiresAt := time.Unix(p.ExpiresAt, 0)
	if p.ExpiresAt == 0 && p.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(p.ExpiresIn) * time.Second)
	}

	return model.AuthSession{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         model.AuthUser{ID: userID, Email: p.User.Email},
	}, nil
}

// OnSessionChange registers a session listener and returns its unsubscribe.
func (c *Client) OnSessionChange(fn model.SessionListener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Client) notify(event model.AuthEvent, session model.AuthSession) {
	c.mu.Lock()
	fns := make([]model.SessionListener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

// GetSession returns the current session, loading it from the cache when
// needed and refreshing an expired access token. A failed refresh clears
// the stored session and reports a sign-out.
func (c *Client) GetSession(ctx context.Context) (model.AuthSession, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		stored, err := c.loadStoredSession(ctx)
		if err != nil {
			return model.AuthSession{}, err
		}
		session = &stored
		c.mu.Lock()
		c.session = session
		c.mu.Unlock()
	}

	if c.tokens.Expired(session.AccessToken, refreshSkew) {
		refreshed, err := c.RefreshSession(ctx)
		if err != nil {
			return model.AuthSession{}, fmt.Errorf("failed to refresh expired session: %w", err)
		}
		return refreshed, nil
	}

	return *session, nil
}

func (c *Client) loadStoredSession(ctx context.Context) (model.AuthSession, error) {
	raw, err := c.cache.GetItem(ctx, model.CacheKeyAuthSession)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.AuthSession{}, model.ErrNoSession
		}
		return model.AuthSession{}, fmt.Errorf("failed to read stored session: %w", err)
	}

	var payload sessionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return model.AuthSession{}, fmt.Errorf("failed to decode stored session: %w", err)
	}

	return payload.toSession()
}

func (c *Client) storeSession(ctx context.Context, session model.AuthSession) {
	payload := sessionPayload{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt.Unix(),
	}
	payload.User.ID = session.User.ID.String()
	payload.User.Email = session.User.Email

	raw, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("Auth client: failed to encode session for cache", "error", err.Error())
		return
	}
	if err := c.cache.SetItem(ctx, model.CacheKeyAuthSession, string(raw)); err != nil {
		c.logger.Error("Auth client: failed to persist session", "error", err.Error())
	}

	c.mu.Lock()
	c.session = &session
	c.mu.Unlock()
}

func (c *Client) clearSession(ctx context.Context) {
	if err := c.cache.RemoveItem(ctx, model.CacheKeyAuthSession); err != nil {
		c.logger.Error("Auth client: failed to remove stored session", "error", err.Error())
	}

	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// SignUp registers a new account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string, attrs model.UserAttributes) (model.AuthSession, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}
	if attrs.FullName != "" {
		body["data"] = map[string]string{"full_name": attrs.FullName}
	}

	var payload sessionPayload
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &payload); err != nil {
		return model.AuthSession{}, err
	}

	session, err := payload.toSession()
	if err != nil {
		return model.AuthSession{}, err
	}

	c.storeSession(ctx, session)
	c.notify(model.AuthEventSignedIn, session)

	return session, nil
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (model.AuthSession, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}

	var payload sessionPayload
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &payload); err != nil {
		return model.AuthSession{}, err
	}

	session, err := payload.toSession()
	if err != nil {
		return model.AuthSession{}, err
	}

	c.storeSession(ctx, session)
	c.notify(model.AuthEventSignedIn, session)

	return session, nil
}

// SignOut revokes the session remotely and clears the stored one. The
// stored session is cleared even when the remote call fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	accessToken := ""
	if session != nil {
		accessToken = session.AccessToken
	}

	c.clearSession(ctx)
	c.notify(model.AuthEventSignedOut, model.AuthSession{})

	if accessToken == "" {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

// RefreshSession exchanges the refresh token for a new session. On failure
// the stored session is cleared and a sign-out is reported.
func (c *Client) RefreshSession(ctx context.Context) (model.AuthSession, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil || session.RefreshToken == "" {
		return model.AuthSession{}, model.ErrNoSession
	}

	body := map[string]any{"refresh_token": session.RefreshToken}

	var payload sessionPayload
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &payload); err != nil {
		c.logger.Info("Auth client: session refresh failed, clearing stored session",
			"error", err.Error())
		c.clearSession(ctx)
		c.notify(model.AuthEventSignedOut, model.AuthSession{})
		return model.AuthSession{}, model.ErrNoSession
	}

	refreshed, err := payload.toSession()
	if err != nil {
		return model.AuthSession{}, err
	}

	c.storeSession(ctx, refreshed)
	c.notify(model.AuthEventTokenRefreshed, refreshed)

	return refreshed, nil
}

// ResetPasswordForEmail requests a password recovery email.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	return c.do(ctx, http.MethodPost, path, "", map[string]any{"email": email}, nil)
}

// UpdateUser updates mutable account fields of the signed-in user.
func (c *Client) UpdateUser(ctx context.Context, update model.UserUpdate) (model.AuthUser, error) {
	session, err := c.GetSession(ctx)
	if err != nil {
		return model.AuthUser{}, err
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	body := map[string]any{"password": update.Password}
	if err := c.do(ctx, http.MethodPut, "/auth/v1/user", session.AccessToken, body, &payload); err != nil {
		return model.AuthUser{}, err
	}

	userID, err := uuid.Parse(payload.ID)
	if err != nil {
		return model.AuthUser{}, fmt.Errorf("failed to parse user id: %w", err)
	}
	user := model.AuthUser{ID: userID, Email: payload.Email}

	session.User = user
	c.storeSession(ctx, session)
	c.notify(model.AuthEventUserUpdated, session)

	return user, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err == nil {
		msg := payload.Message
		if msg == "" {
			msg = payload.Description
		}
		if msg == "" {
			msg = payload.Error
		}
		if msg != "" {
			return fmt.Errorf("auth service error (%d): %s", resp.StatusCode, msg)
		}
	}

	return fmt.Errorf("auth service error (%d): %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
