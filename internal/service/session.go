package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/parley-app/parley/internal/logger"
	"github.com/parley-app/parley/internal/model"
)

// backgroundTimeout bounds fire-and-forget side effects spawned by the
// session manager.
const backgroundTimeout = 30 * time.Second

// Auth owns the in-memory Session and keeps it consistent with the hosted
// auth service. It is the only writer of the Session; the profile
// synchronizer reads the user id but never mutates auth state.
type Auth struct {
	auth        model.AuthGateway
	profiles    *ProfileSync
	store       model.ProfileStore
	logger      *logger.Logger
	initTimeout time.Duration

	mu      sync.Mutex
	current model.Session

	wg sync.WaitGroup
}

func NewAuth(
	auth model.AuthGateway,
	profiles *ProfileSync,
	store model.ProfileStore,
	logger *logger.Logger,
	initTimeout time.Duration,
) *Auth {
	return &Auth{
		auth:        auth,
		profiles:    profiles,
		store:       store,
		logger:      logger,
		initTimeout: initTimeout,
		current:     model.Session{IsLoading: true},
	}
}

// Current returns a copy of the in-memory session.
func (a *Auth) Current() model.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Initialize queries the auth service for an existing session. The loading
// flag is always cleared, bounded by the configured timeout, so the UI's
// loading indicator cannot hang on a remote error.
func (a *Auth) Initialize(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.initTimeout)
	defer cancel()
	defer a.setLoading(false)

	session, err := a.auth.GetSession(ctx)
	if err != nil {
		if !errors.Is(err, model.ErrNoSession) {
			a.logger.Error("Session manager: failed to restore session",
				"error", err.Error())
		}
		return
	}

	a.setUser(session.User)

	a.spawn("initial profile load", func(ctx context.Context) error {
		return a.profiles.Load(ctx, session.User.ID)
	})
}

// HandleSessionChange applies a session change reported by the auth
// service. State is taken from the event payload, never re-fetched.
func (a *Auth) HandleSessionChange(event model.AuthEvent, session model.AuthSession) {
	switch event {
	case model.AuthEventSignedIn:
		a.setUser(session.User)
		a.spawnSignInEffects(session.User)
	case model.AuthEventTokenRefreshed, model.AuthEventUserUpdated:
		a.setUser(session.User)
	case model.AuthEventSignedOut:
		a.clearLocalState()
	default:
		a.logger.Debug("Session manager: ignoring unknown session event",
			"event", string(event))
	}
}

// SignUp registers a new account. On success the session is updated
// synchronously from the returned session rather than waiting for the
// event callback.
func (a *Auth) SignUp(ctx context.Context, email, password, fullName string) (model.AuthUser, error) {
	session, err := a.auth.SignUp(ctx, email, password, model.UserAttributes{FullName: fullName})
	if err != nil {
		authErr := ClassifyAuthError("sign up", err)
		a.logger.Info("Session manager: sign up failed",
			"email", email,
			"category", string(authErr.Category),
			"error", err.Error())
		return model.AuthUser{}, authErr
	}

	a.setUser(session.User)
	a.spawnSignInEffects(session.User)

	return session.User, nil
}

// SignIn exchanges credentials for a session, updating local state
// synchronously on success.
func (a *Auth) SignIn(ctx context.Context, email, password string) (model.AuthUser, error) {
	session, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		authErr := ClassifyAuthError("sign in", err)
		a.logger.Info("Session manager: sign in failed",
			"email", email,
			"category", string(authErr.Category),
			"error", err.Error())
		return model.AuthUser{}, authErr
	}

	a.setUser(session.User)
	a.spawnSignInEffects(session.User)

	return session.User, nil
}

// SignOut clears local state before the remote call resolves, so the UI
// reflects the logged-out state immediately. A remote failure is logged
// and never rolled back.
func (a *Auth) SignOut(ctx context.Context) {
	a.clearLocalState()

	if err := a.auth.SignOut(ctx); err != nil {
		a.logger.Error("Session manager: remote sign out failed",
			"error", err.Error())
	}
}

// UpdatePassword changes the signed-in user's password.
func (a *Auth) UpdatePassword(ctx context.Context, password string) error {
	if _, err := a.auth.UpdateUser(ctx, model.UserUpdate{Password: password}); err != nil {
		return ClassifyAuthError("password update", err)
	}
	return nil
}

// ResetPassword requests a password recovery email. No state mutation.
func (a *Auth) ResetPassword(ctx context.Context, email, redirectTo string) error {
	if err := a.auth.ResetPasswordForEmail(ctx, email, redirectTo); err != nil {
		return ClassifyAuthError("password reset", err)
	}
	return nil
}

// Wait blocks until spawned background tasks finish. Used on shutdown and
// in tests.
func (a *Auth) Wait() {
	a.wg.Wait()
}

func (a *Auth) setUser(user model.AuthUser) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current.UserID = user.ID
	a.current.Email = user.Email
	a.current.IsAuthenticated = true
}

func (a *Auth) setLoading(loading bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current.IsLoading = loading
}

func (a *Auth) clearLocalState() {
	a.mu.Lock()
	a.current = model.Session{}
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()
	a.profiles.Reset(ctx)
}

// spawnSignInEffects triggers the profile load and the best-effort minimal
// profile-row creation for a freshly signed-in user. Failures are logged,
// never surfaced.
func (a *Auth) spawnSignInEffects(user model.AuthUser) {
	a.spawn("profile load", func(ctx context.Context) error {
		return a.profiles.Load(ctx, user.ID)
	})
	a.spawn("profile row creation", func(ctx context.Context) error {
		return a.store.EnsureRow(ctx, user.ID, user.Email)
	})
}

// spawn runs a fire-and-forget background task with its own timeout and
// error channel: failures and panics are logged, never propagated.
func (a *Auth) spawn(name string, fn func(ctx context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("Session manager: background task panicked",
					"task", name,
					"panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			a.logger.Error("Session manager: background task failed",
				"task", name,
				"error", err.Error())
		}
	}()
}
