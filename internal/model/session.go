package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuthEvent identifies a session change reported by the auth service.
type AuthEvent string

const (
	AuthEventSignedIn       AuthEvent = "SIGNED_IN"
	AuthEventSignedOut      AuthEvent = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	AuthEventUserUpdated    AuthEvent = "USER_UPDATED"
)

// AuthUser is the identity the auth service reports for a session.
type AuthUser struct {
	ID    uuid.UUID
	Email string
}

// AuthSession is an issued session: tokens plus the user they belong to.
type AuthSession struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         AuthUser
}

// UserAttributes carries optional metadata submitted at sign-up.
type UserAttributes struct {
	FullName string
}

// UserUpdate carries mutable account fields.
type UserUpdate struct {
	Password string
}

// SessionListener receives session change notifications from the gateway.
type SessionListener func(event AuthEvent, session AuthSession)

// AuthGateway is the capability surface of the hosted auth service.
type AuthGateway interface {
	GetSession(ctx context.Context) (AuthSession, error)
	OnSessionChange(fn SessionListener) (unsubscribe func())
	SignUp(ctx context.Context, email, password string, attrs UserAttributes) (AuthSession, error)
	SignIn(ctx context.Context, email, password string) (AuthSession, error)
	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdateUser(ctx context.Context, update UserUpdate) (AuthUser, error)
	RefreshSession(ctx context.Context) (AuthSession, error)
}

// Session is the in-memory authentication state the UI reads.
type Session struct {
	UserID          uuid.UUID
	Email           string
	IsAuthenticated bool
	IsLoading       bool
}
