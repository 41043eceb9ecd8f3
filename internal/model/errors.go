package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores and the cache when the requested
	// row or key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoSession is returned by the auth gateway when no session is
	// currently stored or the stored session could not be refreshed.
	ErrNoSession = errors.New("no active session")

	// ErrFullNameRequired rejects a profile save before any remote call.
	ErrFullNameRequired = errors.New("full name is required")

	// ErrUserMismatch aborts a profile load when the remote session does
	// not belong to the requested user.
	ErrUserMismatch = errors.New("authenticated user does not match requested user")

	// ErrMissingAPIToken is returned by the conversation launcher when no
	// video API token has been stored.
	ErrMissingAPIToken = errors.New("video API token is not set")
)

// LocalSaveError reports that a profile save failed remotely but the data
// was written to the local cache. Callers must surface it differently from
// a clean success.
type LocalSaveError struct {
	Err error
}

func (e *LocalSaveError) Error() string {
	return fmt.Sprintf("saved locally only: %v", e.Err)
}

func (e *LocalSaveError) Unwrap() error {
	return e.Err
}

// AuthErrorCategory classifies a remote auth failure.
type AuthErrorCategory string

const (
	AuthErrEmailTaken         AuthErrorCategory = "email_taken"
	AuthErrInvalidCredentials AuthErrorCategory = "invalid_credentials"
	AuthErrUnconfirmed        AuthErrorCategory = "unconfirmed_account"
	AuthErrRateLimited        AuthErrorCategory = "rate_limited"
	AuthErrNetwork            AuthErrorCategory = "network"
	AuthErrUnavailable        AuthErrorCategory = "service_unavailable"
	AuthErrUnknown            AuthErrorCategory = "unknown"
)

// AuthError is a classified remote auth failure with a stable user-facing
// message. The raw cause is kept for logging only.
type AuthError struct {
	Category AuthErrorCategory
	Message  string
	Err      error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
