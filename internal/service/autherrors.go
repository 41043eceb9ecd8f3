package service

import (
	"fmt"
	"strings"

	"github.com/parley-app/parley/internal/model"
)

// authErrorRule matches a remote error message against known substrings.
// Rules are checked in order; the first hit wins.
type authErrorRule struct {
	substrings []string
	category   model.AuthErrorCategory
	message    string
}

var authErrorRules = []authErrorRule{
	{
		substrings: []string{"already registered", "already exists", "already been registered"},
		category:   model.AuthErrEmailTaken,
		message:    "An account with this email already exists. Try signing in instead.",
	},
	{
		substrings: []string{"invalid login credentials", "invalid credentials", "invalid email or password"},
		category:   model.AuthErrInvalidCredentials,
		message:    "Incorrect email or password.",
	},
	{
		substrings: []string{"email not confirmed", "not confirmed"},
		category:   model.AuthErrUnconfirmed,
		message:    "Please confirm your email address before signing in.",
	},
	{
		substrings: []string{"too many requests", "rate limit", "429"},
		category:   model.AuthErrRateLimited,
		message:    "Too many attempts. Please wait a moment and try again.",
	},
	{
		substrings: []string{"connection refused", "no such host", "timeout", "deadline exceeded", "network"},
		category:   model.AuthErrNetwork,
		message:    "Unable to reach the server. Check your connection and try again.",
	},
	{
		substrings: []string{"service unavailable", "bad gateway", "503", "502"},
		category:   model.AuthErrUnavailable,
		message:    "The service is temporarily unavailable. Please try again shortly.",
	},
}

// ClassifyAuthError maps a remote auth failure onto a stable user-facing
// message. Unclassified errors fall back to a generic "<operation> failed".
func ClassifyAuthError(operation string, err error) *model.AuthError {
	msg := strings.ToLower(err.Error())

	for _, rule := range authErrorRules {
		for _, sub := range rule.substrings {
			if strings.Contains(msg, sub) {
				return &model.AuthError{Category: rule.category, Message: rule.message, Err: err}
			}
		}
	}

	return &model.AuthError{
		Category: model.AuthErrUnknown,
		Message:  fmt.Sprintf("%s failed", operation),
		Err:      err,
	}
}
