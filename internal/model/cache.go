package model

import (
	"context"

	"github.com/google/uuid"
)

// Fixed cache keys. The video API token and UI settings live outside the
// session lifecycle: sign-out must not touch them.
const (
	CacheKeyVideoAPIToken = "video_api_token"
	CacheKeyUISettings    = "ui_settings"
	CacheKeyAuthSession   = "auth_session"
	CacheKeyLastUserID    = "last_user_id"
	CacheKeyConversation  = "last_conversation"
)

const profileKeyPrefix = "profile:"

// ProfileCacheKey returns the cache key for a user's profile snapshot.
// Entries are namespaced by user id so switching accounts on one device
// cannot surface another user's cached profile. Edits made before any user
// is known go under the "local" namespace.
func ProfileCacheKey(userID uuid.UUID) string {
	if userID == uuid.Nil {
		return profileKeyPrefix + "local"
	}
	return profileKeyPrefix + userID.String()
}

// Cache is the durable local key-value store. Values survive restarts on
// this device only.
type Cache interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
