package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/parley-app/parley/internal/logger"
	"github.com/parley-app/parley/internal/model"
)

// ProfileSync keeps the in-memory profile consistent with the remote row
// store, mirroring every state into the local cache as a durable fallback.
// Remote writes happen only via Save; Update is local-only.
type ProfileSync struct {
	auth      model.AuthGateway
	store     model.ProfileStore
	interests model.InterestStore
	cache     model.Cache
	logger    *logger.Logger

	flight singleflight.Group

	mu      sync.Mutex
	profile model.Profile
	loaded  bool
	userID  uuid.UUID
}

func NewProfileSync(
	auth model.AuthGateway,
	store model.ProfileStore,
	interests model.InterestStore,
	cache model.Cache,
	logger *logger.Logger,
) *ProfileSync {
	return &ProfileSync{
		auth:      auth,
		store:     store,
		interests: interests,
		cache:     cache,
		logger:    logger,
	}
}

// Current returns a copy of the in-memory profile.
func (s *ProfileSync) Current() model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile := s.profile
	profile.Interests = append([]string(nil), s.profile.Interests...)
	return profile
}

// Loaded reports whether a remote load (or save) has completed for the
// current user.
func (s *ProfileSync) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Seed restores the last cached profile snapshot into memory so the UI has
// renderable data before any remote load completes. A later successful
// load always overwrites it.
func (s *ProfileSync) Seed(ctx context.Context) {
	key := model.ProfileCacheKey(uuid.Nil)

	if raw, err := s.cache.GetItem(ctx, model.CacheKeyLastUserID); err == nil {
		if userID, parseErr := uuid.Parse(raw); parseErr == nil {
			key = model.ProfileCacheKey(userID)
		}
	}

	raw, err := s.cache.GetItem(ctx, key)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.logger.Error("Profile sync: failed to read cached profile",
				"key", key,
				"error", err.Error())
		}
		return
	}

	var cached model.Profile
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		s.logger.Error("Profile sync: failed to decode cached profile",
			"key", key,
			"error", err.Error())
		return
	}

	s.mu.Lock()
	s.profile = cached
	s.userID = cached.UserID
	s.mu.Unlock()
}

// Load fetches the remote profile row for userID. It is a no-op once a
// load or save has succeeded, and concurrent calls for the same user share
// a single round trip. Any failure leaves the in-memory and cached profile
// untouched and the load retryable.
func (s *ProfileSync) Load(ctx context.Context, userID uuid.UUID) error {
	if s.Loaded() {
		return nil
	}

	_, err, _ := s.flight.Do(userID.String(), func() (any, error) {
		if s.Loaded() {
			return nil, nil
		}

		// Stale-session guard: the remote session must belong to the
		// requested user, or the load aborts without marking loaded.
		session, err := s.auth.GetSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to verify remote session: %w", err)
		}
		if session.User.ID != userID {
			return nil, model.ErrUserMismatch
		}

		remote, err := s.store.GetByUserID(ctx, userID)
		if errors.Is(err, model.ErrNotFound) {
			// New user: keep the default profile, but stop refetching.
			s.markLoaded(userID)
			s.rememberUser(ctx, userID)
			s.logger.Info("Profile sync: no remote profile row, keeping defaults",
				"user_id", userID)
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}

		interests, err := s.interests.ListByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load interests: %w", err)
		}
		remote.Interests = interests

		s.mu.Lock()
		s.profile = remote
		s.loaded = true
		s.userID = userID
		s.mu.Unlock()

		s.mirror(ctx, remote)
		s.rememberUser(ctx, userID)

		s.logger.Debug("Profile sync: profile loaded from remote",
			"user_id", userID)
		return nil, nil
	})

	return err
}

// Save validates and upserts the in-memory profile for userID, then
// replaces the interests relation. On any remote failure the profile is
// written to the local cache and the distinct local-only error is
// returned; this path never looks like a clean success.
func (s *ProfileSync) Save(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	profile := s.profile
	profile.Interests = append([]string(nil), s.profile.Interests...)
	s.mu.Unlock()

	if strings.TrimSpace(profile.FullName) == "" {
		return model.ErrFullNameRequired
	}

	profile.UserID = userID
	profile.UpdatedAt = time.Now()

	saved, err := s.store.Upsert(ctx, profile)
	if err == nil {
		// Interests replace is ordered after the upsert so the profile
		// row exists first.
		err = s.interests.ReplaceForUser(ctx, userID, profile.Interests)
	}
	if err != nil {
		s.logger.Error("Profile sync: remote save failed, keeping local copy",
			"user_id", userID,
			"error", err.Error())

		s.mu.Lock()
		s.profile.UserID = userID
		s.profile.UpdatedAt = profile.UpdatedAt
		local := s.profile
		local.Interests = append([]string(nil), s.profile.Interests...)
		s.mu.Unlock()

		s.mirror(ctx, local)
		return &model.LocalSaveError{Err: err}
	}

	saved.Interests = profile.Interests

	s.mu.Lock()
	s.profile = saved
	s.loaded = true
	s.userID = userID
	s.mu.Unlock()

	s.mirror(ctx, saved)
	s.rememberUser(ctx, userID)

	s.logger.Info("Profile sync: profile saved",
		"user_id", userID)
	return nil
}

// Update merges a partial update into the in-memory profile and mirrors
// the result to the local cache synchronously. The remote store is never
// called here; remote sync happens only via Save.
func (s *ProfileSync) Update(ctx context.Context, update model.ProfileUpdate) {
	s.mu.Lock()
	update.Apply(&s.profile)
	if s.userID != uuid.Nil {
		s.profile.UserID = s.userID
	}
	merged := s.profile
	merged.Interests = append([]string(nil), s.profile.Interests...)
	s.mu.Unlock()

	s.mirror(ctx, merged)
}

// Reset clears the loaded gate, removes the cached profile entry and
// restores the empty default profile. The video API token is deliberately
// left untouched: it is a separate credential for a separate service.
func (s *ProfileSync) Reset(ctx context.Context) {
	s.mu.Lock()
	userID := s.userID
	s.profile = model.Profile{}
	s.loaded = false
	s.userID = uuid.Nil
	s.mu.Unlock()

	if err := s.cache.RemoveItem(ctx, model.ProfileCacheKey(userID)); err != nil {
		s.logger.Error("Profile sync: failed to remove cached profile",
			"error", err.Error())
	}
	if err := s.cache.RemoveItem(ctx, model.CacheKeyLastUserID); err != nil {
		s.logger.Error("Profile sync: failed to remove last user pointer",
			"error", err.Error())
	}
}

func (s *ProfileSync) markLoaded(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.userID = userID
}

func (s *ProfileSync) mirror(ctx context.Context, profile model.Profile) {
	raw, err := json.Marshal(profile)
	if err != nil {
		s.logger.Error("Profile sync: failed to encode profile for cache",
			"error", err.Error())
		return
	}

	key := model.ProfileCacheKey(profile.UserID)
	if err := s.cache.SetItem(ctx, key, string(raw)); err != nil {
		s.logger.Error("Profile sync: failed to mirror profile to cache",
			"key", key,
			"error", err.Error())
	}
}

func (s *ProfileSync) rememberUser(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.SetItem(ctx, model.CacheKeyLastUserID, userID.String()); err != nil {
		s.logger.Error("Profile sync: failed to record last user",
			"error", err.Error())
	}
}
