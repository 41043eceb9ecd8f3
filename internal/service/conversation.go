package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/parley-app/parley/internal/logger"
	"github.com/parley-app/parley/internal/model"
)

// Launcher turns a persona selection plus the stored bearer token into a
// conversation on the video API, keeping the resulting descriptor in the
// local cache.
type Launcher struct {
	video  model.VideoAPI
	cache  model.Cache
	logger *logger.Logger
}

func NewLauncher(video model.VideoAPI, cache model.Cache, logger *logger.Logger) *Launcher {
	return &Launcher{
		video:  video,
		cache:  cache,
		logger: logger,
	}
}

// SetAPIToken stores the user-supplied video API token. It lives outside
// the session lifecycle and survives sign-out.
func (l *Launcher) SetAPIToken(ctx context.Context, token string) error {
	if err := l.cache.SetItem(ctx, model.CacheKeyVideoAPIToken, token); err != nil {
		return fmt.Errorf("failed to store video API token: %w", err)
	}
	return nil
}

// Launch creates a conversation for the given persona request.
func (l *Launcher) Launch(ctx context.Context, req model.ConversationRequest) (model.Conversation, error) {
	token, err := l.cache.GetItem(ctx, model.CacheKeyVideoAPIToken)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Conversation{}, model.ErrMissingAPIToken
		}
		return model.Conversation{}, fmt.Errorf("failed to read video API token: %w", err)
	}

	conversation, err := l.video.CreateConversation(ctx, token, req)
	if err != nil {
		return model.Conversation{}, fmt.Errorf("failed to create conversation: %w", err)
	}

	if raw, marshalErr := json.Marshal(conversation); marshalErr == nil {
		if cacheErr := l.cache.SetItem(ctx, model.CacheKeyConversation, string(raw)); cacheErr != nil {
			l.logger.Error("Launcher: failed to cache conversation descriptor",
				"conversation_id", conversation.ID,
				"error", cacheErr.Error())
		}
	}

	l.logger.Info("Launcher: conversation created",
		"conversation_id", conversation.ID,
		"persona_id", req.PersonaID)

	return conversation, nil
}

// End terminates a conversation previously launched with the stored token.
func (l *Launcher) End(ctx context.Context, conversationID string) error {
	token, err := l.cache.GetItem(ctx, model.CacheKeyVideoAPIToken)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrMissingAPIToken
		}
		return fmt.Errorf("failed to read video API token: %w", err)
	}

	if err := l.video.EndConversation(ctx, token, conversationID); err != nil {
		return fmt.Errorf("failed to end conversation: %w", err)
	}

	return nil
}

// LastConversation returns the cached descriptor of the most recent launch.
func (l *Launcher) LastConversation(ctx context.Context) (model.Conversation, error) {
	raw, err := l.cache.GetItem(ctx, model.CacheKeyConversation)
	if err != nil {
		return model.Conversation{}, err
	}

	var conversation model.Conversation
	if err := json.Unmarshal([]byte(raw), &conversation); err != nil {
		return model.Conversation{}, fmt.Errorf("failed to decode cached conversation: %w", err)
	}

	return conversation, nil
}
