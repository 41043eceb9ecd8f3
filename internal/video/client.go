package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/parley-app/parley/internal/model"
)

var _ model.VideoAPI = (*Client)(nil)

// Client talks to the conversational-video HTTP API. The bearer token is
// supplied per call; it is the user's own credential, not a session token.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateConversation launches a persona conversation and returns its
// descriptor.
func (c *Client) CreateConversation(ctx context.Context, apiToken string, req model.ConversationRequest) (model.Conversation, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return model.Conversation{}, fmt.Errorf("failed to encode conversation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/conversations", bytes.NewReader(raw))
	if err != nil {
		return model.Conversation{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiToken)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return model.Conversation{}, fmt.Errorf("video API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Conversation{}, apiError(resp)
	}

	var conversation model.Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conversation); err != nil {
		return model.Conversation{}, fmt.Errorf("failed to decode conversation: %w", err)
	}

	return conversation, nil
}

// EndConversation terminates an active conversation.
func (c *Client) EndConversation(ctx context.Context, apiToken, conversationID string) error {
	url := fmt.Sprintf("%s/conversations/%s/end", c.baseURL, conversationID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", apiToken)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("video API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	return nil
}

func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		msg := payload.Message
		if msg == "" {
			msg = payload.Error
		}
		if msg != "" {
			return fmt.Errorf("video API error (%d): %s", resp.StatusCode, msg)
		}
	}

	return fmt.Errorf("video API error (%d): %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
