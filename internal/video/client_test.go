package video

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-app/parley/internal/model"
)

func TestClient_CreateConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/conversations", r.URL.Path)
		require.Equal(t, "tok-123", r.Header.Get("x-api-key"))

		var req model.ConversationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "p1", req.PersonaID)
		assert.Equal(t, "hello there", req.CustomGreeting)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"conversation_id":  "c-123",
			"status":           "active",
			"conversation_url": "https://call.example.com/c-123",
			"replica_id":       "r-1",
			"created_at":       "2026-08-30T12:00:00Z",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	conversation, err := c.CreateConversation(context.Background(), "tok-123", model.ConversationRequest{
		PersonaID:      "p1",
		CustomGreeting: "hello there",
	})
	require.NoError(t, err)

	assert.Equal(t, "c-123", conversation.ID)
	assert.Equal(t, "active", conversation.Status)
	assert.Equal(t, "https://call.example.com/c-123", conversation.URL)
	assert.Equal(t, "r-1", conversation.ReplicaID)
	assert.Equal(t, 2026, conversation.CreatedAt.Year())
}

func TestClient_CreateConversation_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid api key"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateConversation(context.Background(), "bad-token", model.ConversationRequest{PersonaID: "p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
	assert.Contains(t, err.Error(), "401")
}

func TestClient_EndConversation(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Equal(t, "/conversations/c-123/end", r.URL.Path)
		require.Equal(t, "tok-123", r.Header.Get("x-api-key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.EndConversation(context.Background(), "tok-123", "c-123"))
	assert.True(t, called)
}

func TestClient_EndConversation_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.EndConversation(context.Background(), "tok-123", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
