package model

import (
	"context"
	"time"
)

// VideoAPI is the capability surface of the conversational-video service.
type VideoAPI interface {
	CreateConversation(ctx context.Context, apiToken string, req ConversationRequest) (Conversation, error)
	EndConversation(ctx context.Context, apiToken, conversationID string) error
}

// Conversation is the descriptor returned by the conversational-video API
// for a launched persona call.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	Status    string    `json:"status"`
	URL       string    `json:"conversation_url"`
	ReplicaID string    `json:"replica_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationRequest describes the persona call to launch.
type ConversationRequest struct {
	PersonaID             string `json:"persona_id"`
	CustomGreeting        string `json:"custom_greeting,omitempty"`
	ConversationalContext string `json:"conversational_context,omitempty"`
}
