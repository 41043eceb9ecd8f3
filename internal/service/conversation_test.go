package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/parley-app/parley/internal/mocks"
	"github.com/parley-app/parley/internal/model"
	"github.com/parley-app/parley/internal/testutil"
)

func TestLauncher_Launch_MissingToken(t *testing.T) {
	ctx := context.Background()
	video := &mocks.VideoAPI{}

	l := NewLauncher(video, testutil.NewMemoryCache(), testutil.MakeNoopLogger())

	_, err := l.Launch(ctx, model.ConversationRequest{PersonaID: "p1"})
	require.ErrorIs(t, err, model.ErrMissingAPIToken)
	video.AssertNotCalled(t, "CreateConversation", mock.Anything, mock.Anything, mock.Anything)
}

func TestLauncher_Launch_StoresDescriptor(t *testing.T) {
	ctx := context.Background()
	video := &mocks.VideoAPI{}
	cache := testutil.NewMemoryCache()

	conversation := model.Conversation{
		ID:        "c-123",
		Status:    "active",
		URL:       "https://call.example.com/c-123",
		ReplicaID: "r-1",
		CreatedAt: time.Now().Truncate(time.Second),
	}
	req := model.ConversationRequest{PersonaID: "p1", CustomGreeting: "hello"}
	video.On("CreateConversation", mock.Anything, "tok-123", req).Return(conversation, nil)

	l := NewLauncher(video, cache, testutil.MakeNoopLogger())
	require.NoError(t, l.SetAPIToken(ctx, "tok-123"))

	got, err := l.Launch(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, conversation.ID, got.ID)
	assert.Equal(t, conversation.URL, got.URL)

	last, err := l.LastConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, conversation.ID, last.ID)
}

func TestLauncher_Launch_APIFailure(t *testing.T) {
	ctx := context.Background()
	video := &mocks.VideoAPI{}
	cache := testutil.NewMemoryCache()

	video.On("CreateConversation", mock.Anything, mock.Anything, mock.Anything).
		Return(model.Conversation{}, errors.New("invalid persona"))

	l := NewLauncher(video, cache, testutil.MakeNoopLogger())
	require.NoError(t, l.SetAPIToken(ctx, "tok-123"))

	_, err := l.Launch(ctx, model.ConversationRequest{PersonaID: "bogus"})
	require.Error(t, err)

	_, err = l.LastConversation(ctx)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLauncher_End(t *testing.T) {
	ctx := context.Background()
	video := &mocks.VideoAPI{}
	cache := testutil.NewMemoryCache()

	video.On("EndConversation", mock.Anything, "tok-123", "c-123").Return(nil)

	l := NewLauncher(video, cache, testutil.MakeNoopLogger())
	require.NoError(t, l.SetAPIToken(ctx, "tok-123"))

	require.NoError(t, l.End(ctx, "c-123"))
	video.AssertCalled(t, "EndConversation", mock.Anything, "tok-123", "c-123")
}
