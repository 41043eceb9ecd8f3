// Package mocks provides testify mocks for the model interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/parley-app/parley/internal/model"
)

var _ model.AuthGateway = (*AuthGateway)(nil)

type AuthGateway struct {
	mock.Mock
}

func (m *AuthGateway) GetSession(ctx context.Context) (model.AuthSession, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.AuthSession), args.Error(1)
}

func (m *AuthGateway) OnSessionChange(fn model.SessionListener) func() {
	args := m.Called(fn)
	return args.Get(0).(func())
}

func (m *AuthGateway) SignUp(ctx context.Context, email, password string, attrs model.UserAttributes) (model.AuthSession, error) {
	args := m.Called(ctx, email, password, attrs)
	return args.Get(0).(model.AuthSession), args.Error(1)
}

func (m *AuthGateway) SignIn(ctx context.Context, email, password string) (model.AuthSession, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(model.AuthSession), args.Error(1)
}

func (m *AuthGateway) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *AuthGateway) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	args := m.Called(ctx, email, redirectTo)
	return args.Error(0)
}

func (m *AuthGateway) UpdateUser(ctx context.Context, update model.UserUpdate) (model.AuthUser, error) {
	args := m.Called(ctx, update)
	return args.Get(0).(model.AuthUser), args.Error(1)
}

func (m *AuthGateway) RefreshSession(ctx context.Context) (model.AuthSession, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.AuthSession), args.Error(1)
}

var _ model.ProfileStore = (*ProfileStore)(nil)

type ProfileStore struct {
	mock.Mock
}

func (m *ProfileStore) GetByUserID(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Profile), args.Error(1)
}

func (m *ProfileStore) Upsert(ctx context.Context, profile model.Profile) (model.Profile, error) {
	args := m.Called(ctx, profile)
	return args.Get(0).(model.Profile), args.Error(1)
}

func (m *ProfileStore) EnsureRow(ctx context.Context, userID uuid.UUID, email string) error {
	args := m.Called(ctx, userID, email)
	return args.Error(0)
}

var _ model.InterestStore = (*InterestStore)(nil)

type InterestStore struct {
	mock.Mock
}

func (m *InterestStore) ListByUserID(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	var interests []string
	if v := args.Get(0); v != nil {
		interests = v.([]string)
	}
	return interests, args.Error(1)
}

func (m *InterestStore) ReplaceForUser(ctx context.Context, userID uuid.UUID, interests []string) error {
	args := m.Called(ctx, userID, interests)
	return args.Error(0)
}

var _ model.VideoAPI = (*VideoAPI)(nil)

type VideoAPI struct {
	mock.Mock
}

func (m *VideoAPI) CreateConversation(ctx context.Context, apiToken string, req model.ConversationRequest) (model.Conversation, error) {
	args := m.Called(ctx, apiToken, req)
	return args.Get(0).(model.Conversation), args.Error(1)
}

func (m *VideoAPI) EndConversation(ctx context.Context, apiToken, conversationID string) error {
	args := m.Called(ctx, apiToken, conversationID)
	return args.Error(0)
}

var _ model.Cache = (*Cache)(nil)

type Cache struct {
	mock.Mock
}

func (m *Cache) GetItem(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *Cache) SetItem(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *Cache) RemoveItem(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
