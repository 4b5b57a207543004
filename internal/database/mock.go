package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountById(ctx context.Context, id int) (User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) UpdateProfile(ctx context.Context, params UpdateProfileParams) (User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) UpdateAvatar(ctx context.Context, userId int, avatar string) error {
	args := m.Called(ctx, userId, avatar)
	return args.Error(0)
}
func (m *MockRepository) SearchAccounts(ctx context.Context, userId int, keyword string) ([]User, error) {
	args := m.Called(ctx, userId, keyword)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockRepository) BanAccount(ctx context.Context, userId int) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}
func (m *MockRepository) BlockUser(ctx context.Context, blockerId, blockedId int) error {
	args := m.Called(ctx, blockerId, blockedId)
	return args.Error(0)
}
func (m *MockRepository) UnblockUser(ctx context.Context, blockerId, blockedId int) error {
	args := m.Called(ctx, blockerId, blockedId)
	return args.Error(0)
}
func (m *MockRepository) ListBlockedUsers(ctx context.Context, blockerId int) ([]User, error) {
	args := m.Called(ctx, blockerId)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockRepository) IsBlocked(ctx context.Context, userA, userB int) (bool, error) {
	args := m.Called(ctx, userA, userB)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) AddFavorite(ctx context.Context, userId, favoriteUserId int) error {
	args := m.Called(ctx, userId, favoriteUserId)
	return args.Error(0)
}
func (m *MockRepository) RemoveFavorite(ctx context.Context, userId, favoriteUserId int) error {
	args := m.Called(ctx, userId, favoriteUserId)
	return args.Error(0)
}
func (m *MockRepository) ListFavorites(ctx context.Context, userId int) ([]User, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockRepository) FavoriteStatus(ctx context.Context, userId int, ids []int) (map[int]bool, error) {
	args := m.Called(ctx, userId, ids)
	if status, ok := args.Get(0).(map[int]bool); ok {
		return status, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) ListRooms(ctx context.Context) ([]Room, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockRepository) CreateRoom(ctx context.Context, params CreateRoomParams) (Room, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockRepository) GetRoom(ctx context.Context, id int) (Room, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockRepository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) GetRoomMessages(ctx context.Context, roomId, limit int) ([]Message, error) {
	args := m.Called(ctx, roomId, limit)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockRepository) ResolveOrCreateConversation(ctx context.Context, userA, userB int) (int, error) {
	args := m.Called(ctx, userA, userB)
	return args.Int(0), args.Error(1)
}
func (m *MockRepository) GetConversation(ctx context.Context, conversationId, userId int) (Conversation, error) {
	args := m.Called(ctx, conversationId, userId)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockRepository) ListConversations(ctx context.Context, userId int) ([]Conversation, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]Conversation), args.Error(1)
}
func (m *MockRepository) IsParticipant(ctx context.Context, conversationId, userId int) (bool, error) {
	args := m.Called(ctx, conversationId, userId)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) CreatePrivateMessage(ctx context.Context, params CreatePrivateMessageParams) (int, error) {
	args := m.Called(ctx, params)
	return args.Int(0), args.Error(1)
}
func (m *MockRepository) UpdateConversationPreview(ctx context.Context, conversationId int, preview, msgType string) error {
	args := m.Called(ctx, conversationId, preview, msgType)
	return args.Error(0)
}
func (m *MockRepository) GetPrivateMessageWithAuthor(ctx context.Context, id int) (PrivateMessage, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(PrivateMessage), args.Error(1)
}
func (m *MockRepository) GetPrivateMessages(ctx context.Context, conversationId, limit int) ([]PrivateMessage, error) {
	args := m.Called(ctx, conversationId, limit)
	return args.Get(0).([]PrivateMessage), args.Error(1)
}
func (m *MockRepository) CreateReport(ctx context.Context, params CreateReportParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
func (m *MockRepository) ListPendingReports(ctx context.Context) ([]Report, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Report), args.Error(1)
}
