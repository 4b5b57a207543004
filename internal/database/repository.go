package database

import "context"

// Repository is the persistence gateway used by the API and the realtime
// gateway.
type Repository interface {
	Ping(ctx context.Context) error

	CreateAccount(ctx context.Context, params CreateAccountParams) (User, error)
	GetAccountById(ctx context.Context, id int) (User, error)
	GetAccountByEmail(ctx context.Context, email string) (User, error)
	UpdateProfile(ctx context.Context, params UpdateProfileParams) (User, error)
	UpdateAvatar(ctx context.Context, userId int, avatar string) error
	SearchAccounts(ctx context.Context, userId int, keyword string) ([]User, error)
	BanAccount(ctx context.Context, userId int) error

	BlockUser(ctx context.Context, blockerId, blockedId int) error
	UnblockUser(ctx context.Context, blockerId, blockedId int) error
	ListBlockedUsers(ctx context.Context, blockerId int) ([]User, error)
	IsBlocked(ctx context.Context, userA, userB int) (bool, error)

	AddFavorite(ctx context.Context, userId, favoriteUserId int) error
	RemoveFavorite(ctx context.Context, userId, favoriteUserId int) error
	ListFavorites(ctx context.Context, userId int) ([]User, error)
	FavoriteStatus(ctx context.Context, userId int, ids []int) (map[int]bool, error)

	ListRooms(ctx context.Context) ([]Room, error)
	CreateRoom(ctx context.Context, params CreateRoomParams) (Room, error)
	GetRoom(ctx context.Context, id int) (Room, error)
	CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error)
	GetRoomMessages(ctx context.Context, roomId, limit int) ([]Message, error)

	ResolveOrCreateConversation(ctx context.Context, userA, userB int) (int, error)
	GetConversation(ctx context.Context, conversationId, userId int) (Conversation, error)
	ListConversations(ctx context.Context, userId int) ([]Conversation, error)
	IsParticipant(ctx context.Context, conversationId, userId int) (bool, error)
	CreatePrivateMessage(ctx context.Context, params CreatePrivateMessageParams) (int, error)
	UpdateConversationPreview(ctx context.Context, conversationId int, preview, msgType string) error
	GetPrivateMessageWithAuthor(ctx context.Context, id int) (PrivateMessage, error)
	GetPrivateMessages(ctx context.Context, conversationId, limit int) ([]PrivateMessage, error)

	CreateReport(ctx context.Context, params CreateReportParams) error
	ListPendingReports(ctx context.Context) ([]Report, error)
}
