package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/npezzotti/go-dating-chat/internal/database"
	"github.com/npezzotti/go-dating-chat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func Test_getRooms(t *testing.T) {
	createdAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mockRepo := &database.MockRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("ListRooms", mock.Anything).Return([]database.Room{
		{Id: 1, Name: "lobby", Description: "say hi", CreatedAt: createdAt},
		{Id: 2, Name: "hiking", CreatedAt: createdAt},
	}, nil).Once()

	app := newTestApp(t, mockRepo, nil)
	rr := httptest.NewRecorder()
	app.getRooms(rr, authedRequest(http.MethodGet, "/api/rooms", nil, 1))

	assert.Equal(t, http.StatusOK, rr.Code)
	var rooms []types.Room
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&rooms))
	assert.Equal(t, []types.Room{
		{Id: 1, Name: "lobby", Description: "say hi", CreatedAt: createdAt},
		{Id: 2, Name: "hiking", CreatedAt: createdAt},
	}, rooms)
}

func Test_createRoom(t *testing.T) {
	mockRoom := database.Room{
		Id:          3,
		Name:        "movies",
		Description: "film talk",
		CreatedAt:   time.Now().UTC(),
	}

	tcases := []struct {
		name        string
		body        any
		expectDb    bool
		mockErr     error
		expectedErr *ApiError
	}{
		{
			name:     "creates the room",
			body:     CreateRoomRequest{Name: " movies ", Description: "film talk"},
			expectDb: true,
		},
		{
			name:        "invalid json",
			body:        "nope",
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "missing name",
			body:        CreateRoomRequest{Name: "   "},
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "duplicate name",
			body:        CreateRoomRequest{Name: "movies", Description: "film talk"},
			expectDb:    true,
			mockErr:     database.ErrConflict,
			expectedErr: NewConflictError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.expectDb {
				mockRepo.On("CreateRoom", mock.Anything, database.CreateRoomParams{
					Name:        "movies",
					Description: "film talk",
				}).Return(mockRoom, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo, nil)
			rr := httptest.NewRecorder()
			app.createRoom(rr, authedRequest(http.MethodPost, "/api/rooms", jsonBody(t, tc.body), 1))

			if tc.expectedErr != nil {
				assertApiError(t, rr, tc.expectedErr)
				return
			}

			assert.Equal(t, http.StatusCreated, rr.Code)
			var room types.Room
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&room))
			assert.Equal(t, mockRoom.Wire(), room)
		})
	}
}

func Test_getRoomMessages(t *testing.T) {
	msgs := []database.Message{
		{Id: 1, RoomId: 1, UserId: 2, Username: "bob", Content: "first", Type: "text", CreatedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{Id: 2, RoomId: 1, UserId: 3, Username: "carol", Content: "http://x/cat.png", Type: "image", CreatedAt: time.Date(2024, 1, 1, 10, 1, 0, 0, time.UTC)},
	}

	tcases := []struct {
		name         string
		roomId       string
		mockRoomErr  error
		expectRoom   bool
		expectList   bool
		expectedCode int
	}{
		{name: "returns history", roomId: "1", expectRoom: true, expectList: true, expectedCode: http.StatusOK},
		{name: "invalid id", roomId: "x", expectedCode: http.StatusBadRequest},
		{name: "unknown room", roomId: "1", expectRoom: true, mockRoomErr: database.ErrNotFound, expectedCode: http.StatusNotFound},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.expectRoom {
				mockRepo.On("GetRoom", mock.Anything, 1).Return(database.Room{Id: 1, Name: "lobby"}, tc.mockRoomErr).Once()
			}
			if tc.expectList {
				mockRepo.On("GetRoomMessages", mock.Anything, 1, roomHistoryLimit).Return(msgs, nil).Once()
			}

			app := newTestApp(t, mockRepo, nil)
			rr := httptest.NewRecorder()
			app.getRoomMessages(rr, withPathId(authedRequest(http.MethodGet, "/api/rooms/"+tc.roomId+"/messages", nil, 1), tc.roomId))

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode != http.StatusOK {
				return
			}

			var got []types.Message
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
			assert.Equal(t, []types.Message{msgs[0].Wire(), msgs[1].Wire()}, got)
		})
	}
}

func Test_getConversations(t *testing.T) {
	last := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	mockRepo := &database.MockRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("ListConversations", mock.Anything, 1).Return([]database.Conversation{
		{Id: 5, Name: "1_2", PartnerId: 2, PartnerUsername: "bob", LastMessage: "see you", LastMessageType: "text", LastMessageTime: &last},
		{Id: 6, Name: "1_3", PartnerId: 3, PartnerUsername: "carol"},
	}, nil).Once()

	app := newTestApp(t, mockRepo, nil)
	rr := httptest.NewRecorder()
	app.getConversations(rr, authedRequest(http.MethodGet, "/api/conversations", nil, 1))

	assert.Equal(t, http.StatusOK, rr.Code)
	var convs []types.Conversation
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&convs))
	require.Len(t, convs, 2)
	assert.Equal(t, types.UserSummary{Id: 2, Username: "bob"}, convs[0].Partner)
	assert.Equal(t, "see you", convs[0].LastMessage)
	assert.Nil(t, convs[1].LastMessageTime, "expected no preview for an empty conversation")
}

func Test_createConversation(t *testing.T) {
	partner := database.User{Id: 2, Username: "bob"}
	conversation := database.Conversation{Id: 5, Name: "1_2", PartnerId: 2, PartnerUsername: "bob"}
	dbErr := errors.New("db error")

	tcases := []struct {
		name        string
		body        any
		setup       func(db *database.MockRepository)
		expectedErr *ApiError
	}{
		{
			name: "resolves the conversation",
			body: CreateConversationRequest{PartnerId: 2},
			setup: func(db *database.MockRepository) {
				db.On("GetAccountById", mock.Anything, 2).Return(partner, nil).Once()
				db.On("IsBlocked", mock.Anything, 1, 2).Return(false, nil).Once()
				db.On("ResolveOrCreateConversation", mock.Anything, 1, 2).Return(5, nil).Once()
				db.On("GetConversation", mock.Anything, 5, 1).Return(conversation, nil).Once()
			},
		},
		{
			name:        "missing partner",
			body:        CreateConversationRequest{},
			setup:       func(db *database.MockRepository) {},
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "self",
			body:        CreateConversationRequest{PartnerId: 1},
			setup:       func(db *database.MockRepository) {},
			expectedErr: NewBadRequestError(),
		},
		{
			name: "unknown partner",
			body: CreateConversationRequest{PartnerId: 2},
			setup: func(db *database.MockRepository) {
				db.On("GetAccountById", mock.Anything, 2).Return(database.User{}, database.ErrNotFound).Once()
			},
			expectedErr: NewNotFoundError(),
		},
		{
			name: "banned partner",
			body: CreateConversationRequest{PartnerId: 2},
			setup: func(db *database.MockRepository) {
				db.On("GetAccountById", mock.Anything, 2).Return(database.User{Id: 2, Banned: true}, nil).Once()
			},
			expectedErr: NewNotFoundError(),
		},
		{
			name: "blocked",
			body: CreateConversationRequest{PartnerId: 2},
			setup: func(db *database.MockRepository) {
				db.On("GetAccountById", mock.Anything, 2).Return(partner, nil).Once()
				db.On("IsBlocked", mock.Anything, 1, 2).Return(true, nil).Once()
			},
			expectedErr: NewForbiddenError(),
		},
		{
			name: "resolve fails",
			body: CreateConversationRequest{PartnerId: 2},
			setup: func(db *database.MockRepository) {
				db.On("GetAccountById", mock.Anything, 2).Return(partner, nil).Once()
				db.On("IsBlocked", mock.Anything, 1, 2).Return(false, nil).Once()
				db.On("ResolveOrCreateConversation", mock.Anything, 1, 2).Return(0, dbErr).Once()
			},
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockRepository{}
			defer mockRepo.AssertExpectations(t)
			tc.setup(mockRepo)

			app := newTestApp(t, mockRepo, nil)
			rr := httptest.NewRecorder()
			app.createConversation(rr, authedRequest(http.MethodPost, "/api/conversations", jsonBody(t, tc.body), 1))

			if tc.expectedErr != nil {
				assertApiError(t, rr, tc.expectedErr)
				return
			}

			assert.Equal(t, http.StatusOK, rr.Code)
			var c types.Conversation
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&c))
			assert.Equal(t, conversation.Wire(), c)
		})
	}
}

func Test_getPrivateMessages(t *testing.T) {
	msgs := []database.PrivateMessage{
		{Id: 9, ConversationId: 5, UserId: 2, Username: "bob", Content: "hey", Type: "text", CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
	}

	tcases := []struct {
		name           string
		conversationId string
		setup          func(db *database.MockRepository)
		expectedCode   int
	}{
		{
			name:           "participant",
			conversationId: "5",
			setup: func(db *database.MockRepository) {
				db.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
				db.On("GetPrivateMessages", mock.Anything, 5, conversationHistoryLimit).Return(msgs, nil).Once()
			},
			expectedCode: http.StatusOK,
		},
		{
			name:           "not a participant",
			conversationId: "5",
			setup: func(db *database.MockRepository) {
				db.On("IsParticipant", mock.Anything, 5, 1).Return(false, nil).Once()
			},
			expectedCode: http.StatusForbidden,
		},
		{
			name:           "unknown conversation",
			conversationId: "5",
			setup: func(db *database.MockRepository) {
				db.On("IsParticipant", mock.Anything, 5, 1).Return(false, database.ErrNotFound).Once()
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:           "participant check fails",
			conversationId: "5",
			setup: func(db *database.MockRepository) {
				db.On("IsParticipant", mock.Anything, 5, 1).Return(false, errors.New("db error")).Once()
			},
			expectedCode: http.StatusInternalServerError,
		},
		{
			name:           "invalid id",
			conversationId: "-3",
			setup:          func(db *database.MockRepository) {},
			expectedCode:   http.StatusBadRequest,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockRepository{}
			defer mockRepo.AssertExpectations(t)
			tc.setup(mockRepo)

			app := newTestApp(t, mockRepo, nil)
			rr := httptest.NewRecorder()
			req := withPathId(authedRequest(http.MethodGet, "/api/conversations/"+tc.conversationId+"/messages", nil, 1), tc.conversationId)
			app.getPrivateMessages(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode != http.StatusOK {
				return
			}

			var got []types.PrivateMessage
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
			assert.Equal(t, []types.PrivateMessage{msgs[0].Wire()}, got)
		})
	}
}
