package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/npezzotti/go-dating-chat/internal/database"
	"github.com/npezzotti/go-dating-chat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func withPathId(req *http.Request, id string) *http.Request {
	req.SetPathValue("id", id)
	return req
}

func Test_updateProfile(t *testing.T) {
	curUser := database.User{
		Id:           1,
		Username:     "alice",
		EmailAddress: "alice@example.com",
		Avatar:       "http://localhost:8000/uploads/alice_x1.png",
	}

	tcases := []struct {
		name           string
		userId         int
		body           any
		mockGetErr     error
		expectUpdate   bool
		expectedParams database.UpdateProfileParams
		mockUpdateErr  error
		expectedErr    *ApiError
	}{
		{
			name:   "keeps the avatar when omitted",
			userId: 1,
			body: UpdateProfileRequest{
				Age:                31,
				Gender:             "female",
				Interests:          "climbing, jazz",
				RelationshipIntent: "serious",
				Location:           "Lyon",
			},
			expectUpdate: true,
			expectedParams: database.UpdateProfileParams{
				UserId:             1,
				Age:                31,
				Gender:             "female",
				Interests:          "climbing, jazz",
				RelationshipIntent: "serious",
				Location:           "Lyon",
				Avatar:             curUser.Avatar,
			},
		},
		{
			name:   "replaces the avatar",
			userId: 1,
			body: UpdateProfileRequest{
				Age:    31,
				Avatar: "http://cdn.example.com/a.png",
			},
			expectUpdate: true,
			expectedParams: database.UpdateProfileParams{
				UserId: 1,
				Age:    31,
				Avatar: "http://cdn.example.com/a.png",
			},
		},
		{
			name:        "unauthorized",
			userId:      0,
			body:        UpdateProfileRequest{},
			expectedErr: NewUnauthorizedError(),
		},
		{
			name:        "invalid json",
			userId:      1,
			body:        "{",
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "negative age",
			userId:      1,
			body:        UpdateProfileRequest{Age: -1},
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "user not found",
			userId:      1,
			body:        UpdateProfileRequest{Age: 30},
			mockGetErr:  database.ErrNotFound,
			expectedErr: NewNotFoundError(),
		},
		{
			name:         "db error on update",
			userId:       1,
			body:         UpdateProfileRequest{Age: 30},
			expectUpdate: true,
			expectedParams: database.UpdateProfileParams{
				UserId: 1,
				Age:    30,
				Avatar: curUser.Avatar,
			},
			mockUpdateErr: errors.New("db error"),
			expectedErr:   NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.expectUpdate || tc.mockGetErr != nil {
				mockRepo.On("GetAccountById", mock.Anything, tc.userId).Return(curUser, tc.mockGetErr).Once()
			}

			updated := curUser
			if tc.expectUpdate {
				updated.Age = tc.expectedParams.Age
				updated.Gender = tc.expectedParams.Gender
				updated.Interests = tc.expectedParams.Interests
				updated.RelationshipIntent = tc.expectedParams.RelationshipIntent
				updated.Location = tc.expectedParams.Location
				updated.Avatar = tc.expectedParams.Avatar
				mockRepo.On("UpdateProfile", mock.Anything, tc.expectedParams).Return(updated, tc.mockUpdateErr).Once()
			}

			app := newTestApp(t, mockRepo, newTestChatServer(t, mockRepo))
			rr := httptest.NewRecorder()
			app.updateProfile(rr, authedRequest(http.MethodPut, "/api/users/profile", jsonBody(t, tc.body), tc.userId))

			if tc.expectedErr != nil {
				assertApiError(t, rr, tc.expectedErr)
				return
			}

			assert.Equal(t, http.StatusOK, rr.Code)
			var u types.User
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
			assert.Equal(t, updated.Profile(), u)
		})
	}
}

func Test_searchUsers(t *testing.T) {
	found := []database.User{
		{Id: 2, Username: "bob", EmailAddress: "bob@example.com", Role: types.RoleUser, Age: 33},
		{Id: 3, Username: "bobby", EmailAddress: "bobby@example.com", Role: types.RoleAdmin},
	}

	t.Run("returns public profiles", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("SearchAccounts", mock.Anything, 1, "bob").Return(found, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.searchUsers(rr, authedRequest(http.MethodGet, "/api/users/search?keyword=+bob+", nil, 1))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "@example.com", "expected emails to be hidden")

		var users []types.User
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&users))
		assert.Equal(t, []types.User{
			{Id: 2, Username: "bob", Age: 33},
			{Id: 3, Username: "bobby"},
		}, users)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("SearchAccounts", mock.Anything, 1, "").Return([]database.User(nil), nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.searchUsers(rr, authedRequest(http.MethodGet, "/api/users/search", nil, 1))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})

	t.Run("db error", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("SearchAccounts", mock.Anything, 1, "bob").Return([]database.User(nil), errors.New("db error")).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.searchUsers(rr, authedRequest(http.MethodGet, "/api/users/search?keyword=bob", nil, 1))

		assertApiError(t, rr, NewInternalServerError(nil))
	})
}

func Test_getBlockedUsers(t *testing.T) {
	mockRepo := &database.MockRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("ListBlockedUsers", mock.Anything, 1).Return([]database.User{
		{Id: 4, Username: "mallory", EmailAddress: "m@example.com", Avatar: "http://x/m.png"},
	}, nil).Once()

	app := newTestApp(t, mockRepo, nil)
	rr := httptest.NewRecorder()
	app.getBlockedUsers(rr, authedRequest(http.MethodGet, "/api/users/blocked", nil, 1))

	assert.Equal(t, http.StatusOK, rr.Code)
	var users []types.UserSummary
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&users))
	assert.Equal(t, []types.UserSummary{{Id: 4, Username: "mallory", Avatar: "http://x/m.png"}}, users)
}

func Test_blockUser(t *testing.T) {
	tcases := []struct {
		name         string
		userId       int
		targetId     string
		expectDb     bool
		mockErr      error
		expectedCode int
	}{
		{name: "blocks", userId: 1, targetId: "2", expectDb: true, expectedCode: http.StatusCreated},
		{name: "already blocked is fine", userId: 1, targetId: "2", expectDb: true, expectedCode: http.StatusCreated},
		{name: "self", userId: 1, targetId: "1", expectedCode: http.StatusBadRequest},
		{name: "invalid id", userId: 1, targetId: "abc", expectedCode: http.StatusBadRequest},
		{name: "zero id", userId: 1, targetId: "0", expectedCode: http.StatusBadRequest},
		{name: "unknown user", userId: 1, targetId: "99", expectDb: true, mockErr: database.ErrNotFound, expectedCode: http.StatusNotFound},
		{name: "db error", userId: 1, targetId: "2", expectDb: true, mockErr: errors.New("db error"), expectedCode: http.StatusInternalServerError},
		{name: "unauthorized", userId: 0, targetId: "2", expectedCode: http.StatusUnauthorized},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.expectDb {
				mockRepo.On("BlockUser", mock.Anything, tc.userId, mock.AnythingOfType("int")).Return(tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo, nil)
			req := withPathId(authedRequest(http.MethodPost, "/api/users/block/"+tc.targetId, nil, tc.userId), tc.targetId)
			rr := httptest.NewRecorder()
			app.blockUser(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}

func Test_unblockUser(t *testing.T) {
	mockRepo := &database.MockRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("UnblockUser", mock.Anything, 1, 2).Return(nil).Once()

	app := newTestApp(t, mockRepo, nil)
	req := withPathId(authedRequest(http.MethodDelete, "/api/users/unblock/2", nil, 1), "2")
	rr := httptest.NewRecorder()
	app.unblockUser(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp MessageResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "user unblocked", resp.Message)
}

func Test_favorites(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("AddFavorite", mock.Anything, 1, 2).Return(nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.addFavorite(rr, withPathId(authedRequest(http.MethodPost, "/api/favorites/2", nil, 1), "2"))

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("add self", func(t *testing.T) {
		app := newTestApp(t, &database.MockRepository{}, nil)
		rr := httptest.NewRecorder()
		app.addFavorite(rr, withPathId(authedRequest(http.MethodPost, "/api/favorites/1", nil, 1), "1"))

		assertApiError(t, rr, NewBadRequestError())
	})

	t.Run("remove", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("RemoveFavorite", mock.Anything, 1, 2).Return(nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.removeFavorite(rr, withPathId(authedRequest(http.MethodDelete, "/api/favorites/2", nil, 1), "2"))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("list", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("ListFavorites", mock.Anything, 1).Return([]database.User{
			{Id: 2, Username: "bob", EmailAddress: "bob@example.com", Gender: "male"},
		}, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.getFavorites(rr, authedRequest(http.MethodGet, "/api/favorites", nil, 1))

		assert.Equal(t, http.StatusOK, rr.Code)
		var users []types.User
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&users))
		assert.Equal(t, []types.User{{Id: 2, Username: "bob", Gender: "male"}}, users)
	})
}

func Test_favoriteStatus(t *testing.T) {
	tcases := []struct {
		name         string
		body         any
		expectDb     bool
		mockStatus   map[int]bool
		mockErr      error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "reports each id",
			body:         FavoriteStatusRequest{UserIds: []int{2, 3}},
			expectDb:     true,
			mockStatus:   map[int]bool{2: true, 3: false},
			expectedCode: http.StatusOK,
			expectedBody: `{"2": true, "3": false}`,
		},
		{
			name:         "no ids",
			body:         FavoriteStatusRequest{},
			expectedCode: http.StatusOK,
			expectedBody: `{}`,
		},
		{
			name:         "invalid json",
			body:         "[",
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "db error",
			body:         FavoriteStatusRequest{UserIds: []int{2}},
			expectDb:     true,
			mockErr:      errors.New("db error"),
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.expectDb {
				req := tc.body.(FavoriteStatusRequest)
				mockRepo.On("FavoriteStatus", mock.Anything, 1, req.UserIds).Return(tc.mockStatus, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo, nil)
			rr := httptest.NewRecorder()
			app.favoriteStatus(rr, authedRequest(http.MethodPost, "/api/favorites/status", jsonBody(t, tc.body), 1))

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}
