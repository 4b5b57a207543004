package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/npezzotti/go-dating-chat/internal/database"
	"github.com/npezzotti/go-dating-chat/internal/types"
)

type UpdateProfileRequest struct {
	Age                int    `json:"age"`
	Gender             string `json:"gender"`
	Interests          string `json:"interests"`
	RelationshipIntent string `json:"relationship_intent"`
	Location           string `json:"location"`
	Avatar             string `json:"avatar"`
}

type ProfilePictureResponse struct {
	ProfilePictureUrl string `json:"profilePictureUrl"`
}

type FavoriteStatusRequest struct {
	UserIds []int `json:"userIds"`
}

// publicProfiles strips private fields from accounts listed to other users.
func publicProfiles(users []database.User) []types.User {
	profiles := make([]types.User, 0, len(users))
	for _, u := range users {
		p := u.Profile()
		p.EmailAddress = ""
		p.Role = ""
		profiles = append(profiles, p)
	}
	return profiles
}

func (s *GoChatApp) getProfile(w http.ResponseWriter, r *http.Request) {
	s.session(w, r)
}

func (s *GoChatApp) updateProfile(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Age < 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	curUser, err := s.db.GetAccountById(r.Context(), userId)
	if err != nil {
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	avatar := strings.TrimSpace(req.Avatar)
	if avatar == "" {
		avatar = curUser.Avatar
	}

	dbUser, err := s.db.UpdateProfile(r.Context(), database.UpdateProfileParams{
		UserId:             curUser.Id,
		Age:                req.Age,
		Gender:             req.Gender,
		Interests:          req.Interests,
		RelationshipIntent: req.RelationshipIntent,
		Location:           req.Location,
		Avatar:             avatar,
	})
	if err != nil {
		s.log.Println("update profile:", err)
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if dbUser.Avatar != curUser.Avatar {
		s.cs.UpdateUser(dbUser.Summary())
	}

	s.writeJson(w, http.StatusOK, dbUser.Profile())
}

func (s *GoChatApp) updateProfilePicture(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	f, ok := s.receiveUpload(w, r)
	if !ok {
		return
	}

	if err := s.db.UpdateAvatar(r.Context(), userId, f.URL); err != nil {
		s.log.Println("update avatar:", err)
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(r.Context(), userId)
	if err != nil {
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	s.cs.UpdateUser(user.Summary())

	s.writeJson(w, http.StatusOK, ProfilePictureResponse{ProfilePictureUrl: f.URL})
}

func (s *GoChatApp) searchUsers(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))

	users, err := s.db.SearchAccounts(r.Context(), userId, keyword)
	if err != nil {
		s.log.Println("search accounts:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, publicProfiles(users))
}

func (s *GoChatApp) getBlockedUsers(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	users, err := s.db.ListBlockedUsers(r.Context(), userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	blocked := make([]types.UserSummary, 0, len(users))
	for _, u := range users {
		blocked = append(blocked, u.Summary())
	}

	s.writeJson(w, http.StatusOK, blocked)
}

// targetUser resolves the authenticated user and the {id} path value,
// rejecting a target equal to the caller.
func (s *GoChatApp) targetUser(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return 0, 0, false
	}

	targetId, ok := pathId(r, "id")
	if !ok || targetId == userId {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return 0, 0, false
	}

	return userId, targetId, true
}

func (s *GoChatApp) blockUser(w http.ResponseWriter, r *http.Request) {
	userId, blockedId, ok := s.targetUser(w, r)
	if !ok {
		return
	}

	if err := s.db.BlockUser(r.Context(), userId, blockedId); err != nil {
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, MessageResponse{Message: "user blocked"})
}

func (s *GoChatApp) unblockUser(w http.ResponseWriter, r *http.Request) {
	userId, blockedId, ok := s.targetUser(w, r)
	if !ok {
		return
	}

	if err := s.db.UnblockUser(r.Context(), userId, blockedId); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, MessageResponse{Message: "user unblocked"})
}

func (s *GoChatApp) getFavorites(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	users, err := s.db.ListFavorites(r.Context(), userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, publicProfiles(users))
}

func (s *GoChatApp) favoriteStatus(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req FavoriteStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if len(req.UserIds) == 0 {
		s.writeJson(w, http.StatusOK, map[int]bool{})
		return
	}

	status, err := s.db.FavoriteStatus(r.Context(), userId, req.UserIds)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, status)
}

func (s *GoChatApp) addFavorite(w http.ResponseWriter, r *http.Request) {
	userId, favoriteId, ok := s.targetUser(w, r)
	if !ok {
		return
	}

	if err := s.db.AddFavorite(r.Context(), userId, favoriteId); err != nil {
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, MessageResponse{Message: "favorite added"})
}

func (s *GoChatApp) removeFavorite(w http.ResponseWriter, r *http.Request) {
	userId, favoriteId, ok := s.targetUser(w, r)
	if !ok {
		return
	}

	if err := s.db.RemoveFavorite(r.Context(), userId, favoriteId); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, MessageResponse{Message: "favorite removed"})
}
