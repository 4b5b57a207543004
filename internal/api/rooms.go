package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/npezzotti/go-dating-chat/internal/database"
	"github.com/npezzotti/go-dating-chat/internal/types"
)

const (
	roomHistoryLimit         = 50
	conversationHistoryLimit = 100
)

type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateConversationRequest struct {
	PartnerId int `json:"partnerId"`
}

func (s *GoChatApp) getRooms(w http.ResponseWriter, r *http.Request) {
	dbRooms, err := s.db.ListRooms(r.Context())
	if err != nil {
		s.log.Println("list rooms:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rooms := make([]types.Room, 0, len(dbRooms))
	for _, room := range dbRooms {
		rooms = append(rooms, room.Wire())
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *GoChatApp) createRoom(w http.ResponseWriter, r *http.Request) {
	var createRoomReq CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&createRoomReq); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	name := strings.TrimSpace(createRoomReq.Name)
	if name == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newRoom, err := s.db.CreateRoom(r.Context(), database.CreateRoomParams{
		Name:        name,
		Description: createRoomReq.Description,
	})
	if err != nil {
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.log.Printf("created room %q", newRoom.Name)
	s.writeJson(w, http.StatusCreated, newRoom.Wire())
}

func (s *GoChatApp) getRoomMessages(w http.ResponseWriter, r *http.Request) {
	roomId, ok := pathId(r, "id")
	if !ok {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetRoom(r.Context(), roomId); err != nil {
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbMessages, err := s.db.GetRoomMessages(r.Context(), roomId, roomHistoryLimit)
	if err != nil {
		s.log.Println("get room messages:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages := make([]types.Message, 0, len(dbMessages))
	for _, msg := range dbMessages {
		messages = append(messages, msg.Wire())
	}

	s.writeJson(w, http.StatusOK, messages)
}

func (s *GoChatApp) getConversations(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbConversations, err := s.db.ListConversations(r.Context(), userId)
	if err != nil {
		s.log.Println("list conversations:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conversations := make([]types.Conversation, 0, len(dbConversations))
	for _, c := range dbConversations {
		conversations = append(conversations, c.Wire())
	}

	s.writeJson(w, http.StatusOK, conversations)
}

// createConversation returns the conversation between the caller and the
// partner, creating it on first contact.
func (s *GoChatApp) createConversation(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PartnerId <= 0 || req.PartnerId == userId {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	partner, err := s.db.GetAccountById(r.Context(), req.PartnerId)
	if err != nil {
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	if partner.Banned {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	blocked, err := s.db.IsBlocked(r.Context(), userId, partner.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	if blocked {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conversationId, err := s.db.ResolveOrCreateConversation(r.Context(), userId, partner.Id)
	if err != nil {
		s.log.Println("resolve conversation:", err)
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conversation, err := s.db.GetConversation(r.Context(), conversationId, userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, conversation.Wire())
}

func (s *GoChatApp) getPrivateMessages(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conversationId, ok := pathId(r, "id")
	if !ok {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	isParticipant, err := s.db.IsParticipant(r.Context(), conversationId, userId)
	if err != nil {
		errResp := errorFromDb(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	if !isParticipant {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbMessages, err := s.db.GetPrivateMessages(r.Context(), conversationId, conversationHistoryLimit)
	if err != nil {
		s.log.Println("get private messages:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages := make([]types.PrivateMessage, 0, len(dbMessages))
	for _, msg := range dbMessages {
		messages = append(messages, msg.Wire())
	}

	s.writeJson(w, http.StatusOK, messages)
}
