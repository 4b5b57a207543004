package server

import (
	"net/http"
	"time"

	"github.com/npezzotti/go-dating-chat/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is a frame received from a websocket client. Exactly one
// payload field is set per frame.
type ClientMessage struct {
	BaseMessage
	JoinRoom           *JoinRoom           `json:"join_room,omitempty"`
	LeaveRoom          *LeaveRoom          `json:"leave_room,omitempty"`
	UpdateUserInfo     *UpdateUserInfo     `json:"update_user_info,omitempty"`
	SendMessage        *SendMessage        `json:"send_message,omitempty"`
	JoinConversation   *JoinConversation   `json:"join_conversation,omitempty"`
	SendPrivateMessage *SendPrivateMessage `json:"send_private_message,omitempty"`
}

// numPayloads returns how many payload fields are set.
func (m *ClientMessage) numPayloads() int {
	n := 0
	for _, set := range []bool{
		m.JoinRoom != nil,
		m.LeaveRoom != nil,
		m.UpdateUserInfo != nil,
		m.SendMessage != nil,
		m.JoinConversation != nil,
		m.SendPrivateMessage != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

type JoinRoom struct {
	User   *types.UserSummary `json:"user,omitempty"`
	RoomId int                `json:"roomId"`
}

type LeaveRoom struct {
	RoomId int `json:"roomId"`
}

type UpdateUserInfo struct {
	User *types.UserSummary `json:"user,omitempty"`
}

type SendMessage struct {
	Content string            `json:"content"`
	UserId  int               `json:"userId,omitempty"`
	RoomId  int               `json:"roomId"`
	Type    types.MessageType `json:"type,omitempty"`
}

type JoinConversation struct {
	ConversationId int `json:"conversationId"`
}

type SendPrivateMessage struct {
	Content        string            `json:"content"`
	UserId         int               `json:"userId,omitempty"`
	ConversationId int               `json:"conversationId"`
	Type           types.MessageType `json:"type,omitempty"`
}

// ServerMessage is a frame sent to websocket clients. The routing fields are
// never serialized; the chat server uses them to pick recipients.
type ServerMessage struct {
	BaseMessage
	Response       *Response             `json:"response,omitempty"`
	Message        *types.Message        `json:"message,omitempty"`
	PrivateMessage *types.PrivateMessage `json:"private_message,omitempty"`
	UpdateUserList *UserList             `json:"update_user_list,omitempty"`
	UpdateUserInfo *types.UserSummary    `json:"update_user_info,omitempty"`

	RoomId         int     `json:"-"`
	ConversationId int     `json:"-"`
	UserId         int     `json:"-"`
	SkipClient     *Client `json:"-"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

// UserList is the ordered member list of a room.
type UserList struct {
	RoomId int                 `json:"room_id"`
	Users  []types.UserSummary `json:"users"`
}

func NoErrOK(id int, data any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func errResponse(id, code int, text string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: code,
			Error:        text,
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	if id < 0 {
		id = 0
	}
	return errResponse(id, http.StatusBadRequest, "invalid message format")
}

func ErrForbidden(id int) *ServerMessage {
	return errResponse(id, http.StatusForbidden, "forbidden")
}

func ErrRoomNotFound(id int) *ServerMessage {
	return errResponse(id, http.StatusNotFound, "room not found")
}

func ErrConversationNotFound(id int) *ServerMessage {
	return errResponse(id, http.StatusNotFound, "conversation not found")
}

func ErrInternalError(id int) *ServerMessage {
	return errResponse(id, http.StatusInternalServerError, "internal server error")
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return errResponse(id, http.StatusServiceUnavailable, "service unavailable")
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
