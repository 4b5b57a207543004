package types

import (
	"time"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
	MessageTypeFile  MessageType = "file"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeFile:
		return true
	}
	return false
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserSummary is the identity snapshot embedded in presence lists and
// messages.
type UserSummary struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

type User struct {
	Id                 int       `json:"id"`
	Username           string    `json:"username"`
	EmailAddress       string    `json:"email,omitempty"`
	Role               string    `json:"role,omitempty"`
	Age                int       `json:"age,omitempty"`
	Gender             string    `json:"gender,omitempty"`
	Interests          string    `json:"interests,omitempty"`
	RelationshipIntent string    `json:"relationship_intent,omitempty"`
	Location           string    `json:"location,omitempty"`
	Avatar             string    `json:"avatar,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		Id:       u.Id,
		Username: u.Username,
		Avatar:   u.Avatar,
	}
}

type Room struct {
	Id          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

type Conversation struct {
	Id              int         `json:"id"`
	Name            string      `json:"name"`
	Partner         UserSummary `json:"partner"`
	LastMessage     string      `json:"last_message,omitempty"`
	LastMessageType MessageType `json:"last_message_type,omitempty"`
	LastMessageTime *time.Time  `json:"last_message_time,omitempty"`
}

type Message struct {
	Id        int         `json:"id"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	User      UserSummary `json:"user"`
	RoomId    int         `json:"room_id"`
}

type PrivateMessage struct {
	Id             int         `json:"id"`
	Content        string      `json:"content"`
	Type           MessageType `json:"type"`
	Timestamp      time.Time   `json:"timestamp"`
	User           UserSummary `json:"user"`
	ConversationId int         `json:"conversation_id"`
}

type Report struct {
	Id               int       `json:"id"`
	MessageContent   string    `json:"message_content,omitempty"`
	Reason           string    `json:"reason"`
	Status           string    `json:"status"`
	ReporterUsername string    `json:"reporter_username"`
	ReportedUsername string    `json:"reported_username"`
	CreatedAt        time.Time `json:"created_at"`
}
