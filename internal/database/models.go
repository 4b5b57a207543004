package database

import (
	"time"

	"github.com/npezzotti/go-dating-chat/internal/types"
)

type User struct {
	Id                 int
	Username           string
	EmailAddress       string
	PasswordHash       string
	Role               string
	Age                int
	Gender             string
	Interests          string
	RelationshipIntent string
	Location           string
	Avatar             string
	Banned             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Room struct {
	Id          int
	Name        string
	Description string
	CreatedAt   time.Time
}

// Message is a room message joined with its author.
type Message struct {
	Id        int
	RoomId    int
	UserId    int
	Username  string
	Avatar    string
	Content   string
	Type      string
	CreatedAt time.Time
}

// PrivateMessage is a conversation message joined with its author.
type PrivateMessage struct {
	Id             int
	ConversationId int
	UserId         int
	Username       string
	Avatar         string
	Content        string
	Type           string
	CreatedAt      time.Time
}

// Conversation is a conversation as seen by one participant, with the
// other participant as Partner.
type Conversation struct {
	Id              int
	Name            string
	PartnerId       int
	PartnerUsername string
	PartnerAvatar   string
	LastMessage     string
	LastMessageType string
	LastMessageTime *time.Time
}

type Report struct {
	Id               int
	ReporterUsername string
	ReportedUsername string
	MessageContent   string
	Reason           string
	Status           string
	CreatedAt        time.Time
}

type CreateAccountParams struct {
	Username           string
	EmailAddress       string
	PasswordHash       string
	Age                int
	Gender             string
	RelationshipIntent string
}

type UpdateProfileParams struct {
	UserId             int
	Age                int
	Gender             string
	Interests          string
	RelationshipIntent string
	Location           string
	Avatar             string
}

type CreateRoomParams struct {
	Name        string
	Description string
}

type CreateMessageParams struct {
	RoomId  int
	UserId  int
	Content string
	Type    string
}

type CreatePrivateMessageParams struct {
	ConversationId int
	UserId         int
	Content        string
	Type           string
}

type CreateReportParams struct {
	ReporterId     int
	ReportedUserId int
	MessageContent string
	Reason         string
}

func (u User) Summary() types.UserSummary {
	return types.UserSummary{
		Id:       u.Id,
		Username: u.Username,
		Avatar:   u.Avatar,
	}
}

// Profile returns the account without its credentials.
func (u User) Profile() types.User {
	return types.User{
		Id:                 u.Id,
		Username:           u.Username,
		EmailAddress:       u.EmailAddress,
		Role:               u.Role,
		Age:                u.Age,
		Gender:             u.Gender,
		Interests:          u.Interests,
		RelationshipIntent: u.RelationshipIntent,
		Location:           u.Location,
		Avatar:             u.Avatar,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (m Message) Wire() types.Message {
	return types.Message{
		Id:        m.Id,
		Content:   m.Content,
		Type:      types.MessageType(m.Type),
		Timestamp: m.CreatedAt,
		User: types.UserSummary{
			Id:       m.UserId,
			Username: m.Username,
			Avatar:   m.Avatar,
		},
		RoomId: m.RoomId,
	}
}

func (pm PrivateMessage) Wire() types.PrivateMessage {
	return types.PrivateMessage{
		Id:        pm.Id,
		Content:   pm.Content,
		Type:      types.MessageType(pm.Type),
		Timestamp: pm.CreatedAt,
		User: types.UserSummary{
			Id:       pm.UserId,
			Username: pm.Username,
			Avatar:   pm.Avatar,
		},
		ConversationId: pm.ConversationId,
	}
}

func (c Conversation) Wire() types.Conversation {
	return types.Conversation{
		Id:   c.Id,
		Name: c.Name,
		Partner: types.UserSummary{
			Id:       c.PartnerId,
			Username: c.PartnerUsername,
			Avatar:   c.PartnerAvatar,
		},
		LastMessage:     c.LastMessage,
		LastMessageType: types.MessageType(c.LastMessageType),
		LastMessageTime: c.LastMessageTime,
	}
}

func (r Room) Wire() types.Room {
	return types.Room{
		Id:          r.Id,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

func (r Report) Wire() types.Report {
	return types.Report{
		Id:               r.Id,
		MessageContent:   r.MessageContent,
		Reason:           r.Reason,
		Status:           r.Status,
		ReporterUsername: r.ReporterUsername,
		ReportedUsername: r.ReportedUsername,
		CreatedAt:        r.CreatedAt,
	}
}
