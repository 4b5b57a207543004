package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/npezzotti/go-dating-chat/internal/database"
	"github.com/npezzotti/go-dating-chat/internal/types"
)

const (
	maxContentLength = 4000
	previewLength    = 100
	persistTimeout   = 5 * time.Second
)

var (
	errEmptyContent   = errors.New("content is empty")
	errContentTooLong = fmt.Errorf("content exceeds %d characters", maxContentLength)
	errInvalidType    = errors.New("invalid message type")
)

// withTimeout runs a single datastore step under persistTimeout.
func withTimeout[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	return fn(ctx)
}

// normalizeContent trims the content and defaults an empty type to text.
func normalizeContent(content string, msgType types.MessageType) (string, types.MessageType, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", "", errEmptyContent
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return "", "", errContentTooLong
	}

	if msgType == "" {
		msgType = types.MessageTypeText
	}
	if !msgType.Valid() {
		return "", "", errInvalidType
	}

	return content, msgType, nil
}

// conversationPreview is the denormalized summary stored on a conversation
// for its latest message.
func conversationPreview(content string, msgType types.MessageType) string {
	if msgType != types.MessageTypeText {
		return string(msgType) + " attachment"
	}

	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	return string([]rune(content)[:previewLength])
}

func (c *Client) sendRoomMessage(msg *ClientMessage) {
	send := msg.SendMessage
	author := c.User()
	if send.UserId != 0 && send.UserId != author.Id {
		c.queueMessage(ErrForbidden(msg.Id))
		return
	}

	content, msgType, err := normalizeContent(send.Content, send.Type)
	if err != nil || send.RoomId <= 0 {
		c.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	if c.currentRoom() != send.RoomId {
		c.queueMessage(ErrRoomNotFound(msg.Id))
		return
	}

	c.chatServer.submitRoomMessage(c.ctx, content, author.Id, send.RoomId, msgType)
}

func (c *Client) sendPrivateMessage(msg *ClientMessage) {
	send := msg.SendPrivateMessage
	author := c.User()
	if send.UserId != 0 && send.UserId != author.Id {
		c.queueMessage(ErrForbidden(msg.Id))
		return
	}

	content, msgType, err := normalizeContent(send.Content, send.Type)
	if err != nil || send.ConversationId <= 0 {
		c.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	ok, err := withTimeout(c.ctx, func(ctx context.Context) (bool, error) {
		return c.chatServer.db.IsParticipant(ctx, send.ConversationId, author.Id)
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.queueMessage(ErrConversationNotFound(msg.Id))
			return
		}
		c.log.Printf("IsParticipant %d: %v", send.ConversationId, err)
		return
	}
	if !ok {
		c.queueMessage(ErrForbidden(msg.Id))
		return
	}

	c.chatServer.submitPrivateMessage(c.ctx, content, author.Id, send.ConversationId, msgType)
}

// submitRoomMessage persists a room message and broadcasts the stored form
// to the room. Nothing is broadcast if persistence fails.
func (cs *ChatServer) submitRoomMessage(ctx context.Context, content string, authorId, roomId int, msgType types.MessageType) bool {
	stored, err := withTimeout(ctx, func(ctx context.Context) (database.Message, error) {
		return cs.db.CreateMessage(ctx, database.CreateMessageParams{
			RoomId:  roomId,
			UserId:  authorId,
			Content: content,
			Type:    string(msgType),
		})
	})
	if err != nil {
		cs.log.Printf("CreateMessage in room %d: %v", roomId, err)
		return false
	}

	cs.stats.Incr(metricRoomMessages)

	wire := stored.Wire()
	return cs.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Message: &wire,
		RoomId:  roomId,
	})
}

// submitPrivateMessage stores a private message, refreshes the
// conversation preview, re-reads the message with its author and broadcasts
// that to the conversation. A failed step aborts the rest.
func (cs *ChatServer) submitPrivateMessage(ctx context.Context, content string, authorId, conversationId int, msgType types.MessageType) bool {
	id, err := withTimeout(ctx, func(ctx context.Context) (int, error) {
		return cs.db.CreatePrivateMessage(ctx, database.CreatePrivateMessageParams{
			ConversationId: conversationId,
			UserId:         authorId,
			Content:        content,
			Type:           string(msgType),
		})
	})
	if err != nil {
		cs.log.Printf("CreatePrivateMessage in conversation %d: %v", conversationId, err)
		return false
	}

	_, err = withTimeout(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, cs.db.UpdateConversationPreview(ctx, conversationId, conversationPreview(content, msgType), string(msgType))
	})
	if err != nil {
		cs.log.Printf("UpdateConversationPreview %d: %v", conversationId, err)
		return false
	}

	stored, err := withTimeout(ctx, func(ctx context.Context) (database.PrivateMessage, error) {
		return cs.db.GetPrivateMessageWithAuthor(ctx, id)
	})
	if err != nil {
		cs.log.Printf("GetPrivateMessageWithAuthor %d: %v", id, err)
		return false
	}

	cs.stats.Incr(metricPrivateMessages)

	wire := stored.Wire()
	return cs.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		PrivateMessage: &wire,
		ConversationId: stored.ConversationId,
	})
}
