package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-dating-chat/internal/database"
	"github.com/npezzotti/go-dating-chat/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 32 * 1024
	sendBufferSize = 256
)

// Client is a single websocket connection of an authenticated user.
type Client struct {
	id         uuid.UUID
	conn       *websocket.Conn
	chatServer *ChatServer
	log        *log.Logger
	send       chan *ServerMessage
	stop       chan struct{}
	stopOnce   sync.Once
	ctx        context.Context
	cancel     context.CancelFunc

	mu     sync.RWMutex
	user   types.UserSummary
	roomId int

	// conversations is owned by the chat server loop.
	conversations map[int]struct{}
}

func NewClient(user types.UserSummary, conn *websocket.Conn, cs *ChatServer, l *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:            uuid.New(),
		conn:          conn,
		chatServer:    cs,
		log:           l,
		send:          make(chan *ServerMessage, sendBufferSize),
		stop:          make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
		user:          user,
		conversations: make(map[int]struct{}),
	}
}

func (c *Client) Id() uuid.UUID {
	return c.id
}

func (c *Client) User() types.UserSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Client) setUser(u types.UserSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = u
}

func (c *Client) currentRoom() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomId
}

func (c *Client) setRoom(roomId int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomId = roomId
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Println("serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			c.sendMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.Timestamp = Now()
		c.dispatch(&msg)
	}
}

func (c *Client) dispatch(msg *ClientMessage) {
	if msg.numPayloads() != 1 {
		c.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	switch {
	case msg.JoinRoom != nil:
		c.joinRoom(msg)
	case msg.LeaveRoom != nil:
		c.leaveRoom(msg)
	case msg.UpdateUserInfo != nil:
		c.updateUserInfo(msg)
	case msg.SendMessage != nil:
		c.sendRoomMessage(msg)
	case msg.JoinConversation != nil:
		c.joinConversation(msg)
	case msg.SendPrivateMessage != nil:
		c.sendPrivateMessage(msg)
	}
}

func (c *Client) joinRoom(msg *ClientMessage) {
	join := msg.JoinRoom
	if join.RoomId <= 0 {
		c.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	if join.User != nil && join.User.Id != c.User().Id {
		c.queueMessage(ErrForbidden(msg.Id))
		return
	}

	_, err := withTimeout(c.ctx, func(ctx context.Context) (database.Room, error) {
		return c.chatServer.db.GetRoom(ctx, join.RoomId)
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.queueMessage(ErrRoomNotFound(msg.Id))
			return
		}
		c.log.Printf("GetRoom %d: %v", join.RoomId, err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	if !c.chatServer.joinRoom(c, msg.Id, join.RoomId) {
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) leaveRoom(msg *ClientMessage) {
	if msg.LeaveRoom.RoomId <= 0 {
		c.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	if !c.chatServer.leaveRoom(c, msg.Id, msg.LeaveRoom.RoomId) {
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

// updateUserInfo reloads the user's summary from the datastore and
// propagates it. The summary in the payload is never trusted.
func (c *Client) updateUserInfo(msg *ClientMessage) {
	self := c.User()
	if u := msg.UpdateUserInfo.User; u != nil && u.Id != self.Id {
		c.queueMessage(ErrForbidden(msg.Id))
		return
	}

	account, err := withTimeout(c.ctx, func(ctx context.Context) (database.User, error) {
		return c.chatServer.db.GetAccountById(ctx, self.Id)
	})
	if err != nil {
		c.log.Printf("GetAccountById %d: %v", self.Id, err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	if !c.chatServer.updateUser(c, msg.Id, account.Summary()) {
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) joinConversation(msg *ClientMessage) {
	convId := msg.JoinConversation.ConversationId
	if convId <= 0 {
		c.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	userId := c.User().Id
	ok, err := withTimeout(c.ctx, func(ctx context.Context) (bool, error) {
		return c.chatServer.db.IsParticipant(ctx, convId, userId)
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.queueMessage(ErrConversationNotFound(msg.Id))
			return
		}
		c.log.Printf("IsParticipant %d: %v", convId, err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}
	if !ok {
		c.queueMessage(ErrForbidden(msg.Id))
		return
	}

	if !c.chatServer.joinConversation(c, msg.Id, convId) {
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Printf("send queue full for connection %s, dropping message", c.id)
		return false
	}

	return true
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

// stopClient signals the write pump to close the connection and cancels
// in-flight datastore calls. It is safe to call more than once.
func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
		if c.cancel != nil {
			c.cancel()
		}
	})
}

func (c *Client) cleanup() {
	c.chatServer.UnregisterClient(c)
	c.stopClient()
}
