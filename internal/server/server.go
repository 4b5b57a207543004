package server

import (
	"context"
	"log"
	"slices"

	"github.com/npezzotti/go-dating-chat/internal/database"
	"github.com/npezzotti/go-dating-chat/internal/presence"
	"github.com/npezzotti/go-dating-chat/internal/stats"
	"github.com/npezzotti/go-dating-chat/internal/types"
)

const (
	metricActiveClients   = "NumActiveClients"
	metricPresentUsers    = "NumPresentUsers"
	metricRoomMessages    = "NumRoomMessages"
	metricPrivateMessages = "NumPrivateMessages"
)

type stopReq struct {
	done chan struct{}
}

// request is a client operation handled by the event loop. done is closed
// once the loop has handled it.
type request struct {
	client *Client
	msgId  int
	done   chan struct{}
}

func newRequest(c *Client, msgId int) request {
	return request{client: c, msgId: msgId, done: make(chan struct{})}
}

func (r request) ack() {
	if r.done != nil {
		close(r.done)
	}
}

func (r request) respond(msg *ServerMessage) {
	if r.client != nil {
		r.client.queueMessage(msg)
	}
}

type roomReq struct {
	request
	roomId int
}

type conversationReq struct {
	request
	conversationId int
}

type userUpdateReq struct {
	request
	user types.UserSummary
}

// ChatServer owns every live connection, the room and conversation
// subscriptions, and the presence tracker. All of them are only touched
// from the Run loop.
type ChatServer struct {
	log      *log.Logger
	db       database.Repository
	stats    stats.StatsProvider
	presence *presence.Tracker

	clients       map[*Client]struct{}
	userMap       map[int]map[*Client]struct{}
	rooms         map[int]map[*Client]struct{}
	conversations map[int]map[*Client]struct{}

	registerChan   chan *Client
	unregisterChan chan *Client
	joinRoomChan   chan roomReq
	leaveRoomChan  chan roomReq
	joinConvChan   chan conversationReq
	updateUserChan chan userUpdateReq
	broadcastChan  chan *ServerMessage
	disconnectChan chan int
	stop           chan stopReq
	done           chan struct{}
}

func NewChatServer(logger *log.Logger, db database.Repository, su stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:            logger,
		db:             db,
		stats:          su,
		presence:       presence.NewTracker(),
		clients:        make(map[*Client]struct{}),
		userMap:        make(map[int]map[*Client]struct{}),
		rooms:          make(map[int]map[*Client]struct{}),
		conversations:  make(map[int]map[*Client]struct{}),
		registerChan:   make(chan *Client),
		unregisterChan: make(chan *Client),
		joinRoomChan:   make(chan roomReq, 256),
		leaveRoomChan:  make(chan roomReq, 256),
		joinConvChan:   make(chan conversationReq, 256),
		updateUserChan: make(chan userUpdateReq, 256),
		broadcastChan:  make(chan *ServerMessage, 256),
		disconnectChan: make(chan int, 16),
		stop:           make(chan stopReq),
		done:           make(chan struct{}),
	}

	for _, name := range []string{
		metricActiveClients,
		metricPresentUsers,
		metricRoomMessages,
		metricPrivateMessages,
	} {
		su.RegisterMetric(name)
	}

	return cs, nil
}

func (cs *ChatServer) Run() {
	for {
		select {
		case c := <-cs.registerChan:
			cs.addClient(c)
		case c := <-cs.unregisterChan:
			cs.removeClient(c)
		case req := <-cs.joinRoomChan:
			cs.handleJoinRoom(req)
			req.ack()
		case req := <-cs.leaveRoomChan:
			cs.handleLeaveRoom(req)
			req.ack()
		case req := <-cs.joinConvChan:
			cs.handleJoinConversation(req)
			req.ack()
		case req := <-cs.updateUserChan:
			cs.handleUpdateUser(req)
			req.ack()
		case msg := <-cs.broadcastChan:
			cs.handleBroadcast(msg)
		case userId := <-cs.disconnectChan:
			cs.handleDisconnectUser(userId)
		case req := <-cs.stop:
			cs.handleStop(req)
			return
		}
	}
}

// Shutdown stops the event loop and every connected client. It returns
// ctx.Err() if the loop does not stop before ctx is done.
func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Println("shutting down chat server")

	req := stopReq{done: make(chan struct{})}
	select {
	case cs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cs *ChatServer) handleStop(req stopReq) {
	cs.log.Printf("stopping %d clients", len(cs.clients))
	for c := range cs.clients {
		c.stopClient()
	}

	close(cs.done)
	close(req.done)
}

// enqueue hands v to the event loop, giving up once the loop has stopped.
func enqueue[T any](cs *ChatServer, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-cs.done:
		return false
	}
}

// dispatch hands req to the event loop and waits until it has been handled.
func dispatch[T any](cs *ChatServer, ch chan<- T, req T, handled <-chan struct{}) bool {
	if !enqueue(cs, ch, req) {
		return false
	}

	select {
	case <-handled:
		return true
	case <-cs.done:
		return false
	}
}

func (cs *ChatServer) RegisterClient(c *Client) bool {
	return enqueue(cs, cs.registerChan, c)
}

func (cs *ChatServer) UnregisterClient(c *Client) {
	enqueue(cs, cs.unregisterChan, c)
}

// DisconnectUser closes every live connection of the user.
func (cs *ChatServer) DisconnectUser(userId int) {
	enqueue(cs, cs.disconnectChan, userId)
}

// UpdateUser propagates a changed user summary to the user's connections
// and to every room the user is present in.
func (cs *ChatServer) UpdateUser(user types.UserSummary) {
	enqueue(cs, cs.updateUserChan, userUpdateReq{user: user})
}

func (cs *ChatServer) joinRoom(c *Client, msgId, roomId int) bool {
	req := roomReq{request: newRequest(c, msgId), roomId: roomId}
	return dispatch(cs, cs.joinRoomChan, req, req.done)
}

func (cs *ChatServer) leaveRoom(c *Client, msgId, roomId int) bool {
	req := roomReq{request: newRequest(c, msgId), roomId: roomId}
	return dispatch(cs, cs.leaveRoomChan, req, req.done)
}

func (cs *ChatServer) joinConversation(c *Client, msgId, conversationId int) bool {
	req := conversationReq{request: newRequest(c, msgId), conversationId: conversationId}
	return dispatch(cs, cs.joinConvChan, req, req.done)
}

func (cs *ChatServer) updateUser(c *Client, msgId int, user types.UserSummary) bool {
	req := userUpdateReq{request: newRequest(c, msgId), user: user}
	return dispatch(cs, cs.updateUserChan, req, req.done)
}

func (cs *ChatServer) broadcast(msg *ServerMessage) bool {
	return enqueue(cs, cs.broadcastChan, msg)
}

func (cs *ChatServer) addClient(c *Client) {
	cs.clients[c] = struct{}{}
	if cs.userMap[c.user.Id] == nil {
		cs.userMap[c.user.Id] = make(map[*Client]struct{})
	}
	cs.userMap[c.user.Id][c] = struct{}{}

	cs.log.Printf("added connection %s for %q", c.id, c.user.Username)
	cs.stats.Incr(metricActiveClients)
}

func (cs *ChatServer) removeClient(c *Client) {
	if _, ok := cs.clients[c]; !ok {
		return
	}

	if roomId := c.currentRoom(); roomId != 0 {
		cs.removeFromRoom(c, roomId, true)
	}

	for convId := range c.conversations {
		cs.unsubscribe(cs.conversations, convId, c)
	}
	clear(c.conversations)

	delete(cs.clients, c)
	if userClients, ok := cs.userMap[c.user.Id]; ok {
		delete(userClients, c)
		if len(userClients) == 0 {
			delete(cs.userMap, c.user.Id)
		}
	}

	cs.log.Printf("removed connection %s for %q", c.id, c.user.Username)
	cs.stats.Decr(metricActiveClients)
}

func (cs *ChatServer) getClients(userId int) []*Client {
	clients := make([]*Client, 0, len(cs.userMap[userId]))
	for c := range cs.userMap[userId] {
		clients = append(clients, c)
	}
	return clients
}

func (cs *ChatServer) handleJoinRoom(req roomReq) {
	c := req.client
	if _, ok := cs.clients[c]; !ok {
		req.respond(ErrServiceUnavailable(req.msgId))
		return
	}

	if prev := c.currentRoom(); prev != 0 && prev != req.roomId {
		cs.removeFromRoom(c, prev, false)
	}

	cs.subscribe(cs.rooms, req.roomId, c)
	c.setRoom(req.roomId)

	user := c.User()
	if !cs.presence.IsPresent(req.roomId, user.Id) {
		cs.stats.Incr(metricPresentUsers)
	}
	members := cs.presence.Join(req.roomId, user)

	req.respond(NoErrOK(req.msgId, &UserList{RoomId: req.roomId, Users: members}))
	cs.broadcastUserList(req.roomId, members)
}

func (cs *ChatServer) handleLeaveRoom(req roomReq) {
	c := req.client
	if c.currentRoom() == req.roomId {
		cs.removeFromRoom(c, req.roomId, false)
	}

	req.respond(NoErrOK(req.msgId, &UserList{RoomId: req.roomId, Users: cs.presence.Members(req.roomId)}))
}

// removeFromRoom unsubscribes c from the room. The user stays present while
// another of their connections is still in the room.
func (cs *ChatServer) removeFromRoom(c *Client, roomId int, disconnected bool) {
	cs.unsubscribe(cs.rooms, roomId, c)
	c.setRoom(0)

	user := c.User()
	if cs.userInRoom(user.Id, roomId) || !cs.presence.IsPresent(roomId, user.Id) {
		return
	}

	var members []types.UserSummary
	if disconnected {
		members = cs.presence.DisconnectCleanup(user.Id, roomId)
	} else {
		members = cs.presence.Leave(roomId, user.Id)
	}

	cs.stats.Decr(metricPresentUsers)
	cs.broadcastUserList(roomId, members)
}

func (cs *ChatServer) userInRoom(userId, roomId int) bool {
	for c := range cs.rooms[roomId] {
		if c.User().Id == userId {
			return true
		}
	}
	return false
}

func (cs *ChatServer) handleJoinConversation(req conversationReq) {
	c := req.client
	if _, ok := cs.clients[c]; !ok {
		req.respond(ErrServiceUnavailable(req.msgId))
		return
	}

	cs.subscribe(cs.conversations, req.conversationId, c)
	c.conversations[req.conversationId] = struct{}{}

	req.respond(NoErrOK(req.msgId, nil))
}

func (cs *ChatServer) handleUpdateUser(req userUpdateReq) {
	for c := range cs.userMap[req.user.Id] {
		c.setUser(req.user)
	}

	// the requesting connection gets the summary in its response
	user := req.user
	cs.handleBroadcast(&ServerMessage{
		BaseMessage:    BaseMessage{Timestamp: Now()},
		UpdateUserInfo: &user,
		UserId:         user.Id,
		SkipClient:     req.client,
	})

	affected := cs.presence.UpdateUser(req.user)
	roomIds := make([]int, 0, len(affected))
	for roomId := range affected {
		roomIds = append(roomIds, roomId)
	}
	slices.Sort(roomIds)

	for _, roomId := range roomIds {
		cs.broadcastUserList(roomId, affected[roomId])
	}

	req.respond(NoErrOK(req.msgId, req.user))
}

func (cs *ChatServer) handleDisconnectUser(userId int) {
	clients := cs.getClients(userId)
	if len(clients) > 0 {
		cs.log.Printf("disconnecting %d connections of user %d", len(clients), userId)
	}

	for _, c := range clients {
		c.stopClient()
	}
}

func (cs *ChatServer) broadcastUserList(roomId int, members []types.UserSummary) {
	cs.handleBroadcast(&ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		UpdateUserList: &UserList{
			RoomId: roomId,
			Users:  members,
		},
		RoomId: roomId,
	})
}

// handleBroadcast queues msg to the room, conversation or user it is
// addressed to.
func (cs *ChatServer) handleBroadcast(msg *ServerMessage) {
	var recipients map[*Client]struct{}
	switch {
	case msg.RoomId != 0:
		recipients = cs.rooms[msg.RoomId]
	case msg.ConversationId != 0:
		recipients = cs.conversations[msg.ConversationId]
	case msg.UserId != 0:
		recipients = cs.userMap[msg.UserId]
	default:
		cs.log.Println("dropping broadcast without recipients")
		return
	}

	for c := range recipients {
		if c == msg.SkipClient {
			continue
		}
		c.queueMessage(msg)
	}
}

func (cs *ChatServer) subscribe(channels map[int]map[*Client]struct{}, id int, c *Client) {
	if channels[id] == nil {
		channels[id] = make(map[*Client]struct{})
	}
	channels[id][c] = struct{}{}
}

func (cs *ChatServer) unsubscribe(channels map[int]map[*Client]struct{}, id int, c *Client) {
	subs, ok := channels[id]
	if !ok {
		return
	}

	delete(subs, c)
	if len(subs) == 0 {
		delete(channels, id)
	}
}
