package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultRoomMessageLimit    = 50
	defaultPrivateMessageLimit = 100
)

// ConversationName is the order-independent key of the conversation between
// two users.
func ConversationName(userA, userB int) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%d_%d", userA, userB)
}

func (db *PgRepository) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT id, name, description, created_at FROM rooms ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]Room, 0)
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.Id, &room.Name, &room.Description, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

func (db *PgRepository) CreateRoom(ctx context.Context, params CreateRoomParams) (Room, error) {
	row := db.conn.QueryRowContext(
		ctx,
		"INSERT INTO rooms (name, description, created_at) VALUES ($1, $2, $3) RETURNING id, name, description, created_at",
		params.Name,
		params.Description,
		time.Now().UTC(),
	)

	var room Room
	err := row.Scan(&room.Id, &room.Name, &room.Description, &room.CreatedAt)
	return room, translateError(err)
}

func (db *PgRepository) GetRoom(ctx context.Context, id int) (Room, error) {
	row := db.conn.QueryRowContext(
		ctx,
		"SELECT id, name, description, created_at FROM rooms WHERE id = $1 LIMIT 1",
		id,
	)

	var room Room
	err := row.Scan(&room.Id, &room.Name, &room.Description, &room.CreatedAt)
	return room, translateError(err)
}

// CreateMessage inserts a room message and returns it with the
// server-assigned id and timestamp and the author's current identity.
func (db *PgRepository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	row := db.conn.QueryRowContext(
		ctx,
		`WITH inserted AS (
			INSERT INTO messages (room_id, user_id, content, type, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, room_id, user_id, content, type, created_at
		)
		SELECT i.id, i.room_id, i.user_id, u.username, u.avatar, i.content, i.type, i.created_at
		FROM inserted i JOIN users u ON u.id = i.user_id`,
		params.RoomId,
		params.UserId,
		params.Content,
		params.Type,
		time.Now().UTC(),
	)

	var msg Message
	err := row.Scan(
		&msg.Id,
		&msg.RoomId,
		&msg.UserId,
		&msg.Username,
		&msg.Avatar,
		&msg.Content,
		&msg.Type,
		&msg.CreatedAt,
	)

	return msg, translateError(err)
}

// GetRoomMessages returns the latest messages of a room, oldest first.
func (db *PgRepository) GetRoomMessages(ctx context.Context, roomId, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = defaultRoomMessageLimit
	}

	rows, err := db.conn.QueryContext(
		ctx,
		`SELECT * FROM (
			SELECT m.id, m.room_id, m.user_id, u.username, u.avatar, m.content, m.type, m.created_at
			FROM messages m
			JOIN users u ON m.user_id = u.id
			WHERE m.room_id = $1
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $2
		) latest ORDER BY created_at ASC, id ASC`,
		roomId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]Message, 0, limit)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(
			&msg.Id,
			&msg.RoomId,
			&msg.UserId,
			&msg.Username,
			&msg.Avatar,
			&msg.Content,
			&msg.Type,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// ResolveOrCreateConversation returns the id of the conversation between the
// two users, creating it and its participant rows if needed. The unique
// conversation name makes concurrent calls for the same pair converge on a
// single row.
func (db *PgRepository) ResolveOrCreateConversation(ctx context.Context, userA, userB int) (int, error) {
	if userA > userB {
		userA, userB = userB, userA
	}
	name := ConversationName(userA, userB)

	var id int
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO conversations (name, created_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING",
			name,
			time.Now().UTC(),
		); err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx, "SELECT id FROM conversations WHERE name = $1", name).Scan(&id); err != nil {
			return err
		}

		_, err := tx.ExecContext(
			ctx,
			"INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2), ($1, $3) ON CONFLICT DO NOTHING",
			id,
			userA,
			userB,
		)
		return err
	})
	if err != nil {
		return 0, translateError(err)
	}

	return id, nil
}

const conversationSelect = `
	SELECT c.id, c.name, p.id, p.username, p.avatar,
		COALESCE(c.last_message, ''), COALESCE(c.last_message_type, ''), c.last_message_time
	FROM conversations c
	JOIN conversation_participants me ON me.conversation_id = c.id
	JOIN conversation_participants other ON other.conversation_id = c.id AND other.user_id != me.user_id
	JOIN users p ON p.id = other.user_id`

func scanConversation(row rowScanner) (Conversation, error) {
	var (
		c        Conversation
		lastTime sql.NullTime
	)
	err := row.Scan(
		&c.Id,
		&c.Name,
		&c.PartnerId,
		&c.PartnerUsername,
		&c.PartnerAvatar,
		&c.LastMessage,
		&c.LastMessageType,
		&lastTime,
	)
	if lastTime.Valid {
		t := lastTime.Time
		c.LastMessageTime = &t
	}
	return c, err
}

// GetConversation returns the conversation as seen by userId.
func (db *PgRepository) GetConversation(ctx context.Context, conversationId, userId int) (Conversation, error) {
	row := db.conn.QueryRowContext(
		ctx,
		conversationSelect+" WHERE c.id = $1 AND me.user_id = $2 LIMIT 1",
		conversationId,
		userId,
	)

	c, err := scanConversation(row)
	return c, translateError(err)
}

// ListConversations returns every conversation of userId, most recently
// active first.
func (db *PgRepository) ListConversations(ctx context.Context, userId int) ([]Conversation, error) {
	rows, err := db.conn.QueryContext(
		ctx,
		conversationSelect+" WHERE me.user_id = $1 ORDER BY COALESCE(c.last_message_time, c.created_at) DESC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}

	return conversations, rows.Err()
}

// IsParticipant reports whether userId takes part in the conversation. It
// returns ErrNotFound if the conversation does not exist.
func (db *PgRepository) IsParticipant(ctx context.Context, conversationId, userId int) (bool, error) {
	var ok bool
	err := db.conn.QueryRowContext(
		ctx,
		`SELECT EXISTS (
			SELECT 1 FROM conversation_participants p
			WHERE p.conversation_id = c.id AND p.user_id = $2
		) FROM conversations c WHERE c.id = $1`,
		conversationId,
		userId,
	).Scan(&ok)

	return ok, translateError(err)
}

func (db *PgRepository) CreatePrivateMessage(ctx context.Context, params CreatePrivateMessageParams) (int, error) {
	var id int
	err := db.conn.QueryRowContext(
		ctx,
		"INSERT INTO private_messages (conversation_id, user_id, content, type, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		params.ConversationId,
		params.UserId,
		params.Content,
		params.Type,
		time.Now().UTC(),
	).Scan(&id)

	return id, translateError(err)
}

func (db *PgRepository) UpdateConversationPreview(ctx context.Context, conversationId int, preview, msgType string) error {
	res, err := db.conn.ExecContext(
		ctx,
		"UPDATE conversations SET last_message = $2, last_message_type = $3, last_message_time = $4 WHERE id = $1",
		conversationId,
		preview,
		msgType,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	return requireRowsAffected(res)
}

const privateMessageSelect = `
	SELECT pm.id, pm.conversation_id, u.id AS author_id, u.username, u.avatar, pm.content, pm.type, pm.created_at
	FROM private_messages pm
	JOIN users u ON pm.user_id = u.id`

func scanPrivateMessage(row rowScanner) (PrivateMessage, error) {
	var pm PrivateMessage
	err := row.Scan(
		&pm.Id,
		&pm.ConversationId,
		&pm.UserId,
		&pm.Username,
		&pm.Avatar,
		&pm.Content,
		&pm.Type,
		&pm.CreatedAt,
	)
	return pm, err
}

func (db *PgRepository) GetPrivateMessageWithAuthor(ctx context.Context, id int) (PrivateMessage, error) {
	row := db.conn.QueryRowContext(ctx, privateMessageSelect+" WHERE pm.id = $1", id)

	pm, err := scanPrivateMessage(row)
	return pm, translateError(err)
}

// GetPrivateMessages returns the latest messages of a conversation, oldest
// first.
func (db *PgRepository) GetPrivateMessages(ctx context.Context, conversationId, limit int) ([]PrivateMessage, error) {
	if limit <= 0 {
		limit = defaultPrivateMessageLimit
	}

	rows, err := db.conn.QueryContext(
		ctx,
		"SELECT * FROM ("+privateMessageSelect+
			" WHERE pm.conversation_id = $1 ORDER BY pm.created_at DESC, pm.id DESC LIMIT $2"+
			") latest ORDER BY created_at ASC, id ASC",
		conversationId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]PrivateMessage, 0, limit)
	for rows.Next() {
		pm, err := scanPrivateMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, pm)
	}

	return messages, rows.Err()
}
