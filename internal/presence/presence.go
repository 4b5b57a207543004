// Package presence tracks which users are currently present in each chat room.
package presence

import (
	"slices"

	"github.com/npezzotti/go-dating-chat/internal/types"
)

// Tracker maps room ids to the users present in them. A user appears at
// most once per room, in join order.
//
// Tracker is not safe for concurrent use; it is owned by the chat server's
// event loop.
type Tracker struct {
	rooms map[int][]types.UserSummary
}

func NewTracker() *Tracker {
	return &Tracker{
		rooms: make(map[int][]types.UserSummary),
	}
}

// Join adds the user to the room, replacing the existing entry if the user
// is already present, and returns the room's members.
func (t *Tracker) Join(roomId int, user types.UserSummary) []types.UserSummary {
	members := t.rooms[roomId]
	if i := indexOf(members, user.Id); i >= 0 {
		members[i] = user
	} else {
		members = append(members, user)
	}
	t.rooms[roomId] = members

	return slices.Clone(members)
}

// Leave removes the user from the room and returns the remaining members.
// Leaving a room the user is not present in is a no-op.
func (t *Tracker) Leave(roomId, userId int) []types.UserSummary {
	members, ok := t.rooms[roomId]
	if !ok {
		return []types.UserSummary{}
	}

	if i := indexOf(members, userId); i >= 0 {
		members = slices.Delete(members, i, i+1)
	}

	if len(members) == 0 {
		delete(t.rooms, roomId)
		return []types.UserSummary{}
	}

	t.rooms[roomId] = members
	return slices.Clone(members)
}

// DisconnectCleanup removes a dropped connection's user from its last room.
func (t *Tracker) DisconnectCleanup(userId, roomId int) []types.UserSummary {
	return t.Leave(roomId, userId)
}

// UpdateUser replaces the user's entry in every room they are present in.
// It returns the updated member list of each affected room, keyed by room id.
func (t *Tracker) UpdateUser(user types.UserSummary) map[int][]types.UserSummary {
	affected := make(map[int][]types.UserSummary)
	for roomId, members := range t.rooms {
		if i := indexOf(members, user.Id); i >= 0 {
			members[i] = user
			affected[roomId] = slices.Clone(members)
		}
	}

	return affected
}

// Members returns the users present in the room.
func (t *Tracker) Members(roomId int) []types.UserSummary {
	members, ok := t.rooms[roomId]
	if !ok {
		return []types.UserSummary{}
	}

	return slices.Clone(members)
}

// IsPresent reports whether the user is present in the room.
func (t *Tracker) IsPresent(roomId, userId int) bool {
	return indexOf(t.rooms[roomId], userId) >= 0
}

func indexOf(members []types.UserSummary, userId int) int {
	return slices.IndexFunc(members, func(u types.UserSummary) bool {
		return u.Id == userId
	})
}
