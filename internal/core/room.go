package core

import (
	"github.com/vovakirdan/hanabi-server/internal/proto"
)

// room holds the broadcast scope shared by the sessions that joined it.
// Rooms are created on first join and deleted as soon as the last member
// leaves; the hub never retains an empty room.
type room struct {
	id              string
	connections     map[string]struct{}
	users           map[string]proto.User
	danmakuHistory  []proto.DanmakuEvent
	fireworkHistory []proto.FireworkEvent
	seq             int64
}

func newRoom(id string) *room {
	return &room{
		id:          id,
		connections: make(map[string]struct{}),
		users:       make(map[string]proto.User),
		seq:         1,
	}
}

func (r *room) member(connectionID string) bool {
	_, ok := r.connections[connectionID]
	return ok
}

func (r *room) add(connectionID string, user proto.User) {
	r.connections[connectionID] = struct{}{}
	r.users[connectionID] = user
}

func (r *room) remove(connectionID string) {
	delete(r.connections, connectionID)
	delete(r.users, connectionID)
}

func (r *room) size() int {
	return len(r.connections)
}

func (r *room) userList() []proto.User {
	users := make([]proto.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users
}

func (r *room) nextSeq() int64 {
	seq := r.seq
	r.seq++
	return seq
}

// trimHistory drops the oldest entries beyond limit, keeping arrival order.
func trimHistory[T any](history []T, limit int) []T {
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
