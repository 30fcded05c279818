package proto

import "encoding/json"

// Client -> hub message types.
const (
	TypeJoin           = "join"
	TypeLeave          = "leave"
	TypeDanmakuSend    = "danmaku.send"
	TypeFireworkLaunch = "firework.launch"
	TypePing           = "ping"
)

// Hub -> client message types.
const (
	TypeJoined            = "joined"
	TypeRoomSnapshot      = "room.snapshot"
	TypeUserJoined        = "room.user_joined"
	TypeUserLeft          = "room.user_left"
	TypeDanmakuBroadcast  = "danmaku.broadcast"
	TypeFireworkBroadcast = "firework.broadcast"
	TypePong              = "pong"
	TypeError             = "error"
)

// Danmaku kinds. The hub stores the kind verbatim; rendering decides what
// each kind looks like.
const (
	KindNormal = "normal"
	KindTheme  = "theme"
	KindAvatar = "avatar"
)

// User identifies a room participant. Immutable for the duration of a
// session's room membership.
type User struct {
	UserID    string `json:"userId"`
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// ClientMessage is the decoded form of a client frame. Fields beyond Type
// are populated depending on the discriminator.
type ClientMessage struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"roomId,omitempty"`
	User    *User           `json:"user,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	TS      *int64          `json:"ts,omitempty"`
}

// DanmakuPayload is the body of a danmaku.send message.
type DanmakuPayload struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// DanmakuEvent is a broadcast danmaku as stored in room history and fanned
// out to members.
type DanmakuEvent struct {
	ID        string `json:"id"`
	RoomID    string `json:"roomId"`
	Text      string `json:"text"`
	Color     string `json:"color,omitempty"`
	Kind      string `json:"kind,omitempty"`
	User      User   `json:"user"`
	Timestamp int64  `json:"timestamp"`
}

// FireworkEvent carries an opaque launch payload. The hub never inspects
// Payload; it belongs to the rendering side.
type FireworkEvent struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"roomId"`
	Payload   json.RawMessage `json:"payload"`
	User      User            `json:"user"`
	Timestamp int64           `json:"timestamp"`
}

// Joined confirms room membership to the joining session.
type Joined struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId"`
	Self        User   `json:"self"`
	OnlineCount int    `json:"onlineCount"`
}

// Snapshot delivers the full member list and bounded history right after a
// join.
type Snapshot struct {
	Type            string          `json:"type"`
	RoomID          string          `json:"roomId"`
	Users           []User          `json:"users"`
	DanmakuHistory  []DanmakuEvent  `json:"danmakuHistory"`
	FireworkHistory []FireworkEvent `json:"fireworkHistory"`
}

// UserJoined notifies existing members that someone entered the room.
type UserJoined struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId"`
	User        User   `json:"user"`
	OnlineCount int    `json:"onlineCount"`
}

// UserLeft notifies remaining members after an explicit leave.
type UserLeft struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId"`
	UserID      string `json:"userId"`
	OnlineCount int    `json:"onlineCount"`
}

// DanmakuBroadcast fans a danmaku event out to all room members.
type DanmakuBroadcast struct {
	Type   string       `json:"type"`
	RoomID string       `json:"roomId"`
	Event  DanmakuEvent `json:"event"`
}

// FireworkBroadcast fans a firework event out to all room members.
type FireworkBroadcast struct {
	Type   string        `json:"type"`
	RoomID string        `json:"roomId"`
	Event  FireworkEvent `json:"event"`
}

// Pong answers a ping to the sender only.
type Pong struct {
	Type string `json:"type"`
	TS   int64  `json:"ts"`
}

// Error reports a protocol-level failure to the offending connection.
type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
