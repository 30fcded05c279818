package hanabi

import "encoding/json"

const (
	typeJoin           = "join"
	typeLeave          = "leave"
	typeDanmakuSend    = "danmaku.send"
	typeFireworkLaunch = "firework.launch"
	typePing           = "ping"

	typeJoined            = "joined"
	typeRoomSnapshot      = "room.snapshot"
	typeUserJoined        = "room.user_joined"
	typeUserLeft          = "room.user_left"
	typeDanmakuBroadcast  = "danmaku.broadcast"
	typeFireworkBroadcast = "firework.broadcast"
	typePong              = "pong"
	typeError             = "error"
)

// Danmaku kinds understood by renderers.
const (
	KindNormal = "normal"
	KindTheme  = "theme"
	KindAvatar = "avatar"
)

// User identifies this client inside a room.
type User struct {
	UserID    string `json:"userId"`
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// DanmakuPayload is what SendDanmaku puts on the wire.
type DanmakuPayload struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// DanmakuEvent is a danmaku broadcast received from the hub.
type DanmakuEvent struct {
	ID        string `json:"id"`
	RoomID    string `json:"roomId"`
	Text      string `json:"text"`
	Color     string `json:"color,omitempty"`
	Kind      string `json:"kind,omitempty"`
	User      User   `json:"user"`
	Timestamp int64  `json:"timestamp"`
}

// FireworkEvent is a firework broadcast. Payload is opaque to the
// transport; the rendering layer decodes it.
type FireworkEvent struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"roomId"`
	Payload   json.RawMessage `json:"payload"`
	User      User            `json:"user"`
	Timestamp int64           `json:"timestamp"`
}

// Snapshot is the room state delivered right after a join.
type Snapshot struct {
	RoomID          string          `json:"roomId"`
	Users           []User          `json:"users"`
	DanmakuHistory  []DanmakuEvent  `json:"danmakuHistory"`
	FireworkHistory []FireworkEvent `json:"fireworkHistory"`
}

// clientMessage is the outbound frame shape.
type clientMessage struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId,omitempty"`
	User    *User  `json:"user,omitempty"`
	Payload any    `json:"payload,omitempty"`
	TS      *int64 `json:"ts,omitempty"`
}

// serverMessage is the decoded inbound frame; fields beyond Type are
// populated depending on the discriminator.
type serverMessage struct {
	Type            string          `json:"type"`
	RoomID          string          `json:"roomId,omitempty"`
	Self            *User           `json:"self,omitempty"`
	User            *User           `json:"user,omitempty"`
	UserID          string          `json:"userId,omitempty"`
	OnlineCount     int             `json:"onlineCount,omitempty"`
	Users           []User          `json:"users,omitempty"`
	DanmakuHistory  []DanmakuEvent  `json:"danmakuHistory,omitempty"`
	FireworkHistory []FireworkEvent `json:"fireworkHistory,omitempty"`
	Event           json.RawMessage `json:"event,omitempty"`
	TS              int64           `json:"ts,omitempty"`
	Code            string          `json:"code,omitempty"`
	Message         string          `json:"message,omitempty"`
}
