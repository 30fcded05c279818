package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/hanabi-server/internal/proto"
	"github.com/vovakirdan/hanabi-server/internal/utils"
)

// Default resource bounds.
const (
	DefaultMaxUsersPerRoom  = 200
	DefaultHistoryLimit     = 50
	DefaultMaxDanmakuLength = 64
)

// Options bounds a hub instance. Zero values fall back to the defaults.
type Options struct {
	MaxUsersPerRoom  int
	HistoryLimit     int
	MaxDanmakuLength int
	Codec            proto.Codec
}

func (o Options) withDefaults() Options {
	if o.MaxUsersPerRoom <= 0 {
		o.MaxUsersPerRoom = DefaultMaxUsersPerRoom
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = DefaultHistoryLimit
	}
	if o.MaxDanmakuLength <= 0 {
		o.MaxDanmakuLength = DefaultMaxDanmakuLength
	}
	if o.Codec == nil {
		o.Codec = proto.JSONCodec{}
	}
	return o
}

// Hub owns all session and room state. All mutation goes through its
// message-handling entry points; a single mutex serializes them, so two
// invocations never interleave.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*session
	rooms    map[string]*room
	opts     Options
	codec    proto.Codec
	log      *zerolog.Logger
}

// NewHub constructs an independent hub instance.
func NewHub(opts Options, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	opts = opts.withDefaults()
	return &Hub{
		sessions: make(map[string]*session),
		rooms:    make(map[string]*room),
		opts:     opts,
		codec:    opts.Codec,
		log:      logger,
	}
}

// Connect registers a new session bound to transport and returns its
// handle. An empty id gets a generated one.
func (h *Hub) Connect(transport Transport, id string) *Conn {
	if id == "" {
		id = utils.NewID("conn")
	}

	h.mu.Lock()
	h.sessions[id] = &session{id: id, transport: transport}
	h.mu.Unlock()

	return &Conn{id: id, hub: h}
}

// Disconnect removes the session from its room (without notifying other
// members) and from the session table. Unknown or already-removed ids are
// a no-op.
func (h *Hub) Disconnect(connectionID, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[connectionID]
	if !ok {
		return
	}

	h.leaveRoom(sess, false)
	delete(h.sessions, connectionID)

	if reason != "" {
		h.log.Info().Str("connection_id", connectionID).Str("reason", reason).Msg("connection closed")
	}
}

// HandleMessage decodes and dispatches one inbound frame. Failures are
// reported only to the originating connection and never corrupt state.
func (h *Hub) HandleMessage(connectionID string, raw []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg, err := h.codec.Decode(raw)
	if err != nil {
		h.sendError(connectionID, hubError(ErrCodeBadMessage, "invalid message payload"))
		return
	}

	sess, ok := h.sessions[connectionID]
	if !ok {
		return
	}

	switch msg.Type {
	case proto.TypeJoin:
		h.joinRoom(sess, msg)
	case proto.TypeLeave:
		h.leaveRoom(sess, true)
	case proto.TypeDanmakuSend:
		h.handleDanmaku(sess, msg.Payload)
	case proto.TypeFireworkLaunch:
		h.handleFirework(sess, msg.Payload)
	case proto.TypePing:
		ts := time.Now().UnixMilli()
		if msg.TS != nil {
			ts = *msg.TS
		}
		h.sendTo(connectionID, proto.Pong{Type: proto.TypePong, TS: ts})
	default:
		h.sendError(connectionID, hubError(ErrCodeUnsupportedMessage, "unsupported message type"))
	}
}

// Stats reports the number of live rooms and sessions.
func (h *Hub) Stats() (rooms, connections int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms), len(h.sessions)
}

// RoomOnlineCount returns the member count of a room, zero if it does not
// exist.
func (h *Hub) RoomOnlineCount(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[roomID]; ok {
		return r.size()
	}
	return 0
}

func (h *Hub) joinRoom(sess *session, msg *proto.ClientMessage) {
	roomID := strings.TrimSpace(msg.RoomID)
	if roomID == "" {
		h.sendError(sess.id, hubError(ErrCodeRoomIDRequired, "roomId is required"))
		return
	}
	if msg.User == nil || strings.TrimSpace(msg.User.UserID) == "" {
		h.sendError(sess.id, hubError(ErrCodeUserIDRequired, "user.userId is required"))
		return
	}

	// Switching rooms leaves the old one silently; only an explicit leave
	// notifies the members left behind.
	if sess.roomID != "" && sess.roomID != roomID {
		h.leaveRoom(sess, false)
	}

	r, ok := h.rooms[roomID]
	if !ok {
		r = newRoom(roomID)
		h.rooms[roomID] = r
	}
	if r.size() >= h.opts.MaxUsersPerRoom && !r.member(sess.id) {
		h.sendError(sess.id, hubError(ErrCodeRoomFull, "room is full"))
		return
	}

	identity := proto.User{
		UserID:    strings.TrimSpace(msg.User.UserID),
		Nickname:  msg.User.Nickname,
		AvatarURL: msg.User.AvatarURL,
	}

	wasMember := r.member(sess.id)
	r.add(sess.id, identity)
	sess.roomID = roomID
	sess.user = &identity

	h.sendTo(sess.id, proto.Joined{
		Type:        proto.TypeJoined,
		RoomID:      roomID,
		Self:        identity,
		OnlineCount: r.size(),
	})
	h.sendTo(sess.id, proto.Snapshot{
		Type:            proto.TypeRoomSnapshot,
		RoomID:          roomID,
		Users:           r.userList(),
		DanmakuHistory:  append([]proto.DanmakuEvent(nil), r.danmakuHistory...),
		FireworkHistory: append([]proto.FireworkEvent(nil), r.fireworkHistory...),
	})

	if !wasMember {
		h.broadcast(roomID, proto.UserJoined{
			Type:        proto.TypeUserJoined,
			RoomID:      roomID,
			User:        identity,
			OnlineCount: r.size(),
		}, sess.id)
	}
}

func (h *Hub) leaveRoom(sess *session, notify bool) {
	roomID := sess.roomID
	if roomID == "" {
		return
	}

	r, ok := h.rooms[roomID]
	if !ok {
		sess.roomID = ""
		sess.user = nil
		return
	}

	var leavingUserID string
	if u, ok := r.users[sess.id]; ok {
		leavingUserID = u.UserID
	}

	r.remove(sess.id)
	sess.roomID = ""
	sess.user = nil

	if notify && leavingUserID != "" {
		h.broadcast(roomID, proto.UserLeft{
			Type:        proto.TypeUserLeft,
			RoomID:      roomID,
			UserID:      leavingUserID,
			OnlineCount: r.size(),
		}, "")
	}

	if r.size() == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) handleDanmaku(sess *session, payload []byte) {
	if sess.roomID == "" || sess.user == nil {
		h.sendError(sess.id, hubError(ErrCodeNotJoined, "join a room before sending danmaku"))
		return
	}

	r, ok := h.rooms[sess.roomID]
	if !ok {
		h.sendError(sess.id, hubError(ErrCodeRoomNotFound, "room does not exist"))
		return
	}

	var p proto.DanmakuPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.sendError(sess.id, hubError(ErrCodeBadMessage, "invalid danmaku payload"))
		return
	}

	text := strings.TrimSpace(p.Text)
	if runes := []rune(text); len(runes) > h.opts.MaxDanmakuLength {
		text = string(runes[:h.opts.MaxDanmakuLength])
	}
	if text == "" {
		h.sendError(sess.id, hubError(ErrCodeEmptyDanmaku, "danmaku text cannot be empty"))
		return
	}

	event := proto.DanmakuEvent{
		ID:        fmt.Sprintf("%s-d-%d", sess.roomID, r.nextSeq()),
		RoomID:    sess.roomID,
		Text:      text,
		Color:     p.Color,
		Kind:      p.Kind,
		User:      *sess.user,
		Timestamp: time.Now().UnixMilli(),
	}

	r.danmakuHistory = trimHistory(append(r.danmakuHistory, event), h.opts.HistoryLimit)

	h.broadcast(sess.roomID, proto.DanmakuBroadcast{
		Type:   proto.TypeDanmakuBroadcast,
		RoomID: sess.roomID,
		Event:  event,
	}, "")
}

func (h *Hub) handleFirework(sess *session, payload []byte) {
	if sess.roomID == "" || sess.user == nil {
		h.sendError(sess.id, hubError(ErrCodeNotJoined, "join a room before launching fireworks"))
		return
	}

	r, ok := h.rooms[sess.roomID]
	if !ok {
		h.sendError(sess.id, hubError(ErrCodeRoomNotFound, "room does not exist"))
		return
	}

	event := proto.FireworkEvent{
		ID:        fmt.Sprintf("%s-f-%d", sess.roomID, r.nextSeq()),
		RoomID:    sess.roomID,
		Payload:   payload,
		User:      *sess.user,
		Timestamp: time.Now().UnixMilli(),
	}

	r.fireworkHistory = trimHistory(append(r.fireworkHistory, event), h.opts.HistoryLimit)

	h.broadcast(sess.roomID, proto.FireworkBroadcast{
		Type:   proto.TypeFireworkBroadcast,
		RoomID: sess.roomID,
		Event:  event,
	}, "")
}

// sendTo encodes and delivers one message. A failing transport is logged
// and never aborts the caller. Must be called with the hub lock held.
func (h *Hub) sendTo(connectionID string, msg any) {
	sess, ok := h.sessions[connectionID]
	if !ok {
		return
	}

	text, err := h.codec.Encode(msg)
	if err != nil {
		h.log.Error().Err(err).Str("connection_id", connectionID).Msg("encode outbound message")
		return
	}
	if err := sess.transport.Send(text); err != nil {
		h.log.Warn().Err(err).Str("connection_id", connectionID).Msg("send to connection")
	}
}

func (h *Hub) broadcast(roomID string, msg any, excludeConnectionID string) {
	r, ok := h.rooms[roomID]
	if !ok {
		return
	}

	for connectionID := range r.connections {
		if excludeConnectionID != "" && connectionID == excludeConnectionID {
			continue
		}
		h.sendTo(connectionID, msg)
	}
}

func (h *Hub) sendError(connectionID string, err *HubError) {
	h.sendTo(connectionID, proto.Error{
		Type:    proto.TypeError,
		Code:    err.Code,
		Message: err.Message,
	})
}
