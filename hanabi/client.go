package hanabi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// socket abstracts one bidirectional text-frame connection. Tests inject
// fakes through Client.dial.
type socket interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Client owns one socket at a time, performs the join handshake, queues
// outbound domain messages until the room confirms membership, and
// re-dials on a fixed interval after a non-manual close.
type Client struct {
	cfg        Config
	logger     Logger
	dispatcher dispatcher

	mu             sync.Mutex
	sock           socket
	dialing        bool
	manualClose    bool
	state          State
	pending        [][]byte
	reconnectTimer *time.Timer

	dial func(ctx context.Context) (socket, error)
}

// NewClient constructs a client with provided config. Use DefaultConfig()
// as a starting point.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:    cfg,
		logger: noopLogger{},
		state:  State{RoomID: cfg.RoomID},
	}
	c.dial = c.dialWebSocket
	return c
}

// SetLogger overrides logger (optional).
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.logger = l
}

// OnStateChange registers a callback for connection state transitions.
func (c *Client) OnStateChange(fn func(State)) { c.dispatcher.onStateChange = fn }

// OnSnapshot registers a callback for room snapshots.
func (c *Client) OnSnapshot(fn func(Snapshot)) { c.dispatcher.onSnapshot = fn }

// OnDanmaku registers a callback for danmaku broadcasts.
func (c *Client) OnDanmaku(fn func(DanmakuEvent)) { c.dispatcher.onDanmaku = fn }

// OnFirework registers a callback for firework broadcasts.
func (c *Client) OnFirework(fn func(FireworkEvent)) { c.dispatcher.onFirework = fn }

// OnError registers a callback for transport and protocol errors.
func (c *Client) OnError(fn func(error)) { c.dispatcher.onError = fn }

// Connect dials the server and sends the join handshake. A no-op when the
// socket is already open or opening.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.sock != nil || c.dialing {
		c.mu.Unlock()
		return nil
	}
	c.dialing = true
	c.manualClose = false
	c.mu.Unlock()

	sock, err := c.dial(ctx)

	c.mu.Lock()
	c.dialing = false
	if err != nil {
		c.mu.Unlock()
		return wrapError(ErrCodeConnect, "failed to open connection", err)
	}
	if c.manualClose {
		// Disconnect raced the dial; drop the fresh socket.
		c.mu.Unlock()
		_ = sock.Close(websocket.StatusNormalClosure, "client closed")
		return nil
	}

	c.sock = sock
	c.state.Connected = true
	c.state.Joined = false
	state := c.state

	join, marshalErr := json.Marshal(clientMessage{
		Type:   typeJoin,
		RoomID: c.cfg.RoomID,
		User:   &c.cfg.User,
	})
	if marshalErr == nil {
		if writeErr := c.writeLocked(join); writeErr != nil {
			c.logger.Warn("join handshake write failed", map[string]any{"error": writeErr.Error()})
		}
	}
	c.mu.Unlock()

	c.dispatcher.fireStateChange(state)
	go c.readLoop(sock)
	return nil
}

// Disconnect closes the socket manually: reconnect is suppressed, the
// pending queue is cleared, and any scheduled reconnect is cancelled.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.manualClose = true
	c.pending = nil
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}

	sock := c.sock
	c.sock = nil
	changed := c.state.Connected || c.state.Joined
	c.state.Connected = false
	c.state.Joined = false
	state := c.state

	if sock != nil {
		if leave, err := json.Marshal(clientMessage{Type: typeLeave}); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), c.cfg.WriteTimeout)
			_ = sock.Write(ctx, leave)
			cancel()
		}
	}
	c.mu.Unlock()

	if changed {
		c.dispatcher.fireStateChange(state)
	}
	if sock == nil {
		return nil
	}
	return sock.Close(websocket.StatusNormalClosure, "client close")
}

// SendDanmaku publishes a danmaku to the joined room. The message is
// queued while the socket is down or membership is unconfirmed.
func (c *Client) SendDanmaku(payload DanmakuPayload) error {
	return c.sendDomain(clientMessage{Type: typeDanmakuSend, Payload: payload})
}

// SendFirework publishes an opaque firework command to the joined room.
// Queued under the same rules as SendDanmaku.
func (c *Client) SendFirework(payload any) error {
	return c.sendDomain(clientMessage{Type: typeFireworkLaunch, Payload: payload})
}

// Ping asks the hub to echo a timestamp.
func (c *Client) Ping(ts int64) error {
	data, err := json.Marshal(clientMessage{Type: typePing, TS: &ts})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sock == nil {
		return newError(ErrCodeNotConnected, "socket is not open")
	}
	return c.writeLocked(data)
}

// State returns the current transport state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) sendDomain(msg clientMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sock == nil || !c.state.Joined {
		c.pending = append(c.pending, data)
		return nil
	}
	if err := c.writeLocked(data); err != nil {
		return wrapError(ErrCodeTransport, "write failed", err)
	}
	return nil
}

// writeLocked sends one frame over the live socket. Callers hold c.mu.
func (c *Client) writeLocked(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.WriteTimeout)
	defer cancel()
	return c.sock.Write(ctx, data)
}

// flushPendingLocked drains the queue oldest-first once membership is
// confirmed. Callers hold c.mu.
func (c *Client) flushPendingLocked() {
	if c.sock == nil || !c.state.Joined {
		return
	}
	for _, data := range c.pending {
		if err := c.writeLocked(data); err != nil {
			c.logger.Warn("flush pending message", map[string]any{"error": err.Error()})
		}
	}
	c.pending = nil
}

func (c *Client) readLoop(sock socket) {
	ctx := context.Background()
	for {
		data, err := sock.Read(ctx)
		if err != nil {
			c.handleClose(sock, err)
			return
		}
		c.handleFrame(data)
	}
}

// handleClose runs when the socket's read side fails, which is how a close
// surfaces. Reconnect is driven only from here, never from error frames.
func (c *Client) handleClose(sock socket, err error) {
	c.mu.Lock()
	if c.sock != sock && c.sock != nil {
		// A newer socket took over; this loop is stale.
		c.mu.Unlock()
		return
	}
	c.sock = nil
	changed := c.state.Connected || c.state.Joined
	c.state.Connected = false
	c.state.Joined = false
	state := c.state

	manual := c.manualClose
	if !manual && c.cfg.Reconnect && c.reconnectTimer == nil {
		c.reconnectTimer = time.AfterFunc(c.cfg.ReconnectInterval, c.reconnectNow)
	}
	c.mu.Unlock()

	if changed {
		c.dispatcher.fireStateChange(state)
	}
	if !manual && !isExpectedDisconnect(err) {
		c.dispatcher.fireError(wrapError(ErrCodeTransport, "connection lost", err))
	}
}

func (c *Client) reconnectNow() {
	c.mu.Lock()
	c.reconnectTimer = nil
	manual := c.manualClose
	c.mu.Unlock()
	if manual {
		return
	}
	if err := c.Connect(context.Background()); err != nil {
		c.dispatcher.fireError(err)
	}
}

func (c *Client) handleFrame(data []byte) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("drop unparseable frame", map[string]any{"error": err.Error()})
		return
	}

	switch msg.Type {
	case typeJoined:
		state := c.markJoined(msg.RoomID, msg.OnlineCount)
		c.dispatcher.fireStateChange(state)

	case typeRoomSnapshot:
		state := c.markJoined(msg.RoomID, len(msg.Users))
		c.dispatcher.fireStateChange(state)
		c.dispatcher.fireSnapshot(Snapshot{
			RoomID:          msg.RoomID,
			Users:           msg.Users,
			DanmakuHistory:  msg.DanmakuHistory,
			FireworkHistory: msg.FireworkHistory,
		})

	case typeUserJoined, typeUserLeft:
		state := c.markJoined(msg.RoomID, msg.OnlineCount)
		c.dispatcher.fireStateChange(state)

	case typeDanmakuBroadcast:
		// Receiving a broadcast proves membership even if the joined
		// reply was lost or reordered.
		c.ensureJoined(msg.RoomID)
		var ev DanmakuEvent
		if err := json.Unmarshal(msg.Event, &ev); err != nil {
			c.logger.Warn("drop malformed danmaku event", map[string]any{"error": err.Error()})
			return
		}
		c.dispatcher.fireDanmaku(ev)

	case typeFireworkBroadcast:
		c.ensureJoined(msg.RoomID)
		var ev FireworkEvent
		if err := json.Unmarshal(msg.Event, &ev); err != nil {
			c.logger.Warn("drop malformed firework event", map[string]any{"error": err.Error()})
			return
		}
		c.dispatcher.fireFirework(ev)

	case typePong:
		c.logger.Debug("pong", map[string]any{"ts": msg.TS})

	case typeError:
		c.dispatcher.fireError(newError(msg.Code, msg.Message))
	}
}

// markJoined records confirmed membership and flushes the pending queue.
func (c *Client) markJoined(roomID string, onlineCount int) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if roomID != "" {
		c.state.RoomID = roomID
	}
	c.state.Joined = true
	c.state.OnlineCount = onlineCount
	c.flushPendingLocked()
	return c.state
}

func (c *Client) ensureJoined(roomID string) {
	c.mu.Lock()
	if !c.state.Joined {
		c.state.Joined = true
		if roomID != "" {
			c.state.RoomID = roomID
		}
		c.flushPendingLocked()
		state := c.state
		c.mu.Unlock()
		c.dispatcher.fireStateChange(state)
		return
	}
	c.mu.Unlock()
}

func (c *Client) dialWebSocket(ctx context.Context) (socket, error) {
	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	var opts *websocket.DialOptions
	if len(c.cfg.Protocols) > 0 {
		opts = &websocket.DialOptions{Subprotocols: c.cfg.Protocols}
	}

	ws, _, err := websocket.Dial(dialCtx, c.cfg.ServerURL, opts)
	if err != nil {
		return nil, err
	}
	return &wsSocket{conn: ws}, nil
}

func isExpectedDisconnect(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}

// wsSocket adapts coder/websocket to the socket seam.
type wsSocket struct {
	conn *websocket.Conn
}

func (s *wsSocket) Read(ctx context.Context) ([]byte, error) {
	_, data, err := s.conn.Read(ctx)
	return data, err
}

func (s *wsSocket) Write(ctx context.Context, data []byte) error {
	return s.conn.Write(ctx, websocket.MessageText, data)
}

func (s *wsSocket) Close(code websocket.StatusCode, reason string) error {
	return s.conn.Close(code, reason)
}
