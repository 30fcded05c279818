package hanabi

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// fakeSocket stands in for a WebSocket so queueing and reconnect behavior
// can be driven without a network.
type fakeSocket struct {
	mu      sync.Mutex
	writes  []string
	inbound chan []byte
	done    chan struct{}
	once    sync.Once
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		inbound: make(chan []byte, 16),
		done:    make(chan struct{}),
	}
}

func (s *fakeSocket) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-s.inbound:
		return data, nil
	case <-s.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeSocket) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, string(data))
	return nil
}

func (s *fakeSocket) Close(websocket.StatusCode, string) error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// serve delivers a frame as if the hub had sent it.
func (s *fakeSocket) serve(raw string) {
	s.inbound <- []byte(raw)
}

// drop simulates the server closing the connection.
func (s *fakeSocket) drop() {
	_ = s.Close(websocket.StatusGoingAway, "server gone")
}

func (s *fakeSocket) written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

type dialRecorder struct {
	mu    sync.Mutex
	socks []*fakeSocket
}

func (d *dialRecorder) dial(context.Context) (socket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := newFakeSocket()
	d.socks = append(d.socks, s)
	return s, nil
}

func (d *dialRecorder) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.socks)
}

func (d *dialRecorder) sock(i int) *fakeSocket {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.socks[i]
}

func newTestClient(t *testing.T, mutate func(*Config)) (*Client, *dialRecorder) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.ServerURL = "ws://hub.test/ws"
	cfg.RoomID = "room-a"
	cfg.User = User{UserID: "u1", Nickname: "A"}
	if mutate != nil {
		mutate(&cfg)
	}

	rec := &dialRecorder{}
	c := NewClient(cfg)
	c.dial = rec.dial
	t.Cleanup(func() { _ = c.Disconnect() })
	return c, rec
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

func TestConnectSendsJoinHandshake(t *testing.T) {
	c, rec := newTestClient(t, nil)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	writes := rec.sock(0).written()
	if len(writes) != 1 || !strings.Contains(writes[0], `"type":"join"`) {
		t.Fatalf("expected a single join frame, got %v", writes)
	}
	if !strings.Contains(writes[0], `"roomId":"room-a"`) || !strings.Contains(writes[0], `"userId":"u1"`) {
		t.Fatalf("join frame missing room or identity: %s", writes[0])
	}

	state := c.State()
	if !state.Connected || state.Joined {
		t.Fatalf("expected connected unjoined state, got %+v", state)
	}
}

func TestConnectIsNoopWhileOpen(t *testing.T) {
	c, rec := newTestClient(t, nil)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("second connect: %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("expected one dial, got %d", rec.count())
	}
}

func TestDomainMessagesQueueUntilJoined(t *testing.T) {
	c, rec := newTestClient(t, nil)
	_ = c.Connect(context.Background())
	sock := rec.sock(0)

	if err := c.SendDanmaku(DanmakuPayload{Text: "first"}); err != nil {
		t.Fatalf("send danmaku: %v", err)
	}
	if err := c.SendFirework(map[string]string{"kind": "theme"}); err != nil {
		t.Fatalf("send firework: %v", err)
	}

	// Nothing but the join handshake goes out before membership.
	if writes := sock.written(); len(writes) != 1 {
		t.Fatalf("messages sent before joined: %v", writes)
	}

	sock.serve(`{"type":"joined","roomId":"room-a","self":{"userId":"u1"},"onlineCount":1}`)

	waitFor(t, "queued flush", func() bool { return len(sock.written()) == 3 })

	writes := sock.written()
	if !strings.Contains(writes[1], "first") || !strings.Contains(writes[2], "theme") {
		t.Fatalf("queue not flushed in FIFO order: %v", writes)
	}

	// Later sends go straight through, and the queue never replays.
	if err := c.SendDanmaku(DanmakuPayload{Text: "live"}); err != nil {
		t.Fatalf("send after joined: %v", err)
	}
	if writes := sock.written(); len(writes) != 4 {
		t.Fatalf("expected exactly 4 frames, got %v", writes)
	}
}

func TestBroadcastProvesMembership(t *testing.T) {
	c, rec := newTestClient(t, nil)

	events := make(chan DanmakuEvent, 1)
	c.OnDanmaku(func(ev DanmakuEvent) { events <- ev })

	_ = c.Connect(context.Background())
	sock := rec.sock(0)

	_ = c.SendDanmaku(DanmakuPayload{Text: "queued"})
	sock.serve(`{"type":"danmaku.broadcast","roomId":"room-a","event":{"id":"room-a-d-1","roomId":"room-a","text":"hey","user":{"userId":"u2"},"timestamp":1}}`)

	select {
	case ev := <-events:
		if ev.Text != "hey" || ev.User.UserID != "u2" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("danmaku callback not fired")
	}

	// Receipt of a broadcast proves membership, so the queue flushed.
	waitFor(t, "defensive flush", func() bool { return len(sock.written()) == 2 })
	if !c.State().Joined {
		t.Fatal("broadcast did not mark the client joined")
	}
}

func TestSnapshotCallback(t *testing.T) {
	c, rec := newTestClient(t, nil)

	snapshots := make(chan Snapshot, 1)
	c.OnSnapshot(func(s Snapshot) { snapshots <- s })

	_ = c.Connect(context.Background())
	rec.sock(0).serve(`{"type":"room.snapshot","roomId":"room-a","users":[{"userId":"u1"},{"userId":"u2"}],"danmakuHistory":[{"id":"room-a-d-1","roomId":"room-a","text":"old","user":{"userId":"u2"},"timestamp":1}],"fireworkHistory":[]}`)

	select {
	case snap := <-snapshots:
		if len(snap.Users) != 2 || len(snap.DanmakuHistory) != 1 {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot callback not fired")
	}

	state := c.State()
	if !state.Joined || state.OnlineCount != 2 {
		t.Fatalf("snapshot did not update state: %+v", state)
	}
}

func TestProtocolErrorSurfaced(t *testing.T) {
	c, rec := newTestClient(t, nil)

	errs := make(chan error, 1)
	c.OnError(func(err error) { errs <- err })

	_ = c.Connect(context.Background())
	rec.sock(0).serve(`{"type":"error","code":"ROOM_FULL","message":"room is full"}`)

	select {
	case err := <-errs:
		var ce *ClientError
		if !errors.As(err, &ce) || ce.Code != "ROOM_FULL" {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error callback not fired")
	}
}

func TestReconnectAfterServerClose(t *testing.T) {
	c, rec := newTestClient(t, func(cfg *Config) {
		cfg.ReconnectInterval = 20 * time.Millisecond
	})

	_ = c.Connect(context.Background())
	rec.sock(0).drop()

	waitFor(t, "reconnect dial", func() bool { return rec.count() == 2 })

	// The fresh socket re-runs the join handshake.
	waitFor(t, "rejoin handshake", func() bool {
		writes := rec.sock(1).written()
		return len(writes) == 1 && strings.Contains(writes[0], `"type":"join"`)
	})
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	c, rec := newTestClient(t, func(cfg *Config) {
		cfg.ReconnectInterval = 60 * time.Millisecond
	})

	_ = c.Connect(context.Background())
	rec.sock(0).drop()
	waitFor(t, "close observed", func() bool { return !c.State().Connected })

	if err := c.Disconnect(); err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("reconnect fired after manual disconnect, dials = %d", rec.count())
	}
}

func TestManualDisconnectSendsLeave(t *testing.T) {
	c, rec := newTestClient(t, nil)

	_ = c.Connect(context.Background())
	sock := rec.sock(0)
	_ = c.SendDanmaku(DanmakuPayload{Text: "never sent"})

	if err := c.Disconnect(); err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	writes := sock.written()
	last := writes[len(writes)-1]
	if !strings.Contains(last, `"type":"leave"`) {
		t.Fatalf("expected leave frame, got %v", writes)
	}
	// The pending queue is cleared, not flushed.
	for _, w := range writes {
		if strings.Contains(w, "never sent") {
			t.Fatalf("queued message leaked on disconnect: %v", writes)
		}
	}

	time.Sleep(50 * time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("manual close scheduled a reconnect, dials = %d", rec.count())
	}
}
