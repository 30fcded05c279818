package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/vovakirdan/hanabi-server/internal/proto"
)

// recorder captures everything the hub sends to one connection.
type recorder struct {
	frames []string
	fail   bool
}

func (r *recorder) Send(text string) error {
	if r.fail {
		return errors.New("transport down")
	}
	r.frames = append(r.frames, text)
	return nil
}

// frame is the decoded union of all hub->client messages, for assertions.
type frame struct {
	Type            string                `json:"type"`
	RoomID          string                `json:"roomId"`
	Code            string                `json:"code"`
	Message         string                `json:"message"`
	Self            *proto.User           `json:"self"`
	User            *proto.User           `json:"user"`
	UserID          string                `json:"userId"`
	OnlineCount     int                   `json:"onlineCount"`
	Users           []proto.User          `json:"users"`
	DanmakuHistory  []proto.DanmakuEvent  `json:"danmakuHistory"`
	FireworkHistory []proto.FireworkEvent `json:"fireworkHistory"`
	Event           json.RawMessage       `json:"event"`
	TS              int64                 `json:"ts"`
}

type testClient struct {
	t    *testing.T
	rec  *recorder
	conn *Conn
}

func newTestClient(t *testing.T, hub *Hub, id string) *testClient {
	t.Helper()
	rec := &recorder{}
	return &testClient{t: t, rec: rec, conn: hub.Connect(rec, id)}
}

func (c *testClient) send(raw string) {
	c.conn.HandleMessage([]byte(raw))
}

func (c *testClient) join(roomID, userID string) {
	c.send(fmt.Sprintf(`{"type":"join","roomId":%q,"user":{"userId":%q}}`, roomID, userID))
}

func (c *testClient) danmaku(text string) {
	c.send(fmt.Sprintf(`{"type":"danmaku.send","payload":{"text":%q}}`, text))
}

// frames decodes every captured frame of the given type, in arrival order.
func (c *testClient) frames(msgType string) []frame {
	c.t.Helper()

	var out []frame
	for _, raw := range c.rec.frames {
		var f frame
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			c.t.Fatalf("malformed frame %q: %v", raw, err)
		}
		if f.Type == msgType {
			out = append(out, f)
		}
	}
	return out
}

// mustFrame returns the single frame of the given type.
func (c *testClient) mustFrame(msgType string) frame {
	c.t.Helper()

	frames := c.frames(msgType)
	if len(frames) != 1 {
		c.t.Fatalf("expected exactly one %q frame, got %d", msgType, len(frames))
	}
	return frames[0]
}

func decodeDanmaku(t *testing.T, raw json.RawMessage) proto.DanmakuEvent {
	t.Helper()

	var ev proto.DanmakuEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("decode danmaku event: %v", err)
	}
	return ev
}
