package core

import (
	"fmt"
	"testing"
)

type discardTransport struct{}

func (discardTransport) Send(string) error { return nil }

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	hub := NewHub(Options{MaxUsersPerRoom: recipients + 1}, nil)

	sender := hub.Connect(discardTransport{}, "sender")
	sender.HandleMessage([]byte(`{"type":"join","roomId":"bench","user":{"userId":"sender"}}`))

	for i := range recipients {
		c := hub.Connect(discardTransport{}, fmt.Sprintf("c%d", i))
		c.HandleMessage(fmt.Appendf(nil, `{"type":"join","roomId":"bench","user":{"userId":"u%d"}}`, i))
	}

	msg := []byte(`{"type":"danmaku.send","payload":{"text":"bench"}}`)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.HandleMessage(msg)
	}
}

func BenchmarkRoomBroadcast10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
