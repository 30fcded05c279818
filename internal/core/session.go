package core

import "github.com/vovakirdan/hanabi-server/internal/proto"

// Transport is the only capability the hub requires from a connection.
// The host binding wires a concrete socket behind it.
type Transport interface {
	Send(text string) error
}

// session tracks one logical connection's membership state. roomID and user
// are set on a successful join and cleared on leave or disconnect.
type session struct {
	id        string
	transport Transport
	roomID    string
	user      *proto.User
}

// Conn is the handle returned by Hub.Connect. The host binding feeds raw
// frames into HandleMessage and calls Disconnect when the socket goes away.
type Conn struct {
	id  string
	hub *Hub
}

// ID returns the connection's session id.
func (c *Conn) ID() string {
	return c.id
}

// HandleMessage parses and dispatches one inbound frame.
func (c *Conn) HandleMessage(raw []byte) {
	c.hub.HandleMessage(c.id, raw)
}

// Disconnect removes the session. Safe to call more than once.
func (c *Conn) Disconnect(reason string) {
	c.hub.Disconnect(c.id, reason)
}

// Send pushes a hub->client message to this connection.
func (c *Conn) Send(msg any) {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	c.hub.sendTo(c.id, msg)
}
