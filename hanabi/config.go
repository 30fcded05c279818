package hanabi

import "time"

// Config controls how the client connects and which room it joins.
// Start from DefaultConfig and fill in ServerURL, RoomID and User.
type Config struct {
	ServerURL string
	RoomID    string
	User      User

	// Optional WebSocket sub-protocols.
	Protocols []string

	// Reconnect re-dials after a non-manual socket close.
	Reconnect         bool
	ReconnectInterval time.Duration

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Reconnect:         true,
		ReconnectInterval: 1500 * time.Millisecond,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = 1500 * time.Millisecond
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	return c
}
