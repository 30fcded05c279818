package proto

import (
	"encoding/json"
	"fmt"
)

// Codec translates between wire frames and protocol messages. The hub only
// ever goes through this seam, so a binary encoding could replace JSON
// without touching hub logic.
type Codec interface {
	Encode(msg any) (string, error)
	Decode(raw []byte) (*ClientMessage, error)
}

// JSONCodec is the default text encoding.
type JSONCodec struct{}

// Encode marshals a hub->client message into a text frame.
func (JSONCodec) Encode(msg any) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return string(data), nil
}

// Decode parses a client frame. The discriminator is not validated here;
// unknown types are the hub's call.
func (JSONCodec) Decode(raw []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}
