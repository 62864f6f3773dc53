package pose

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Message is the wire envelope carrying one frame from a pose front end.
// A nil Landmarks field means no person was detected.
type Message struct {
	Type      string `json:"type,omitempty" msgpack:"type,omitempty"`
	Landmarks Frame  `json:"landmarks" msgpack:"landmarks"`
	Timestamp int64  `json:"timestamp,omitempty" msgpack:"timestamp,omitempty"`
}

// Message types understood alongside plain frames.
const (
	MessageFrame = ""
	MessageReset = "reset"
)

// DecodeJSON parses a JSON-encoded Message.
func DecodeJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrMalformedFrame, err)
	}
	return &msg, nil
}

// DecodeMsgpack parses a msgpack-encoded Message.
func DecodeMsgpack(data []byte) (*Message, error) {
	var msg Message
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: decode msgpack: %v", ErrMalformedFrame, err)
	}
	return &msg, nil
}

// EncodeJSON serializes a Message as JSON.
func EncodeJSON(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}

// EncodeMsgpack serializes a Message as msgpack.
func EncodeMsgpack(msg *Message) ([]byte, error) {
	return msgpack.Marshal(msg)
}
