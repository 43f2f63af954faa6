package transport

import (
	"encoding/json"
)

// Encode serializes a message envelope to a single JSON frame and enforces
// the size limit. maxSize <= 0 disables the check.
func Encode(msg *Message, maxSize int) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, &InvalidMessageError{Reason: "failed to encode envelope", Err: err}
	}
	if maxSize > 0 && len(b) > maxSize {
		return nil, &SizeError{Size: len(b), Max: maxSize}
	}
	return b, nil
}

// Decode parses a single JSON frame into a message envelope, enforcing the
// size limit before parsing. maxSize <= 0 disables the check.
func Decode(data []byte, maxSize int) (*Message, error) {
	if maxSize > 0 && len(data) > maxSize {
		return nil, &SizeError{Size: len(data), Max: maxSize}
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &InvalidMessageError{Reason: "failed to decode envelope", Err: err}
	}
	if msg.Content.Type == ContentTypeControl {
		if err := msg.Content.Control.Validate(); err != nil {
			return nil, &InvalidMessageError{Reason: "invalid control message", Err: err}
		}
	}
	return &msg, nil
}
