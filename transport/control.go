package transport

import (
	"fmt"
	"time"
)

// ControlAction discriminates the kinds of control messages.
type ControlAction string

const (
	ControlPing      ControlAction = "ping"
	ControlPong      ControlAction = "pong"
	ControlClose     ControlAction = "close"
	ControlAck       ControlAction = "ack"
	ControlNegotiate ControlAction = "negotiate"
)

// ControlMessage is a transport-level signal that never reaches the
// dispatcher. Which fields are meaningful depends on Action: ping and pong
// carry Timestamp, close optionally carries Reason, ack carries MessageID,
// and negotiate carries Parameters.
type ControlMessage struct {
	Action     ControlAction     `json:"action"`
	Timestamp  int64             `json:"timestamp,omitzero"`
	Reason     string            `json:"reason,omitzero"`
	MessageID  string            `json:"messageId,omitzero"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// NewPing builds a liveness probe stamped with the current time.
func NewPing() *ControlMessage {
	return &ControlMessage{Action: ControlPing, Timestamp: time.Now().UnixMilli()}
}

// NewPong builds the reply to a ping, echoing its timestamp.
func NewPong(ping *ControlMessage) *ControlMessage {
	return &ControlMessage{Action: ControlPong, Timestamp: ping.Timestamp}
}

// NewClose builds a clean-shutdown notice with an optional reason.
func NewClose(reason string) *ControlMessage {
	return &ControlMessage{Action: ControlClose, Reason: reason}
}

// NewAck builds a receipt acknowledgment for the given message ID.
func NewAck(messageID string) *ControlMessage {
	return &ControlMessage{Action: ControlAck, MessageID: messageID}
}

// NewNegotiate builds a parameter negotiation offer.
func NewNegotiate(parameters map[string]string) *ControlMessage {
	return &ControlMessage{Action: ControlNegotiate, Parameters: parameters}
}

// Validate checks that the action is known and its required fields are set.
func (m *ControlMessage) Validate() error {
	switch m.Action {
	case ControlPing, ControlPong, ControlClose, ControlNegotiate:
		return nil
	case ControlAck:
		if m.MessageID == "" {
			return fmt.Errorf("ack control message requires a messageId")
		}
		return nil
	default:
		return fmt.Errorf("unknown control action %q", m.Action)
	}
}
