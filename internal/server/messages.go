package server

import (
	"encoding/json"
	"time"
)

// Message type discriminators, fixed for wire compatibility.
const (
	TypeMsg        = "msg"
	TypeBurnSignal = "burn_signal"
	TypeBurnAll    = "burn_all"
	TypeError      = "error"
)

const defaultSender = "Anonymous"

// ClientMessage is a frame received from a member. Payload is an opaque blob,
// typically ciphertext produced by the sending client; the relay never
// inspects it.
type ClientMessage struct {
	Type    string `json:"type"`
	Payload string `json:"payload,omitempty"`
	Sender  string `json:"sender,omitempty"`
}

// ServerMessage is a frame relayed to members.
type ServerMessage struct {
	Type      string  `json:"type"`
	Payload   string  `json:"payload,omitempty"`
	Sender    string  `json:"sender,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
	Message   string  `json:"message,omitempty"`
}

// RelayMsg builds the outbound frame for an inbound payload, stamping the
// server-side timestamp and defaulting the sender name.
func RelayMsg(payload, sender string) *ServerMessage {
	if sender == "" {
		sender = defaultSender
	}

	return &ServerMessage{
		Type:      TypeMsg,
		Payload:   payload,
		Sender:    sender,
		Timestamp: Now(),
	}
}

func BurnAll() *ServerMessage {
	return &ServerMessage{Type: TypeBurnAll}
}

func ErrRoomGone() *ServerMessage {
	return &ServerMessage{
		Type:    TypeError,
		Message: "Room expired or does not exist",
	}
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// Now returns the current time as fractional seconds since the epoch, the
// timestamp format clients expect.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
