package ws

import "encoding/json"

// Frame is the inbound envelope. Data stays raw so the relay can forward
// message payloads verbatim and only decode the fields it needs.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Message is the outbound envelope.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Inbound payloads. Numeric identifiers (msg_id, ping) are relayed as raw
// JSON so clients may use numbers or strings interchangeably.
type tokenPayload struct {
	Token string `json:"token"`
}

type confirmDeliveryPayload struct {
	SenderSocketID string          `json:"sender_socket_id"`
	MsgID          json.RawMessage `json:"msg_id"`
}

type shareMetricsPayload struct {
	Token string          `json:"token"`
	Ping  json.RawMessage `json:"ping"`
}

// Outbound payloads.
type ConnectedPayload struct {
	SocketID string `json:"socket_id"`
}

type StatusPayload struct {
	Count int `json:"count"`
}

type DeliveredPayload struct {
	MsgID json.RawMessage `json:"msg_id"`
}

type PeerMetricsPayload struct {
	Ping json.RawMessage `json:"ping"`
}

type PingCheckPayload struct {
	Timestamp float64 `json:"timestamp"`
}

func NewConnected(socketID string) *Message {
	return &Message{
		Event: EventConnected,
		Data:  ConnectedPayload{SocketID: socketID},
	}
}

func NewUpdateStatus(count int) *Message {
	return &Message{
		Event: EventUpdateStatus,
		Data:  StatusPayload{Count: count},
	}
}

// NewRelayedMessage forwards the sender's payload untouched.
func NewRelayedMessage(data json.RawMessage) *Message {
	return &Message{
		Event: EventMessage,
		Data:  data,
	}
}

func NewMsgDelivered(msgID json.RawMessage) *Message {
	return &Message{
		Event: EventMsgDelivered,
		Data:  DeliveredPayload{MsgID: msgID},
	}
}

func NewDisplayTyping() *Message {
	return &Message{
		Event: EventDisplayTyping,
		Data:  struct{}{},
	}
}

func NewHideTyping() *Message {
	return &Message{
		Event: EventHideTyping,
		Data:  struct{}{},
	}
}

func NewUpdatePeerMetrics(ping json.RawMessage) *Message {
	return &Message{
		Event: EventUpdatePeerMetrics,
		Data:  PeerMetricsPayload{Ping: ping},
	}
}

func NewPingCheck(timestamp float64) *Message {
	return &Message{
		Event: EventPingCheck,
		Data:  PingCheckPayload{Timestamp: timestamp},
	}
}

func NewRoomExpired() *Message {
	return &Message{
		Event: EventRoomExpired,
		Data:  struct{}{},
	}
}
