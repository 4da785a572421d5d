package ws

// Inbound event names.
const (
	EventJoin            = "join"
	EventLeave           = "leave"
	EventMessage         = "message"
	EventConfirmDelivery = "confirm_delivery"
	EventTyping          = "typing"
	EventStopTyping      = "stop_typing"
	EventPingCheck       = "ping_check"
	EventShareMetrics    = "share_metrics"
)

// Outbound event names.
const (
	EventConnected         = "connected"
	EventUpdateStatus      = "update_status"
	EventMsgDelivered      = "msg_delivered"
	EventDisplayTyping     = "display_typing"
	EventHideTyping        = "hide_typing"
	EventUpdatePeerMetrics = "update_peer_metrics"
	EventRoomExpired       = "room_expired"
)
