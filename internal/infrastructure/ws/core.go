package ws

import (
	"encoding/json"
	"time"

	"github.com/phantom-chat/phantom/internal/domain"
	"github.com/phantom-chat/phantom/internal/infrastructure/logging"
	"github.com/phantom-chat/phantom/internal/infrastructure/metrics"
)

// Core is the relay engine: it validates tokens against the registry and
// delegates delivery to the group manager. Every handler is a silent
// no-op on an invalid or unknown token, both to avoid leaking room
// existence and to tolerate events that arrive after a room expired.
type Core struct {
	registry   domain.Registry
	groups     *GroupManager
	logger     logging.Logger
	metrics    *metrics.Metrics
	register   chan *Client
	unregister chan *Client

	now func() time.Time
}

func NewCore(registry domain.Registry, groups *GroupManager, logger logging.Logger, m *metrics.Metrics) *Core {
	return &Core{
		registry:   registry,
		groups:     groups,
		logger:     logger,
		metrics:    m,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		now:        time.Now,
	}
}

func (c *Core) Register() chan<- *Client {
	return c.register
}

func (c *Core) Unregister() chan<- *Client {
	return c.unregister
}

// Run owns connection lifecycle. Relay events are dispatched inline from
// each connection's read pump; only attach/detach is serialized here.
func (c *Core) Run() {
	for {
		select {
		case cl, ok := <-c.register:
			if !ok {
				return
			}
			c.groups.Register(cl)
			c.metrics.ClientsConnected.Inc()

			// Tell the connection its socket id so peers can route
			// delivery confirmations back to it.
			cl.Message <- NewConnected(cl.ID)

		case cl := <-c.unregister:
			c.detach(cl)
		}
	}
}

// detach handles a dropped connection, including the implicit leave for a
// client that disconnected without sending one.
func (c *Core) detach(cl *Client) {
	token := cl.Room()
	c.groups.Unregister(cl)
	c.metrics.ClientsConnected.Dec()

	if token == "" {
		return
	}

	count, err := c.registry.DecrementMembers(token)
	if err != nil {
		// Room already evicted; nothing to announce.
		return
	}

	c.groups.Broadcast(token, NewUpdateStatus(count))
	c.logger.Debug(logging.Relay, logging.Connection, "client disconnected while joined", map[logging.ExtraKey]any{
		logging.SocketID:    cl.ID,
		logging.RoomToken:   token,
		logging.MemberCount: count,
	})
}

// RoomExpired notifies a room's members that their room has been evicted
// and dissolves the group. Called by the sweeper.
func (c *Core) RoomExpired(token string) {
	c.groups.Broadcast(token, NewRoomExpired())
	c.groups.CloseGroup(token)
	c.metrics.RoomsExpired.Inc()
	c.metrics.RoomsActive.Dec()
}

// Dispatch routes one inbound frame. It never blocks and never returns
// an error to the sender: failed preconditions drop the event.
func (c *Core) Dispatch(cl *Client, frame Frame) {
	c.metrics.RelayEvents.WithLabelValues(frame.Event).Inc()

	switch frame.Event {
	case EventJoin:
		c.handleJoin(cl, frame.Data)
	case EventLeave:
		c.handleLeave(cl, frame.Data)
	case EventMessage:
		c.handleMessage(cl, frame.Data)
	case EventConfirmDelivery:
		c.handleConfirmDelivery(cl, frame.Data)
	case EventTyping:
		c.handleTyping(cl, frame.Data, NewDisplayTyping())
	case EventStopTyping:
		c.handleTyping(cl, frame.Data, NewHideTyping())
	case EventPingCheck:
		c.handlePingCheck(cl)
	case EventShareMetrics:
		c.handleShareMetrics(cl, frame.Data)
	default:
		c.drop(cl, "unknown_event")
	}
}

func (c *Core) handleJoin(cl *Client, data json.RawMessage) {
	var p tokenPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Token == "" {
		c.drop(cl, "malformed")
		return
	}

	if !c.registry.IsValid(p.Token) {
		c.drop(cl, "invalid_token")
		return
	}

	count, err := c.registry.IncrementMembers(p.Token)
	if err != nil {
		// Evicted between the validity check and the increment.
		c.drop(cl, "invalid_token")
		return
	}

	c.groups.Join(cl, p.Token)
	cl.setRoom(p.Token)

	c.groups.Broadcast(p.Token, NewUpdateStatus(count))
	c.logger.Info(logging.Relay, logging.Connection, "client joined room", map[logging.ExtraKey]any{
		logging.SocketID:    cl.ID,
		logging.RoomToken:   p.Token,
		logging.MemberCount: count,
	})
}

func (c *Core) handleLeave(cl *Client, data json.RawMessage) {
	var p tokenPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Token == "" {
		c.drop(cl, "malformed")
		return
	}

	if !c.registry.IsValid(p.Token) {
		c.drop(cl, "invalid_token")
		return
	}

	count, err := c.registry.DecrementMembers(p.Token)
	if err != nil {
		c.drop(cl, "invalid_token")
		return
	}

	c.groups.Leave(cl, p.Token)
	cl.setRoom("")

	c.groups.Broadcast(p.Token, NewUpdateStatus(count))
}

func (c *Core) handleMessage(cl *Client, data json.RawMessage) {
	var p tokenPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Token == "" {
		c.drop(cl, "malformed")
		return
	}

	if !c.registry.IsValid(p.Token) {
		c.drop(cl, "invalid_token")
		return
	}

	// Stateless relay: the payload goes out exactly as it came in, to
	// the whole room including the sender.
	c.groups.Broadcast(p.Token, NewRelayedMessage(data))
}

func (c *Core) handleConfirmDelivery(cl *Client, data json.RawMessage) {
	var p confirmDeliveryPayload
	if err := json.Unmarshal(data, &p); err != nil || p.SenderSocketID == "" {
		c.drop(cl, "malformed")
		return
	}

	// The ack is meaningful only to whoever sent the original message,
	// so it routes by connection identity, never by room.
	if err := c.groups.SendTo(p.SenderSocketID, NewMsgDelivered(p.MsgID)); err != nil {
		// Original sender already gone; drop without retry.
		c.drop(cl, "target_not_found")
	}
}

func (c *Core) handleTyping(cl *Client, data json.RawMessage, out *Message) {
	var p tokenPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Token == "" {
		c.drop(cl, "malformed")
		return
	}

	if !c.registry.IsValid(p.Token) {
		c.drop(cl, "invalid_token")
		return
	}

	// The sender already knows its own typing state.
	c.groups.BroadcastExcept(p.Token, cl.ID, out)
}

func (c *Core) handlePingCheck(cl *Client) {
	ts := float64(c.now().UnixNano()) / float64(time.Second)

	select {
	case cl.Message <- NewPingCheck(ts):
	default:
	}
}

func (c *Core) handleShareMetrics(cl *Client, data json.RawMessage) {
	var p shareMetricsPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Token == "" {
		c.drop(cl, "malformed")
		return
	}

	if !c.registry.IsValid(p.Token) {
		c.drop(cl, "invalid_token")
		return
	}

	c.groups.BroadcastExcept(p.Token, cl.ID, NewUpdatePeerMetrics(p.Ping))
}

func (c *Core) drop(cl *Client, reason string) {
	c.metrics.DroppedEvents.WithLabelValues(reason).Inc()
	c.logger.Debug(logging.Relay, logging.Broadcast, "event dropped", map[logging.ExtraKey]any{
		logging.SocketID:     cl.ID,
		logging.ErrorMessage: reason,
	})
}

func (c *Core) dropMalformed(cl *Client) {
	c.drop(cl, "malformed")
}

func (c *Core) logReadError(cl *Client, err error) {
	c.logger.Warn(logging.Relay, logging.Connection, "ws read error", map[logging.ExtraKey]any{
		logging.SocketID:     cl.ID,
		logging.ErrorMessage: err.Error(),
	})
}
