package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	pingInterval  = 50 * time.Second
)

// Client is a single websocket connection. ID is the connection's socket
// id, the routing key for targeted sends.
type Client struct {
	conn    *connWrapper
	Message chan *Message
	ID      string

	// room is the token this connection joined, empty when not in a room.
	// Guarded by mu; read by the unregister path to derive the implicit
	// leave on disconnect.
	room string
	mu   sync.RWMutex

	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(conn *websocket.Conn, id string) *Client {
	return &Client{
		conn:    newConnWrapper(conn),
		Message: make(chan *Message, 64), // buffered to avoid dead-locks on slow clients
		ID:      id,
		closed:  make(chan struct{}),
	}
}

func (c *Client) Room() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

func (c *Client) setRoom(token string) {
	c.mu.Lock()
	c.room = token
	c.mu.Unlock()
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
		// Message is left open: fan-out paths may still be holding a
		// reference, and an unbuffered close would turn their
		// non-blocking sends into panics.
	})
}

func (c *Client) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// ReadMessage pumps inbound frames into the relay until the connection
// drops. A frame that is not valid JSON is skipped, never fatal.
func (c *Client) ReadMessage(core *Core) {
	defer func() {
		core.Unregister() <- c
	}()

	_ = c.conn.conn.SetReadDeadline(time.Now().Add(readDeadline))

	c.conn.conn.SetPongHandler(func(string) error {
		_ = c.conn.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		select {
		case <-c.closed:
			return
		default:
		}

		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				core.logReadError(c, err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
			core.dropMalformed(c)
			continue
		}

		core.Dispatch(c, frame)
	}
}

// WriteMessage drains the outbound queue and keeps the connection alive
// with periodic pings.
func (c *Client) WriteMessage() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Message:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.Ping(time.Now().Add(writeDeadline)); err != nil {
				return
			}

		case <-c.closed:
			return
		}
	}
}
