package ws

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrClientNotFound = errors.New("client not found")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type group struct {
	token   string
	clients map[string]*Client
	mu      sync.RWMutex
}

func (g *group) snapshot() []*Client {
	g.mu.RLock()
	defer g.mu.RUnlock()

	clients := make([]*Client, 0, len(g.clients))
	for _, cl := range g.clients {
		clients = append(clients, cl)
	}
	return clients
}

// GroupManager is the transport-level room grouping primitive: it tracks
// which connections belong to which token and implements the broadcast /
// targeted-send distinction. It knows nothing about room validity or
// expiry; that is the registry's concern.
type GroupManager struct {
	groups  map[string]*group
	clients map[string]*Client // socket id -> connection, for targeted sends
	mu      sync.RWMutex
}

func NewGroupManager() *GroupManager {
	return &GroupManager{
		groups:  make(map[string]*group),
		clients: make(map[string]*Client),
	}
}

func (gm *GroupManager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Register makes a connection addressable for targeted sends.
func (gm *GroupManager) Register(cl *Client) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	gm.clients[cl.ID] = cl
}

// Unregister drops the connection from its group (if any) and from the
// targeted-send index, then closes it.
func (gm *GroupManager) Unregister(cl *Client) {
	gm.Leave(cl, cl.Room())

	gm.mu.Lock()
	delete(gm.clients, cl.ID)
	gm.mu.Unlock()

	cl.Close()
}

func (gm *GroupManager) Join(cl *Client, token string) {
	gm.mu.Lock()
	g, ok := gm.groups[token]
	if !ok {
		g = &group{
			token:   token,
			clients: make(map[string]*Client),
		}
		gm.groups[token] = g
	}
	gm.mu.Unlock()

	g.mu.Lock()
	g.clients[cl.ID] = cl
	g.mu.Unlock()
}

func (gm *GroupManager) Leave(cl *Client, token string) {
	if token == "" {
		return
	}

	gm.mu.RLock()
	g, ok := gm.groups[token]
	gm.mu.RUnlock()

	if !ok {
		return
	}

	g.mu.Lock()
	delete(g.clients, cl.ID)
	empty := len(g.clients) == 0
	g.mu.Unlock()

	if empty {
		gm.mu.Lock()
		g.mu.RLock()
		if len(g.clients) == 0 {
			delete(gm.groups, token)
		}
		g.mu.RUnlock()
		gm.mu.Unlock()
	}
}

// Broadcast delivers msg to every connection in the token's group. Sends
// are non-blocking: a client whose buffer is full misses the message.
func (gm *GroupManager) Broadcast(token string, msg *Message) {
	gm.broadcast(token, "", msg)
}

// BroadcastExcept delivers msg to every group member except the named
// sender.
func (gm *GroupManager) BroadcastExcept(token, senderID string, msg *Message) {
	gm.broadcast(token, senderID, msg)
}

func (gm *GroupManager) broadcast(token, excludeID string, msg *Message) {
	gm.mu.RLock()
	g, ok := gm.groups[token]
	gm.mu.RUnlock()

	if !ok {
		return
	}

	for _, cl := range g.snapshot() {
		if cl.ID == excludeID || cl.IsClosed() {
			continue
		}

		select {
		case cl.Message <- msg:
		default:
			// Client buffer full - drop rather than block the relay.
		}
	}
}

// SendTo delivers msg to exactly one connection, bypassing group
// membership.
func (gm *GroupManager) SendTo(socketID string, msg *Message) error {
	gm.mu.RLock()
	cl, ok := gm.clients[socketID]
	gm.mu.RUnlock()

	if !ok || cl.IsClosed() {
		return ErrClientNotFound
	}

	select {
	case cl.Message <- msg:
	default:
	}

	return nil
}

// CloseGroup detaches every member of the token's group. Connections stay
// open; they are simply no longer grouped.
func (gm *GroupManager) CloseGroup(token string) {
	gm.mu.Lock()
	g, ok := gm.groups[token]
	if ok {
		delete(gm.groups, token)
	}
	gm.mu.Unlock()

	if !ok {
		return
	}

	for _, cl := range g.snapshot() {
		cl.setRoom("")
	}
}

// GroupSize reports how many connections are grouped under token.
func (gm *GroupManager) GroupSize(token string) int {
	gm.mu.RLock()
	g, ok := gm.groups[token]
	gm.mu.RUnlock()

	if !ok {
		return 0
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

// DisconnectAll closes every connection and clears all groups.
func (gm *GroupManager) DisconnectAll() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for _, cl := range gm.clients {
		cl.Close()
	}

	gm.groups = make(map[string]*group)
	gm.clients = make(map[string]*Client)
}
