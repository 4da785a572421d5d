package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phantom-chat/phantom/internal/domain"
	"github.com/phantom-chat/phantom/internal/infrastructure/logging"
	"github.com/phantom-chat/phantom/internal/infrastructure/metrics"
	"github.com/phantom-chat/phantom/internal/infrastructure/registry"
)

// Prometheus collectors register globally, so the test binary shares one
// set.
var testMetrics = metrics.New()

type nopLogger struct{}

func (nopLogger) Init() {}
func (nopLogger) Debug(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Debugf(string, ...any)                                                         {}
func (nopLogger) Info(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Infof(string, ...any)                                                          {}
func (nopLogger) Warn(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Warnf(string, ...any)                                                          {}
func (nopLogger) Error(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Errorf(string, ...any)                                                         {}
func (nopLogger) Fatal(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Fatalf(string, ...any)                                                         {}

// newTestConn returns the server side of a live websocket connection.
func newTestConn(t *testing.T) *websocket.Conn {
	t.Helper()

	accepted := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		accepted <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	dialed, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = dialed.Close() })

	select {
	case conn := <-accepted:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(time.Second):
		t.Fatal("server never accepted the connection")
		return nil
	}
}

func newTestClient(t *testing.T, id string) *Client {
	t.Helper()
	return NewClient(newTestConn(t), id)
}

func newTestCore(t *testing.T) (*Core, domain.Registry, *GroupManager) {
	t.Helper()

	reg := registry.New()
	groups := NewGroupManager()
	core := NewCore(reg, groups, nopLogger{}, testMetrics)
	return core, reg, groups
}

// recv waits for one outbound message on the client's queue.
func recv(t *testing.T, cl *Client) *Message {
	t.Helper()

	select {
	case msg := <-cl.Message:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("client %s: no message received", cl.ID)
		return nil
	}
}

// expectSilence asserts nothing is queued for the client.
func expectSilence(t *testing.T, cl *Client) {
	t.Helper()

	select {
	case msg := <-cl.Message:
		t.Fatalf("client %s: unexpected message %q", cl.ID, msg.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func rawJSON(s string) []byte {
	return []byte(s)
}
