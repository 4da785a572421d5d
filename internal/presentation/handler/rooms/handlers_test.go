package rooms

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/phantom-chat/phantom/internal/domain"
	"github.com/phantom-chat/phantom/internal/infrastructure/configs"
	"github.com/phantom-chat/phantom/internal/infrastructure/logging"
	"github.com/phantom-chat/phantom/internal/infrastructure/metrics"
	"github.com/phantom-chat/phantom/internal/infrastructure/registry"
	"github.com/phantom-chat/phantom/internal/infrastructure/ws"
)

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

func newTestHandler(t *testing.T) (*Handler, domain.Registry) {
	t.Helper()

	reg := registry.New()
	groups := ws.NewGroupManager()
	core := ws.NewCore(reg, groups, nopLogger{}, testMetrics)
	go core.Run()

	cfg := configs.RoomConfig{
		TTL:           600 * time.Second,
		SweepInterval: 10 * time.Second,
	}

	return NewHandler(reg, groups, core, cfg, nopLogger{}, testMetrics), reg
}

func TestCreateRoom(t *testing.T) {
	t.Parallel()

	h, reg := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	h.CreateRoomHandler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp createRoomResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Token == "" {
		t.Error("empty token in response")
	}
	if resp.ExpiresIn != 600 {
		t.Errorf("expires_in: got %d, want 600", resp.ExpiresIn)
	}
	if !reg.IsValid(resp.Token) {
		t.Error("created token not valid in registry")
	}
}

func TestCreateThenValidate(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.CreateRoomHandler(rec, httptest.NewRequest(http.MethodPost, "/api/rooms", nil))

	var created createRoomResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	body := strings.NewReader(`{"token":"` + created.Token + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/validate", body)
	rec = httptest.NewRecorder()
	h.ValidateTokenHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var resp validateTokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode validate response: %v", err)
	}

	if !resp.Valid {
		t.Error("valid: got false, want true")
	}
	if resp.Remaining <= 599 || resp.Remaining > 600 {
		t.Errorf("remaining: got %f, want ~600", resp.Remaining)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/validate", strings.NewReader(`{"token":"nope"}`))
	rec := httptest.NewRecorder()
	h.ValidateTokenHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	raw := rec.Body.String()

	var resp validateTokenResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("decode validate response: %v", err)
	}
	if resp.Valid {
		t.Error("valid: got true, want false")
	}

	// remaining must be omitted entirely for an invalid token.
	if strings.Contains(raw, "remaining") {
		t.Errorf("response leaks remaining for invalid token: %s", raw)
	}
}

func TestValidateMalformedBody(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	for _, body := range []string{"", "{}", "not json"} {
		req := httptest.NewRequest(http.MethodPost, "/api/rooms/validate", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ValidateTokenHandler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status got %d, want %d", body, rec.Code, http.StatusBadRequest)
		}
	}
}

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/rooms/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var frame wireFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func sendFrame(t *testing.T, conn *websocket.Conn, event, data string) {
	t.Helper()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"`+event+`","data":`+data+`}`)); err != nil {
		t.Fatalf("send frame: %v", err)
	}
}

func TestJoinAndMessageOverWebsocket(t *testing.T) {
	t.Parallel()

	h, reg := newTestHandler(t)
	reg.Create("T", 600*time.Second)

	r := chi.NewRouter()
	r.Get("/api/rooms/ws", h.AttachHandler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	first := dial(t, srv)
	second := dial(t, srv)

	// Every connection is told its socket id on attach.
	for _, conn := range []*websocket.Conn{first, second} {
		frame := readFrame(t, conn)
		if frame.Event != "connected" {
			t.Fatalf("got event %q, want connected", frame.Event)
		}
	}

	sendFrame(t, first, "join", `{"token":"T"}`)
	frame := readFrame(t, first)
	if frame.Event != "update_status" || !strings.Contains(string(frame.Data), `"count":1`) {
		t.Fatalf("first join: got %s %s, want update_status count 1", frame.Event, frame.Data)
	}

	sendFrame(t, second, "join", `{"token":"T"}`)
	for _, conn := range []*websocket.Conn{first, second} {
		frame := readFrame(t, conn)
		if frame.Event != "update_status" || !strings.Contains(string(frame.Data), `"count":2`) {
			t.Fatalf("second join: got %s %s, want update_status count 2", frame.Event, frame.Data)
		}
	}

	sendFrame(t, first, "message", `{"token":"T","msg":"hi","sender_id":"a","msg_id":1,"timestamp":123}`)
	for _, conn := range []*websocket.Conn{first, second} {
		frame := readFrame(t, conn)
		if frame.Event != "message" || !strings.Contains(string(frame.Data), `"msg":"hi"`) {
			t.Fatalf("relay: got %s %s, want verbatim message", frame.Event, frame.Data)
		}
	}
}
