package rooms

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/phantom-chat/phantom/internal/domain"
	"github.com/phantom-chat/phantom/internal/infrastructure/configs"
	"github.com/phantom-chat/phantom/internal/infrastructure/json"
	"github.com/phantom-chat/phantom/internal/infrastructure/logging"
	"github.com/phantom-chat/phantom/internal/infrastructure/metrics"
	"github.com/phantom-chat/phantom/internal/infrastructure/token"
	"github.com/phantom-chat/phantom/internal/infrastructure/ws"
)

type Handler struct {
	registry domain.Registry
	groups   *ws.GroupManager
	core     *ws.Core
	cfg      configs.RoomConfig
	logger   logging.Logger
	metrics  *metrics.Metrics
}

func NewHandler(
	registry domain.Registry,
	groups *ws.GroupManager,
	core *ws.Core,
	cfg configs.RoomConfig,
	logger logging.Logger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		registry: registry,
		groups:   groups,
		core:     core,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
	}
}

// CreateRoomHandler issues a fresh token and registers a room under it.
func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	t, err := token.Issue()
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	h.registry.Create(t, h.cfg.TTL)
	h.metrics.RoomsCreated.Inc()
	h.metrics.RoomsActive.Inc()

	h.logger.Info(logging.Registry, logging.Startup, "room created", map[logging.ExtraKey]any{
		logging.RoomToken: t,
	})

	json.Write(w, http.StatusCreated, createRoomResponse{
		Token:     t,
		ExpiresIn: int(h.cfg.TTL.Seconds()),
	})
}

// ValidateTokenHandler reports whether a token addresses a live room. An
// unknown token is simply invalid, never an error: the response must not
// reveal whether a room ever existed.
func (h *Handler) ValidateTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req validateTokenRequest
	if err := json.Read(r, &req); err != nil || req.Token == "" {
		json.WriteValidationError(w, errors.New("token is required"))
		return
	}

	remaining, err := h.registry.RemainingTTL(req.Token)
	if err != nil || remaining <= 0 {
		json.Write(w, http.StatusOK, validateTokenResponse{Valid: false})
		return
	}

	json.Write(w, http.StatusOK, validateTokenResponse{
		Valid:     true,
		Remaining: remaining.Seconds(),
	})
}

// AttachHandler upgrades the request to a websocket connection and hands
// it to the relay. Joining a room happens later, via the join event.
func (h *Handler) AttachHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.groups.Upgrade(w, r)
	if err != nil {
		h.logger.Warn(logging.Relay, logging.Connection, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	client := ws.NewClient(conn, uuid.NewString())

	h.core.Register() <- client

	go client.WriteMessage()
	go client.ReadMessage(h.core)
}
