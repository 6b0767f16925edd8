package ws

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/Yuqi1124/TownRecord/internal/dependencies/clock"
	"github.com/Yuqi1124/TownRecord/internal/model"
	"github.com/Yuqi1124/TownRecord/internal/services/town"
)

// Handler upgrades HTTP requests to town connections
type Handler struct {
	upgrader websocket.Upgrader
	validate *validator.Validate
	clock    clock.Clock
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// NewHandler creates a new Handler
func NewHandler(validate *validator.Validate, clk clock.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		validate: validate,
		clock:    clk,
		logger:   logger.With(slog.String("component", "ws")),
		active:   make(map[string]struct{}),
	}
}

// Serve upgrades the request and serves the session's connection until it
// closes. A session may only have one connection at a time; a second one
// gets model.ErrSessionInUse before any upgrade is attempted.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, controller *town.Controller, session model.Session) error {
	if !h.claim(session.Token) {
		return model.ErrSessionInUse
	}
	defer h.release(session.Token)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client
		h.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return nil
	}

	logger := h.logger.With(slog.String("town", string(controller.ID())))
	logger.Info("ws client connected", slog.String("player_id", string(session.PlayerID)))

	newClient(conn, controller, session, h.validate, h.clock, logger).run()
	return nil
}

// ConnectionCount returns the number of open connections
func (h *Handler) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.active)
}

func (h *Handler) claim(token string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.active[token]; ok {
		return false
	}
	h.active[token] = struct{}{}
	return true
}

func (h *Handler) release(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.active, token)
}
