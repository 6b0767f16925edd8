package handler

import (
	"net/http"

	"github.com/Yuqi1124/TownRecord/internal/api/middleware"
	"github.com/Yuqi1124/TownRecord/internal/web/ws"
)

// ConnectHandler upgrades a joined session to its live connection
type ConnectHandler struct {
	ws *ws.Handler
}

// NewConnectHandler creates a new connect handler
func NewConnectHandler(wsHandler *ws.Handler) *ConnectHandler {
	return &ConnectHandler{ws: wsHandler}
}

// Connect handles GET /api/v1/towns/{townID}/connect
func (h *ConnectHandler) Connect(w http.ResponseWriter, r *http.Request) {
	controller, session := middleware.MustGetSession(r.Context())
	if err := h.ws.Serve(w, r, controller, *session); err != nil {
		WriteError(w, err)
	}
}
