package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"github.com/Yuqi1124/TownRecord/internal/api/request"
	"github.com/Yuqi1124/TownRecord/internal/api/response"
	"github.com/Yuqi1124/TownRecord/internal/model"
	"github.com/Yuqi1124/TownRecord/internal/services/registry"
)

// TownHandler handles town lifecycle and join endpoints
type TownHandler struct {
	registry *registry.Registry
	validate *validator.Validate
}

// NewTownHandler creates a new town handler
func NewTownHandler(reg *registry.Registry, validate *validator.Validate) *TownHandler {
	return &TownHandler{
		registry: reg,
		validate: validate,
	}
}

// List handles GET /api/v1/towns
func (h *TownHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.registry.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ListTownsResponse{
		Towns: lo.Map(infos, func(info model.TownInfo, _ int) response.Town {
			return response.TownFromModel(info)
		}),
	})
}

// Create handles POST /api/v1/towns
func (h *TownHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTownRequest
	if err := request.Decode(r, h.validate, &req); err != nil {
		WriteError(w, err)
		return
	}

	created, err := h.registry.Create(r.Context(), req.FriendlyName, req.IsPubliclyListed)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.CreateTownResponse{
		TownID:             string(created.Controller.ID()),
		TownUpdatePassword: created.Password,
	})
}

// Update handles PATCH /api/v1/towns/{townID}
func (h *TownHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateTownRequest
	if err := request.Decode(r, h.validate, &req); err != nil {
		WriteError(w, err)
		return
	}

	id := model.TownID(mux.Vars(r)["townID"])
	if err := h.registry.Update(r.Context(), id, req.Password, req.FriendlyName, req.IsPubliclyListed); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Delete handles DELETE /api/v1/towns/{townID}
func (h *TownHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req request.DeleteTownRequest
	if err := request.Decode(r, h.validate, &req); err != nil {
		WriteError(w, err)
		return
	}

	id := model.TownID(mux.Vars(r)["townID"])
	if err := h.registry.Delete(r.Context(), id, req.Password); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Join handles POST /api/v1/towns/{townID}/sessions
func (h *TownHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinTownRequest
	if err := request.Decode(r, h.validate, &req); err != nil {
		WriteError(w, err)
		return
	}

	id := model.TownID(mux.Vars(r)["townID"])
	controller, session, err := h.registry.Join(r.Context(), id, req.UserName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.JoinTownResponseFromModel(session, controller.Snapshot()))
}
