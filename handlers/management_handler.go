package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/otisthings/hub-sub000/middleware"
	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/services/management"
	"github.com/otisthings/hub-sub000/utils"
	"go.uber.org/zap"
)

// ManagementHandler handles the management surface HTTP requests
type ManagementHandler struct {
	svc    *management.Service
	logger *zap.Logger
}

// NewManagementHandler creates a new ManagementHandler
func NewManagementHandler(svc *management.Service, logger *zap.Logger) *ManagementHandler {
	return &ManagementHandler{
		svc:    svc,
		logger: logger,
	}
}

// HandleListUsers handles GET /api/management/users
func (h *ManagementHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := h.svc.ListUsers(r.Context(), user, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, page)
}

// HandleGetUser handles GET /api/management/users/{id}
func (h *ManagementHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	target, err := h.svc.GetUser(r.Context(), user, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, target)
}

// HandleBan handles POST /api/management/users/{id}/ban
func (h *ManagementHandler) HandleBan(w http.ResponseWriter, r *http.Request) {
	h.setBan(w, r, true)
}

// HandleUnban handles POST /api/management/users/{id}/unban
func (h *ManagementHandler) HandleUnban(w http.ResponseWriter, r *http.Request) {
	h.setBan(w, r, false)
}

// RoleToggleRequest represents the payload for toggling a profile role
type RoleToggleRequest struct {
	RoleID   string `json:"role_id" validate:"required"`
	RoleName string `json:"role_name" validate:"max=120"`
}

// HandleToggleRole handles POST /api/management/users/{id}/roles/toggle
func (h *ManagementHandler) HandleToggleRole(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req RoleToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	roles, err := h.svc.ToggleRole(r.Context(), user, id, models.RoleReference{ID: req.RoleID, Name: req.RoleName})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, roles)
}

func (h *ManagementHandler) setBan(w http.ResponseWriter, r *http.Request, banned bool) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.SetHubBan(r.Context(), user, id, banned); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

func (h *ManagementHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid user id", nil)
		return 0, false
	}
	return id, true
}
