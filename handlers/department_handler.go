package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/otisthings/hub-sub000/middleware"
	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/services/departments"
	"github.com/otisthings/hub-sub000/utils"
	"go.uber.org/zap"
)

// DepartmentHandler handles department-related HTTP requests
type DepartmentHandler struct {
	svc    *departments.Service
	logger *zap.Logger
}

// NewDepartmentHandler creates a new DepartmentHandler
func NewDepartmentHandler(svc *departments.Service, logger *zap.Logger) *DepartmentHandler {
	return &DepartmentHandler{
		svc:    svc,
		logger: logger,
	}
}

// HandleListByClassification handles GET /api/departments/classification/{type}
func (h *DepartmentHandler) HandleListByClassification(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	classification := models.Classification(chi.URLParam(r, "type"))

	listings, err := h.svc.ListByClassification(r.Context(), user, classification)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, listings)
}

// HandleRoster handles GET /api/departments/{id}/roster
func (h *DepartmentHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid department id", nil)
		return
	}

	roster, err := h.svc.Roster(r.Context(), user, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, roster)
}
