package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/otisthings/hub-sub000/access"
	"github.com/otisthings/hub-sub000/middleware"
	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"github.com/otisthings/hub-sub000/services"
	"github.com/otisthings/hub-sub000/utils"
	"go.uber.org/zap"
)

// CategoryRequest is the payload for creating or updating a category
type CategoryRequest struct {
	Name           string `json:"name" validate:"required,max=120"`
	Color          string `json:"color" validate:"max=16"`
	RequiredRoleID string `json:"required_role_id"`
	IsRestricted   bool   `json:"is_restricted"`
}

// Recorder queues audit log entries
type Recorder interface {
	Record(log *models.AuditLog) error
}

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryRepo repositories.CategoryRepository
	auditor      Recorder
	logger       *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryRepo repositories.CategoryRepository, auditor Recorder, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryRepo: categoryRepo,
		auditor:      auditor,
		logger:       logger,
	}
}

// HandleList handles GET /api/categories
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryRepo.GetAll(r.Context())
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to list categories", err), h.logger)
		return
	}
	_ = utils.WriteOK(w, categories)
}

// HandleSupport handles GET /api/categories/support. Returns the categories the
// caller qualifies as support for.
func (h *CategoryHandler) HandleSupport(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	categories, err := h.categoryRepo.GetAll(r.Context())
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to list categories", err), h.logger)
		return
	}

	supported := make([]*models.Category, 0)
	for _, category := range categories {
		if access.CanAccessSupportCategory(user, category) {
			supported = append(supported, category)
		}
	}
	_ = utils.WriteOK(w, supported)
}

// HandleAccessible handles GET /api/categories/accessible. Returns the categories
// the caller may open a ticket in. Restricted categories require support
// access.
func (h *CategoryHandler) HandleAccessible(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	categories, err := h.categoryRepo.GetAll(r.Context())
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to list categories", err), h.logger)
		return
	}

	accessible := make([]*models.Category, 0)
	for _, category := range categories {
		if !category.IsRestricted || access.CanAccessSupportCategory(user, category) {
			accessible = append(accessible, category)
		}
	}
	_ = utils.WriteOK(w, accessible)
}

// HandleGet handles GET /api/categories/{id}
func (h *CategoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	category, err := h.categoryRepo.GetByID(r.Context(), id)
	if err != nil {
		HandleServiceError(w, services.ErrCategoryNotFound, h.logger)
		return
	}
	_ = utils.WriteOK(w, category)
}

// HandleCreate handles POST /api/categories (admin only)
func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	category := &models.Category{
		Name:           req.Name,
		Color:          req.Color,
		RequiredRoleID: req.RequiredRoleID,
		IsRestricted:   req.IsRestricted,
	}
	if err := h.categoryRepo.Create(r.Context(), category); err != nil {
		HandleServiceError(w, services.WrapInternal("failed to create category", err), h.logger)
		return
	}

	h.record(models.NewAuditLog(user.ID, models.AuditActionCategoryCreated, "category", strconv.FormatInt(category.ID, 10)))
	_ = utils.WriteCreated(w, category)
}

// HandleUpdate handles PUT /api/categories/{id} (admin only)
func (h *CategoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	category, err := h.categoryRepo.GetByID(r.Context(), id)
	if err != nil {
		HandleServiceError(w, services.ErrCategoryNotFound, h.logger)
		return
	}

	category.Name = req.Name
	category.Color = req.Color
	category.RequiredRoleID = req.RequiredRoleID
	category.IsRestricted = req.IsRestricted
	if err := h.categoryRepo.Update(r.Context(), category); err != nil {
		HandleServiceError(w, services.WrapInternal("failed to update category", err), h.logger)
		return
	}

	h.record(models.NewAuditLog(user.ID, models.AuditActionCategoryUpdated, "category", strconv.FormatInt(id, 10)))
	_ = utils.WriteOK(w, category)
}

// HandleDelete handles DELETE /api/categories/{id} (admin only)
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.categoryRepo.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, services.ErrCategoryNotFound, h.logger)
		return
	}

	h.record(models.NewAuditLog(user.ID, models.AuditActionCategoryDeleted, "category", strconv.FormatInt(id, 10)))
	utils.WriteNoContent(w)
}

func (h *CategoryHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return nil, false
	}
	if !user.IsAdmin {
		_ = utils.WriteForbidden(w, "Admin access required")
		return nil, false
	}
	return user, true
}

func (h *CategoryHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid category id", nil)
		return 0, false
	}
	return id, true
}

func (h *CategoryHandler) decode(w http.ResponseWriter, r *http.Request, req *CategoryRequest) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return false
	}
	return true
}

func (h *CategoryHandler) record(log *models.AuditLog) {
	if h.auditor == nil {
		return
	}
	if err := h.auditor.Record(log); err != nil {
		h.logger.Warn("failed to record audit event",
			zap.String("action", string(log.Action)),
			zap.Error(err))
	}
}
