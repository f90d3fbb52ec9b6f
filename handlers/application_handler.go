package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/otisthings/hub-sub000/middleware"
	"github.com/otisthings/hub-sub000/services/applications"
	"github.com/otisthings/hub-sub000/utils"
	"go.uber.org/zap"
)

// SubmitRequest is the payload for submitting an application
type SubmitRequest struct {
	Responses map[string]string `json:"responses" validate:"required"`
}

// ReviewRequest is the payload for reviewing a submission
type ReviewRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note" validate:"max=2000"`
}

// ApplicationHandler handles application form HTTP requests
type ApplicationHandler struct {
	svc    *applications.Service
	logger *zap.Logger
}

// NewApplicationHandler creates a new ApplicationHandler
func NewApplicationHandler(svc *applications.Service, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		svc:    svc,
		logger: logger,
	}
}

// HandleList handles GET /api/applications
func (h *ApplicationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	forms, err := h.svc.ListForms(r.Context(), user)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, forms)
}

// HandleGet handles GET /api/applications/{id}
func (h *ApplicationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	form, err := h.svc.GetForm(r.Context(), user, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, form)
}

// HandleCreate handles POST /api/applications (admin only)
func (h *ApplicationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var input applications.FormInput
	if !h.decodeForm(w, r, &input) {
		return
	}

	form, err := h.svc.CreateForm(r.Context(), user, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, form)
}

// HandleUpdate handles PUT /api/applications/{id}
func (h *ApplicationHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	var input applications.FormInput
	if !h.decodeForm(w, r, &input) {
		return
	}

	form, err := h.svc.UpdateForm(r.Context(), user, id, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, form)
}

// HandleSubmit handles POST /api/applications/{id}/submit
func (h *ApplicationHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	sub, err := h.svc.Submit(r.Context(), user, id, req.Responses)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, sub)
}

// HandleListSubmissions handles GET /api/applications/{id}/submissions
func (h *ApplicationHandler) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	subs, err := h.svc.ListSubmissions(r.Context(), user, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, subs)
}

// HandleReview handles PUT /api/submissions/{id}/review
func (h *ApplicationHandler) HandleReview(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	sub, err := h.svc.Review(r.Context(), user, id, req.Approve, req.Note)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, sub)
}

func (h *ApplicationHandler) decodeForm(w http.ResponseWriter, r *http.Request, input *applications.FormInput) bool {
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}
	if err := utils.ValidateStruct(input); err != nil {
		HandleValidationError(w, err, h.logger)
		return false
	}
	return true
}

func (h *ApplicationHandler) parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid id", nil)
		return 0, false
	}
	return id, true
}
