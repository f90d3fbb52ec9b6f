package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/otisthings/hub-sub000/middleware"
	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/services/tickets"
	"github.com/otisthings/hub-sub000/utils"
	"go.uber.org/zap"
)

// TransferRequest is the payload for transferring a ticket
type TransferRequest struct {
	ToUserID int64 `json:"to_user_id" validate:"required,gt=0"`
}

// ParticipantRequest is the payload for adding a ticket participant
type ParticipantRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// MessageRequest is the payload for posting a ticket message
type MessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// TicketHandler handles ticket-related HTTP requests
type TicketHandler struct {
	svc    *tickets.Service
	logger *zap.Logger
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(svc *tickets.Service, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{
		svc:    svc,
		logger: logger,
	}
}

// HandleCreate handles POST /api/tickets
func (h *TicketHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var input tickets.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&input); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	ticket, err := h.svc.Create(r.Context(), user, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, ticket)
}

// HandleListMine handles GET /api/tickets
func (h *TicketHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	list, err := h.svc.ListMine(r.Context(), user)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, list)
}

// HandleQueue handles GET /api/tickets/queue. Returns open tickets in the caller's
// support categories.
func (h *TicketHandler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	list, err := h.svc.ListSupportQueue(r.Context(), user)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, list)
}

// HandleGet handles GET /api/tickets/{id}
func (h *TicketHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	view, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, view)
}

// HandleClaim handles POST /api/tickets/{id}/claim
func (h *TicketHandler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Claim)
}

// HandleClose handles POST /api/tickets/{id}/close
func (h *TicketHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Close)
}

// HandleReopen handles POST /api/tickets/{id}/reopen
func (h *TicketHandler) HandleReopen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Reopen)
}

// HandleTransfer handles POST /api/tickets/{id}/transfer
func (h *TicketHandler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	view, err := h.svc.Transfer(r.Context(), user, id, req.ToUserID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, view)
}

// HandleAddParticipant handles POST /api/tickets/{id}/participants
func (h *TicketHandler) HandleAddParticipant(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req ParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := h.svc.AddParticipant(r.Context(), user, id, req.UserID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleListMessages handles GET /api/tickets/{id}/messages
func (h *TicketHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	messages, err := h.svc.Messages(r.Context(), user, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, messages)
}

// HandlePostMessage handles POST /api/tickets/{id}/messages
func (h *TicketHandler) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	message, err := h.svc.PostMessage(r.Context(), user, id, req.Body)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, message)
}

type ticketTransition func(ctx context.Context, user *models.User, ticketID int64) (*tickets.View, error)

func (h *TicketHandler) transition(w http.ResponseWriter, r *http.Request, fn ticketTransition) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	view, err := fn(r.Context(), user, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, view)
}

func (h *TicketHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid ticket id", nil)
		return 0, false
	}
	return id, true
}
