package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/otisthings/hub-sub000/middleware"
	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/services/garage"
	"github.com/otisthings/hub-sub000/utils"
	"go.uber.org/zap"
)

// GaragePermissionRequest is the payload for upserting a role permission row
type GaragePermissionRequest struct {
	RoleID            string `json:"role_id" validate:"required"`
	CanViewManager    bool   `json:"can_view_manager"`
	CanGenerateCodes  bool   `json:"can_generate_codes"`
	CanDeleteVehicles bool   `json:"can_delete_vehicles"`
	CanEditVehicles   bool   `json:"can_edit_vehicles"`
}

// GarageConfigRequest is the payload for updating the garage configuration
type GarageConfigRequest struct {
	SubscriptionID string `json:"subscription_id"`
	MaxVehicles    int    `json:"max_vehicles" validate:"gte=0"`
	CodeTTLMinutes int    `json:"code_ttl_minutes" validate:"gte=0"`
}

// GarageHandler handles garage-related HTTP requests
type GarageHandler struct {
	svc    *garage.Service
	logger *zap.Logger
}

// NewGarageHandler creates a new GarageHandler
func NewGarageHandler(svc *garage.Service, logger *zap.Logger) *GarageHandler {
	return &GarageHandler{
		svc:    svc,
		logger: logger,
	}
}

// HandleCapabilities handles GET /api/garage/capabilities
func (h *GarageHandler) HandleCapabilities(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	caps, err := h.svc.Capabilities(r.Context(), user)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, caps)
}

// HandleListVehicles handles GET /api/garage/vehicles
func (h *GarageHandler) HandleListVehicles(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	vehicles, err := h.svc.ListVehicles(r.Context(), user)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, vehicles)
}

// HandleCreateVehicle handles POST /api/garage/vehicles
func (h *GarageHandler) HandleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var input garage.VehicleInput
	if !h.decodeVehicle(w, r, &input) {
		return
	}

	vehicle, err := h.svc.CreateVehicle(r.Context(), user, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, vehicle)
}

// HandleUpdateVehicle handles PUT /api/garage/vehicles/{id}
func (h *GarageHandler) HandleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var input garage.VehicleInput
	if !h.decodeVehicle(w, r, &input) {
		return
	}

	vehicle, err := h.svc.UpdateVehicle(r.Context(), user, id, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, vehicle)
}

// HandleDeleteVehicle handles DELETE /api/garage/vehicles/{id}
func (h *GarageHandler) HandleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteVehicle(r.Context(), user, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleManager handles GET /api/garage/manager
func (h *GarageHandler) HandleManager(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	view, err := h.svc.Manager(r.Context(), user)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, view)
}

// HandleListPermissions handles GET /api/garage/permissions
func (h *GarageHandler) HandleListPermissions(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	rows, err := h.svc.ListPermissions(r.Context(), user)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, rows)
}

// HandleUpsertPermission handles PUT /api/garage/permissions (admin only)
func (h *GarageHandler) HandleUpsertPermission(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req GaragePermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	perm := &models.GarageRolePermission{
		RoleID:            req.RoleID,
		CanViewManager:    req.CanViewManager,
		CanGenerateCodes:  req.CanGenerateCodes,
		CanDeleteVehicles: req.CanDeleteVehicles,
		CanEditVehicles:   req.CanEditVehicles,
	}
	if err := h.svc.UpsertPermission(r.Context(), user, perm); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, perm)
}

// HandleGenerateCode handles POST /api/garage/codes
func (h *GarageHandler) HandleGenerateCode(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	code, err := h.svc.GenerateCode(r.Context(), user)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, code)
}

// HandleGetConfig handles GET /api/garage/config
func (h *GarageHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	cfg, err := h.svc.Config(r.Context(), user)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, cfg)
}

// HandleUpdateConfig handles PUT /api/garage/config (admin only)
func (h *GarageHandler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req GarageConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	cfg := &models.GarageConfig{
		SubscriptionID: req.SubscriptionID,
		MaxVehicles:    req.MaxVehicles,
		CodeTTLMinutes: req.CodeTTLMinutes,
	}
	if err := h.svc.UpdateConfig(r.Context(), user, cfg); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, cfg)
}

func (h *GarageHandler) decodeVehicle(w http.ResponseWriter, r *http.Request, input *garage.VehicleInput) bool {
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

func (h *GarageHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid vehicle id", nil)
		return 0, false
	}
	return id, true
}
