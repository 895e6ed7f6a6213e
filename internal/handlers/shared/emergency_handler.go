package handlers

import (
	"net/http"

	"safetrack/internal/models"
	"safetrack/internal/services"
	"safetrack/internal/utils"

	"github.com/gin-gonic/gin"
)

type EmergencyHandler struct {
	emergencyService services.EmergencyService
}

func NewEmergencyHandler(emergencyService services.EmergencyService) *EmergencyHandler {
	return &EmergencyHandler{
		emergencyService: emergencyService,
	}
}

type TriggerEmergencyRequest struct {
	Type      models.EmergencyType `json:"type" binding:"required"`
	Message   string               `json:"message"`
	Latitude  float64              `json:"latitude"`
	Longitude float64              `json:"longitude"`
}

// TriggerEmergency raises an alert for the caller.
func (h *EmergencyHandler) TriggerEmergency(c *gin.Context) {
	var request TriggerEmergencyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	location := models.NewLocation(request.Latitude, request.Longitude)
	emergency, err := h.emergencyService.Trigger(c.Request.Context(), userID, request.Type, request.Message, location)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "EMERGENCY_TRIGGER_FAILED", "Failed to trigger emergency: "+err.Error())
		return
	}

	utils.CreatedResponse(c, "Emergency triggered", emergency)
}

type ResolveEmergencyRequest struct {
	Status models.EmergencyStatus `json:"status" binding:"required"`
	Notes  string                 `json:"notes"`
}

// ResolveEmergency closes an alert as resolved or false alarm.
func (h *EmergencyHandler) ResolveEmergency(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request ResolveEmergencyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	resolvedBy, ok := currentUserID(c)
	if !ok {
		return
	}

	err := h.emergencyService.Resolve(c.Request.Context(), id, resolvedBy, request.Status, request.Notes)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "EMERGENCY_RESOLVE_FAILED", "Failed to resolve emergency: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Emergency resolved", nil)
}

// GetEmergency returns one alert by ID.
func (h *EmergencyHandler) GetEmergency(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	emergency, err := h.emergencyService.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.NotFoundResponse(c, "Emergency")
		return
	}

	utils.SuccessResponse(c, "Emergency retrieved", emergency)
}

// GetActiveEmergencies returns every unresolved alert.
func (h *EmergencyHandler) GetActiveEmergencies(c *gin.Context) {
	emergencies, err := h.emergencyService.GetActive(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "EMERGENCY_LIST_FAILED", "Failed to list emergencies: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Active emergencies retrieved", emergencies)
}

// GetMyEmergencies returns the caller's alert history.
func (h *EmergencyHandler) GetMyEmergencies(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	emergencies, total, err := h.emergencyService.GetByUser(c.Request.Context(), userID, params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "EMERGENCY_LIST_FAILED", "Failed to list emergencies: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Emergencies retrieved", emergencies, meta)
}
