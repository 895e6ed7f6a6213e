package handlers

import (
	"net/http"
	"strconv"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/services"
	"safetrack/internal/utils"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	locationService services.LocationService
	geofenceService services.GeofenceService
	routeService    services.RouteService
}

func NewLocationHandler(
	locationService services.LocationService,
	geofenceService services.GeofenceService,
	routeService services.RouteService,
) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		geofenceService: geofenceService,
		routeService:    routeService,
	}
}

type LocationUpdateRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	Accuracy  float64 `json:"accuracy"`
}

// RecordLocation ingests one position report from a device. The report
// is persisted, evaluated against the user's geofences and, for
// drivers, fed into route monitoring.
func (h *LocationHandler) RecordLocation(c *gin.Context) {
	var request LocationUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	update, err := h.locationService.RecordLocation(c.Request.Context(), userID, request.Latitude, request.Longitude, request.Accuracy)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "LOCATION_RECORD_FAILED", "Failed to record location: "+err.Error())
		return
	}

	events, err := h.geofenceService.EvaluateLocation(c.Request.Context(), userID, update.Location)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "GEOFENCE_EVALUATION_FAILED", "Failed to evaluate geofences: "+err.Error())
		return
	}

	if currentUserRole(c) == models.RoleDriver {
		if err := h.routeService.ReportDriverLocation(c.Request.Context(), userID, request.Latitude, request.Longitude); err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "ROUTE_LOCATION_FAILED", "Failed to update route location: "+err.Error())
			return
		}
	}

	utils.SuccessResponse(c, "Location recorded", gin.H{
		"location": update,
		"events":   events,
	})
}

// GetCurrentLocation returns the last known position of a user.
func (h *LocationHandler) GetCurrentLocation(c *gin.Context) {
	userID, ok := objectIDParam(c, "user_id")
	if !ok {
		return
	}

	update, err := h.locationService.Current(c.Request.Context(), userID)
	if err != nil {
		utils.NotFoundResponse(c, "Location")
		return
	}

	utils.SuccessResponse(c, "Location retrieved", update)
}

// GetLocationHistory returns the caller's position reports for the last
// N hours (default 24).
func (h *LocationHandler) GetLocationHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours <= 0 {
		utils.BadRequestResponse(c, "Invalid hours parameter")
		return
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	updates, err := h.locationService.History(c.Request.Context(), userID, since)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "LOCATION_HISTORY_FAILED", "Failed to load location history: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Location history retrieved", updates)
}
