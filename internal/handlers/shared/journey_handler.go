package handlers

import (
	"net/http"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/services"
	"safetrack/internal/utils"

	"github.com/gin-gonic/gin"
)

type JourneyHandler struct {
	journeyService  services.JourneyService
	locationService services.LocationService
}

func NewJourneyHandler(
	journeyService services.JourneyService,
	locationService services.LocationService,
) *JourneyHandler {
	return &JourneyHandler{
		journeyService:  journeyService,
		locationService: locationService,
	}
}

type StartJourneyRequest struct {
	ExpectedDurationMinutes int `json:"expected_duration_minutes"`
}

type ConfirmArrivalRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StartJourney begins check-in monitoring for the caller.
func (h *JourneyHandler) StartJourney(c *gin.Context) {
	var request StartJourneyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	expected := time.Duration(request.ExpectedDurationMinutes) * time.Minute
	journey, err := h.journeyService.Start(c.Request.Context(), userID, expected)
	if err != nil {
		utils.ErrorResponse(c, http.StatusConflict, "JOURNEY_START_FAILED", "Failed to start journey: "+err.Error())
		return
	}

	utils.CreatedResponse(c, "Journey started", journey)
}

// CheckIn acknowledges the caller is safe and resets the reminder window.
func (h *JourneyHandler) CheckIn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	journey, err := h.journeyService.CheckIn(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "JOURNEY_CHECKIN_FAILED", "Failed to check in: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Checked in", journey)
}

// ConfirmArrival ends the journey as safely arrived. When the request
// carries no coordinates the last known position is used.
func (h *JourneyHandler) ConfirmArrival(c *gin.Context) {
	var request ConfirmArrivalRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	location := models.NewLocation(request.Latitude, request.Longitude)
	if location.IsZero() {
		if current, err := h.locationService.Current(c.Request.Context(), userID); err == nil {
			location = current.Location
		}
	}

	journey, err := h.journeyService.ConfirmArrival(c.Request.Context(), userID, location)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "JOURNEY_ARRIVAL_FAILED", "Failed to confirm arrival: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Arrival confirmed", journey)
}

// StopJourney cancels monitoring without an arrival confirmation.
func (h *JourneyHandler) StopJourney(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.journeyService.Stop(c.Request.Context(), userID); err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "JOURNEY_STOP_FAILED", "Failed to stop journey: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Journey stopped", nil)
}

// GetActiveJourney returns the caller's running journey, if any.
func (h *JourneyHandler) GetActiveJourney(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	journey, err := h.journeyService.GetActive(c.Request.Context(), userID)
	if err != nil {
		utils.NotFoundResponse(c, "Active journey")
		return
	}

	utils.SuccessResponse(c, "Active journey retrieved", journey)
}

// ListActiveJourneys returns every running journey, for the admin board.
func (h *JourneyHandler) ListActiveJourneys(c *gin.Context) {
	journeys, err := h.journeyService.ListActive(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "JOURNEY_LIST_FAILED", "Failed to list journeys: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Active journeys retrieved", journeys)
}

// GetJourneyHistory returns the caller's past journeys.
func (h *JourneyHandler) GetJourneyHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	journeys, total, err := h.journeyService.History(c.Request.Context(), userID, params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "JOURNEY_HISTORY_FAILED", "Failed to load journey history: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Journey history retrieved", journeys, meta)
}
