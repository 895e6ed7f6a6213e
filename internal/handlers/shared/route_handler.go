package handlers

import (
	"net/http"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/services"
	"safetrack/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RouteHandler struct {
	routeService services.RouteService
}

func NewRouteHandler(routeService services.RouteService) *RouteHandler {
	return &RouteHandler{
		routeService: routeService,
	}
}

type CreateRouteRequest struct {
	Name                 string               `json:"name" binding:"required"`
	DriverID             primitive.ObjectID   `json:"driver_id" binding:"required"`
	DriverName           string               `json:"driver_name"`
	PassengerIDs         []primitive.ObjectID `json:"passenger_ids"`
	ScheduledStart       time.Time            `json:"scheduled_start" binding:"required"`
	EstimatedArrival     time.Time            `json:"estimated_arrival" binding:"required"`
	DestinationLatitude  float64              `json:"destination_latitude"`
	DestinationLongitude float64              `json:"destination_longitude"`
}

// CreateRoute registers a shuttle route for monitoring.
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var request CreateRouteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	route := &models.ShuttleRoute{
		Name:             request.Name,
		DriverID:         request.DriverID,
		DriverName:       request.DriverName,
		PassengerIDs:     request.PassengerIDs,
		ScheduledStart:   request.ScheduledStart,
		EstimatedArrival: request.EstimatedArrival,
		Status:           models.RouteStatusScheduled,
		MonitoringActive: true,
	}
	if request.DestinationLatitude != 0 || request.DestinationLongitude != 0 {
		destination := models.NewLocation(request.DestinationLatitude, request.DestinationLongitude)
		route.Destination = &destination
	}

	if err := h.routeService.CreateRoute(c.Request.Context(), route); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "ROUTE_CREATE_FAILED", "Failed to create route: "+err.Error())
		return
	}

	utils.CreatedResponse(c, "Route created", route)
}

// GetRoute returns one route by ID.
func (h *RouteHandler) GetRoute(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	route, err := h.routeService.GetRoute(c.Request.Context(), id)
	if err != nil {
		utils.NotFoundResponse(c, "Route")
		return
	}

	utils.SuccessResponse(c, "Route retrieved", route)
}

// ListRoutes returns all routes, paginated.
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	routes, total, err := h.routeService.ListRoutes(c.Request.Context(), params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "ROUTE_LIST_FAILED", "Failed to list routes: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Routes retrieved", routes, meta)
}

// GetMyRoutes returns the calling driver's routes.
func (h *RouteHandler) GetMyRoutes(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	routes, total, err := h.routeService.GetDriverRoutes(c.Request.Context(), driverID, params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "ROUTE_LIST_FAILED", "Failed to list routes: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Routes retrieved", routes, meta)
}

// StartRoute marks a route as departed.
func (h *RouteHandler) StartRoute(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.routeService.StartRoute(c.Request.Context(), id); err != nil {
		utils.ErrorResponse(c, http.StatusConflict, "ROUTE_START_FAILED", "Failed to start route: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Route started", nil)
}

type ReportDelayRequest struct {
	DelayMinutes int    `json:"delay_minutes" binding:"required,gt=0"`
	Reason       string `json:"reason" binding:"required"`
}

// ReportDelay records a driver-reported delay on a route.
func (h *RouteHandler) ReportDelay(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request ReportDelayRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.routeService.ReportDelay(c.Request.Context(), id, request.DelayMinutes, request.Reason); err != nil {
		utils.ErrorResponse(c, http.StatusConflict, "ROUTE_DELAY_FAILED", "Failed to report delay: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Delay reported", nil)
}

// CompleteRoute marks a route as finished and stops its checks.
func (h *RouteHandler) CompleteRoute(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.routeService.CompleteRoute(c.Request.Context(), id); err != nil {
		utils.ErrorResponse(c, http.StatusConflict, "ROUTE_COMPLETE_FAILED", "Failed to complete route: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Route completed", nil)
}

type CancelRouteRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelRoute cancels a route and stops its checks.
func (h *RouteHandler) CancelRoute(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request CancelRouteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.routeService.CancelRoute(c.Request.Context(), id, request.Reason); err != nil {
		utils.ErrorResponse(c, http.StatusConflict, "ROUTE_CANCEL_FAILED", "Failed to cancel route: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Route cancelled", nil)
}

// ReportRouteLocation ingests a driver position for one route.
func (h *RouteHandler) ReportRouteLocation(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request LocationUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.routeService.ReportLocation(c.Request.Context(), id, request.Latitude, request.Longitude); err != nil {
		utils.ErrorResponse(c, http.StatusConflict, "ROUTE_LOCATION_FAILED", "Failed to update route location: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Route location updated", nil)
}

// GetRouteAlerts returns the alert history of one route.
func (h *RouteHandler) GetRouteAlerts(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	alerts, err := h.routeService.GetRouteAlerts(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "ALERT_LIST_FAILED", "Failed to load alerts: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Alerts retrieved", alerts)
}

// GetActiveAlerts returns every unresolved alert, for the admin board.
func (h *RouteHandler) GetActiveAlerts(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	alerts, total, err := h.routeService.GetUnresolvedAlerts(c.Request.Context(), params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "ALERT_LIST_FAILED", "Failed to load alerts: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Alerts retrieved", alerts, meta)
}

// ResolveAlert marks one alert as handled.
func (h *RouteHandler) ResolveAlert(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.routeService.ResolveAlert(c.Request.Context(), id); err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "ALERT_RESOLVE_FAILED", "Failed to resolve alert: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Alert resolved", nil)
}
