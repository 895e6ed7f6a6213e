package handlers

import (
	"net/http"

	"safetrack/internal/models"
	"safetrack/internal/services"
	"safetrack/internal/utils"

	"github.com/gin-gonic/gin"
)

type GeofenceHandler struct {
	geofenceService services.GeofenceService
}

func NewGeofenceHandler(geofenceService services.GeofenceService) *GeofenceHandler {
	return &GeofenceHandler{
		geofenceService: geofenceService,
	}
}

type CreateGeofenceRequest struct {
	Name         string              `json:"name" binding:"required"`
	Type         models.GeofenceType `json:"type" binding:"required"`
	Latitude     float64             `json:"latitude" binding:"required"`
	Longitude    float64             `json:"longitude" binding:"required"`
	RadiusMeters float64             `json:"radius_meters" binding:"required,gt=0"`
	Shared       bool                `json:"shared"`
}

// CreateGeofence registers a new fence. Admins may create any kind;
// everyone else is limited to their own home fence.
func (h *GeofenceHandler) CreateGeofence(c *gin.Context) {
	var request CreateGeofenceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	role := currentUserRole(c)
	if role != models.RoleAdmin && request.Type != models.GeofenceTypeHome {
		utils.ForbiddenResponse(c)
		return
	}

	geofence := &models.Geofence{
		Name:         request.Name,
		Type:         request.Type,
		Center:       models.NewLocation(request.Latitude, request.Longitude),
		RadiusMeters: request.RadiusMeters,
	}
	if !request.Shared || role != models.RoleAdmin {
		geofence.OwnerID = &userID
	}

	if err := h.geofenceService.CreateGeofence(c.Request.Context(), geofence); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "GEOFENCE_CREATE_FAILED", "Failed to create geofence: "+err.Error())
		return
	}

	utils.CreatedResponse(c, "Geofence created", geofence)
}

// GetGeofence returns one fence by ID.
func (h *GeofenceHandler) GetGeofence(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	geofence, err := h.geofenceService.GetGeofence(c.Request.Context(), id)
	if err != nil {
		utils.NotFoundResponse(c, "Geofence")
		return
	}

	utils.SuccessResponse(c, "Geofence retrieved", geofence)
}

type UpdateGeofenceRequest struct {
	Name         *string  `json:"name"`
	RadiusMeters *float64 `json:"radius_meters"`
	IsActive     *bool    `json:"is_active"`
}

// UpdateGeofence applies a partial update to a fence.
func (h *GeofenceHandler) UpdateGeofence(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request UpdateGeofenceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if request.Name != nil {
		updates["name"] = *request.Name
	}
	if request.RadiusMeters != nil {
		if *request.RadiusMeters <= 0 {
			utils.BadRequestResponse(c, "Radius must be positive")
			return
		}
		updates["radius_meters"] = *request.RadiusMeters
	}
	if request.IsActive != nil {
		updates["is_active"] = *request.IsActive
	}
	if len(updates) == 0 {
		utils.BadRequestResponse(c, "No updates provided")
		return
	}

	if err := h.geofenceService.UpdateGeofence(c.Request.Context(), id, updates); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "GEOFENCE_UPDATE_FAILED", "Failed to update geofence: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Geofence updated", nil)
}

// DeleteGeofence deactivates a fence.
func (h *GeofenceHandler) DeleteGeofence(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.geofenceService.DeleteGeofence(c.Request.Context(), id); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "GEOFENCE_DELETE_FAILED", "Failed to delete geofence: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Geofence deleted", nil)
}

// ListGeofences returns all fences, paginated.
func (h *GeofenceHandler) ListGeofences(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	geofences, total, err := h.geofenceService.ListGeofences(c.Request.Context(), params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "GEOFENCE_LIST_FAILED", "Failed to list geofences: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Geofences retrieved", geofences, meta)
}

// GetMyEvents returns the caller's enter/exit history.
func (h *GeofenceHandler) GetMyEvents(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	events, total, err := h.geofenceService.GetUserEvents(c.Request.Context(), userID, params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "GEOFENCE_EVENTS_FAILED", "Failed to load geofence events: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Geofence events retrieved", events, meta)
}

// GetGeofenceEvents returns the enter/exit history of one fence.
func (h *GeofenceHandler) GetGeofenceEvents(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	events, total, err := h.geofenceService.GetGeofenceEvents(c.Request.Context(), id, params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "GEOFENCE_EVENTS_FAILED", "Failed to load geofence events: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Geofence events retrieved", events, meta)
}
