package handlers

import (
	"net/http"

	"safetrack/internal/models"
	"safetrack/internal/services"
	"safetrack/internal/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GetMyNotifications returns the caller's notification feed.
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	notifications, total, err := h.notificationService.GetUserNotifications(c.Request.Context(), userID, params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "NOTIFICATION_LIST_FAILED", "Failed to load notifications: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Notifications retrieved", notifications, meta)
}

type RegisterDeviceTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}

// RegisterDeviceToken attaches a push token to the caller's account.
func (h *NotificationHandler) RegisterDeviceToken(c *gin.Context) {
	var request RegisterDeviceTokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	token := models.DeviceToken{Token: request.Token, Platform: request.Platform}
	if err := h.notificationService.RegisterDeviceToken(c.Request.Context(), userID, token); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "DEVICE_TOKEN_FAILED", "Failed to register device token: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Device token registered", nil)
}

// UnregisterDeviceToken removes a push token from the caller's account.
func (h *NotificationHandler) UnregisterDeviceToken(c *gin.Context) {
	var request RegisterDeviceTokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.UnregisterDeviceToken(c.Request.Context(), userID, request.Token); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "DEVICE_TOKEN_FAILED", "Failed to remove device token: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Device token removed", nil)
}
