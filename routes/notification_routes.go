package routes

import (
	handlers "safetrack/internal/handlers/shared"
	"safetrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupNotificationRoutes wires the notification feed and device tokens.
func SetupNotificationRoutes(r *gin.RouterGroup, notificationHandler *handlers.NotificationHandler, jwtSecret string) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthRequired(jwtSecret))
	{
		notifications.GET("", notificationHandler.GetMyNotifications)
		notifications.POST("/devices", notificationHandler.RegisterDeviceToken)
		notifications.DELETE("/devices", notificationHandler.UnregisterDeviceToken)
	}
}
