package routes

import (
	handlers "safetrack/internal/handlers/shared"
	"safetrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupEmergencyRoutes wires the emergency alert lifecycle.
func SetupEmergencyRoutes(r *gin.RouterGroup, emergencyHandler *handlers.EmergencyHandler, jwtSecret string) {
	emergencies := r.Group("/emergencies")
	emergencies.Use(middleware.AuthRequired(jwtSecret))
	{
		emergencies.POST("", emergencyHandler.TriggerEmergency)
		emergencies.GET("/me", emergencyHandler.GetMyEmergencies)
	}

	admin := r.Group("/admin/emergencies")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.GET("/active", emergencyHandler.GetActiveEmergencies)
		admin.GET("/:id", emergencyHandler.GetEmergency)
		admin.POST("/:id/resolve", emergencyHandler.ResolveEmergency)
	}
}
