package routes

import (
	handlers "safetrack/internal/handlers/shared"
	"safetrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupGeofenceRoutes wires geofence management and event history.
func SetupGeofenceRoutes(r *gin.RouterGroup, geofenceHandler *handlers.GeofenceHandler, jwtSecret string) {
	geofences := r.Group("/geofences")
	geofences.Use(middleware.AuthRequired(jwtSecret))
	{
		geofences.POST("", geofenceHandler.CreateGeofence)
		geofences.GET("", geofenceHandler.ListGeofences)
		geofences.GET("/:id", geofenceHandler.GetGeofence)
		geofences.GET("/events/me", geofenceHandler.GetMyEvents)
	}

	admin := r.Group("/admin/geofences")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.PUT("/:id", geofenceHandler.UpdateGeofence)
		admin.DELETE("/:id", geofenceHandler.DeleteGeofence)
		admin.GET("/:id/events", geofenceHandler.GetGeofenceEvents)
	}
}
