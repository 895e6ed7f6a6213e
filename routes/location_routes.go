package routes

import (
	handlers "safetrack/internal/handlers/shared"
	"safetrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupLocationRoutes wires location ingestion and lookup.
func SetupLocationRoutes(r *gin.RouterGroup, locationHandler *handlers.LocationHandler, jwtSecret string) {
	locations := r.Group("/locations")
	locations.Use(middleware.AuthRequired(jwtSecret))
	{
		locations.POST("", locationHandler.RecordLocation)
		locations.GET("/history", locationHandler.GetLocationHistory)
	}

	admin := r.Group("/admin/locations")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.GET("/current/:user_id", locationHandler.GetCurrentLocation)
	}
}
