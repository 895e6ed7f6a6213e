package routes

import (
	handlers "safetrack/internal/handlers/shared"
	"safetrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRouteRoutes wires shuttle route monitoring and alerts.
func SetupRouteRoutes(r *gin.RouterGroup, routeHandler *handlers.RouteHandler, jwtSecret string) {
	routes := r.Group("/routes")
	routes.Use(middleware.AuthRequired(jwtSecret))
	{
		routes.GET("/:id", routeHandler.GetRoute)
		routes.GET("/my", routeHandler.GetMyRoutes)

		routes.POST("/:id/start", routeHandler.StartRoute)
		routes.POST("/:id/delay", routeHandler.ReportDelay)
		routes.POST("/:id/complete", routeHandler.CompleteRoute)
		routes.POST("/:id/cancel", routeHandler.CancelRoute)
		routes.POST("/:id/location", routeHandler.ReportRouteLocation)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.POST("/routes", routeHandler.CreateRoute)
		admin.GET("/routes", routeHandler.ListRoutes)
		admin.GET("/routes/:id/alerts", routeHandler.GetRouteAlerts)

		admin.GET("/alerts/active", routeHandler.GetActiveAlerts)
		admin.POST("/alerts/:id/resolve", routeHandler.ResolveAlert)
	}
}
