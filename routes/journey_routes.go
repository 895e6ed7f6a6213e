package routes

import (
	handlers "safetrack/internal/handlers/shared"
	"safetrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupJourneyRoutes wires the safety journey lifecycle.
func SetupJourneyRoutes(r *gin.RouterGroup, journeyHandler *handlers.JourneyHandler, jwtSecret string) {
	journeys := r.Group("/journeys")
	journeys.Use(middleware.AuthRequired(jwtSecret))
	{
		journeys.POST("/start", journeyHandler.StartJourney)
		journeys.POST("/checkin", journeyHandler.CheckIn)
		journeys.POST("/arrived", journeyHandler.ConfirmArrival)
		journeys.POST("/stop", journeyHandler.StopJourney)
		journeys.GET("/active", journeyHandler.GetActiveJourney)
		journeys.GET("/history", journeyHandler.GetJourneyHistory)
	}

	admin := r.Group("/admin/journeys")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.GET("/active", journeyHandler.ListActiveJourneys)
	}
}
