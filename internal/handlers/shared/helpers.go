package handlers

import (
	"safetrack/internal/models"
	"safetrack/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUserID reads the authenticated user from the request context.
// The auth middleware guarantees the value when the route is protected.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}

	userID, ok := value.(primitive.ObjectID)
	if !ok {
		utils.BadRequestResponse(c, "Invalid user ID")
		return primitive.NilObjectID, false
	}

	return userID, true
}

func currentUserRole(c *gin.Context) models.EmployeeRole {
	if role, ok := c.Get("user_role"); ok {
		if roleStr, ok := role.(string); ok {
			return models.EmployeeRole(roleStr)
		}
	}
	return ""
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}
