package handlers

import (
	"pulselink/internal/middleware"
	"pulselink/internal/models"

	"github.com/gin-gonic/gin"
)

// JSONError writes the error envelope every endpoint shares.
func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// CurrentUser returns the authenticated user placed on the context by
// middleware.LoadUser, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if user, exists := c.Get(middleware.CheckUserKey); exists {
		return user.(*models.User)
	}
	return nil
}

// MustCurrentUser is for routes behind AuthRequired.
func MustCurrentUser(c *gin.Context) *models.User {
	return c.MustGet(middleware.CheckUserKey).(*models.User)
}
