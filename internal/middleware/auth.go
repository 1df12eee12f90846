package middleware

import (
	"net/http"
	"strings"

	"pulselink/internal/db"
	"pulselink/internal/models"
	"pulselink/internal/services"

	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// LoadUser resolves an optional bearer token and sets the user on the
// context. Anonymous requests pass through untouched.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString != "" {
			if userID, err := services.ParseToken(tokenString, services.TokenTypeAccess); err == nil {
				var user models.User
				if result := db.DB.First(&user, userID); result.Error == nil {
					c.Set(CheckUserKey, &user)
				}
			}
		}
		c.Next()
	}
}

// AuthRequired rejects requests that did not resolve to a user.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
