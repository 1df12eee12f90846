package handlers

import (
	"net/http"
	"time"

	"pulselink/internal/db"
	"pulselink/internal/models"
	"pulselink/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Profile serves a public user profile with activity counts.
func (h *UserHandler) Profile(c *gin.Context) {
	userID := utils.StringToUint(c.Param("id"))

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		JSONError(c, http.StatusNotFound, "user not found")
		return
	}

	postCount, commentCount := GetUserStats(user.ID)

	c.JSON(http.StatusOK, gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"created_at":    user.CreatedAt.Format(time.RFC3339),
		"post_count":    postCount,
		"comment_count": commentCount,
	})
}

// GetUserStats counts a user's posts and comments.
func GetUserStats(userID uint) (postCount, commentCount int64) {
	db.DB.Model(&models.Post{}).Where("user_id = ?", userID).Count(&postCount)
	db.DB.Model(&models.Comment{}).Where("user_id = ?", userID).Count(&commentCount)
	return
}
