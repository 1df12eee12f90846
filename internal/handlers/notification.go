package handlers

import (
	"net/http"
	"time"

	"pulselink/internal/db"
	"pulselink/internal/models"
	"pulselink/internal/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct{}

func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{}
}

func (h *NotificationHandler) List(c *gin.Context) {
	user := MustCurrentUser(c)

	var notifications []models.Notification
	db.DB.Preload("Actor").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&notifications)

	results := make([]gin.H, len(notifications))
	for i, n := range notifications {
		results[i] = gin.H{
			"id":         n.ID,
			"type":       n.Type,
			"message":    n.Message,
			"actor":      n.Actor.Ref(),
			"is_read":    n.IsRead,
			"created_at": n.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, gin.H{"notifications": results})
}

func (h *NotificationHandler) Read(c *gin.Context) {
	user := MustCurrentUser(c)
	id := utils.StringToUint(c.Param("id"))

	var notification models.Notification
	if err := db.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&notification).Error; err != nil {
		JSONError(c, http.StatusNotFound, "notification not found")
		return
	}

	notification.IsRead = true
	db.DB.Save(&notification)

	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	user := MustCurrentUser(c)

	db.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Update("is_read", true)

	c.Status(http.StatusNoContent)
}
