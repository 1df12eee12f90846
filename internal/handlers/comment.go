package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"pulselink/internal/db"
	"pulselink/internal/models"
	"pulselink/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CommentHandler struct{}

func NewCommentHandler() *CommentHandler {
	return &CommentHandler{}
}

type createCommentRequest struct {
	PostID   uint   `json:"post_id" binding:"required"`
	ParentID *uint  `json:"parent_id"`
	Content  string `json:"content" binding:"required"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	user := MustCurrentUser(c)

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "post_id and content are required")
		return
	}

	var post models.Post
	if err := db.DB.First(&post, req.PostID).Error; err != nil {
		JSONError(c, http.StatusNotFound, "post not found")
		return
	}

	// Storage does not enforce same-post parentage, so the write path
	// does. Reads stay permissive about legacy violators.
	var parent *models.Comment
	if req.ParentID != nil {
		parent = &models.Comment{}
		if err := db.DB.Preload("User").First(parent, *req.ParentID).Error; err != nil {
			JSONError(c, http.StatusBadRequest, "parent comment not found")
			return
		}
		if parent.PostID != post.ID {
			JSONError(c, http.StatusBadRequest, "parent comment belongs to a different post")
			return
		}
	}

	comment := models.Comment{
		PostID:   post.ID,
		UserID:   user.ID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := db.DB.Create(&comment).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to create comment")
		return
	}

	utils.GetCache().Delete(detailCacheKey(post.ID))

	// Notify the parent comment author on replies, otherwise the post
	// author. Never notify users about their own activity.
	go func() {
		if parent != nil {
			if parent.UserID != user.ID {
				notification := models.Notification{
					UserID:  parent.UserID,
					ActorID: &user.ID,
					Type:    models.NotificationTypeReplyComment,
					Message: fmt.Sprintf("%s replied to your comment on post %d", user.Username, post.ID),
				}
				db.DB.Create(&notification)
			}
			return
		}
		if post.UserID != user.ID {
			notification := models.Notification{
				UserID:  post.UserID,
				ActorID: &user.ID,
				Type:    models.NotificationTypeCommentPost,
				Message: fmt.Sprintf("%s commented on your post %d", user.Username, post.ID),
			}
			db.DB.Create(&notification)
		}
	}()

	c.JSON(http.StatusCreated, gin.H{
		"id":         comment.ID,
		"post_id":    comment.PostID,
		"parent_id":  comment.ParentID,
		"author":     user.Ref(),
		"content":    comment.Content,
		"created_at": comment.CreatedAt.Format(time.RFC3339),
	})
}

// Delete blanks a comment instead of removing the row, so replies keep
// their place in the thread.
func (h *CommentHandler) Delete(c *gin.Context) {
	user := MustCurrentUser(c)
	commentID := utils.StringToUint(c.Param("id"))

	var comment models.Comment
	if err := db.DB.First(&comment, commentID).Error; err != nil {
		JSONError(c, http.StatusNotFound, "comment not found")
		return
	}

	if comment.UserID != user.ID {
		JSONError(c, http.StatusForbidden, "only the author can delete a comment")
		return
	}

	comment.Content = "[deleted]"
	if err := db.DB.Save(&comment).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to delete comment")
		return
	}

	utils.GetCache().Delete(detailCacheKey(comment.PostID))

	c.Status(http.StatusNoContent)
}

// Like mirrors PostHandler.Like for comments: the unique index is the
// duplicate check.
func (h *CommentHandler) Like(c *gin.Context) {
	user := MustCurrentUser(c)
	commentID := utils.StringToUint(c.Param("id"))

	var comment models.Comment
	if err := db.DB.First(&comment, commentID).Error; err != nil {
		JSONError(c, http.StatusNotFound, "comment not found")
		return
	}

	like := models.CommentLike{
		UserID:    user.ID,
		CommentID: comment.ID,
	}
	if err := db.DB.Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			JSONError(c, http.StatusConflict, "already liked")
			return
		}
		JSONError(c, http.StatusInternalServerError, "failed to like comment")
		return
	}

	utils.GetCache().Delete(detailCacheKey(comment.PostID))

	c.JSON(http.StatusOK, gin.H{"status": "liked"})
}
