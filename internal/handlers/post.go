package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"pulselink/internal/db"
	"pulselink/internal/models"
	"pulselink/internal/services"
	"pulselink/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PostHandler struct{}

func NewPostHandler() *PostHandler {
	return &PostHandler{}
}

const postsPerPage = 20

type postResponse struct {
	ID           uint           `json:"id"`
	Author       models.UserRef `json:"author"`
	Content      string         `json:"content"`
	ContentHTML  string         `json:"content_html"`
	CreatedAt    string         `json:"created_at"`
	LikeCount    int            `json:"like_count"`
	CommentCount int            `json:"comment_count"`
}

func toPostResponse(p models.Post) postResponse {
	return postResponse{
		ID:           p.ID,
		Author:       p.User.Ref(),
		Content:      p.Content,
		ContentHTML:  utils.RenderMarkdown(p.Content),
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
	}
}

// fillPostCounts batches like and comment counts for a page of posts with
// one grouped query each, instead of a pair of counts per post.
func fillPostCounts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type countResult struct {
		PostID uint
		Count  int
	}

	var likeRows []countResult
	db.DB.Model(&models.PostLike{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&likeRows)

	var commentRows []countResult
	db.DB.Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&commentRows)

	likeMap := make(map[uint]int, len(likeRows))
	for _, r := range likeRows {
		likeMap[r.PostID] = r.Count
	}
	commentMap := make(map[uint]int, len(commentRows))
	for _, r := range commentRows {
		commentMap[r.PostID] = r.Count
	}

	for i := range posts {
		posts[i].LikeCount = likeMap[posts[i].ID]
		posts[i].CommentCount = commentMap[posts[i].ID]
	}
}

// List serves newest-first pages of posts.
func (h *PostHandler) List(c *gin.Context) {
	page := utils.StringToInt(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * postsPerPage

	var total int64
	db.DB.Model(&models.Post{}).Count(&total)

	totalPages := int(math.Ceil(float64(total) / float64(postsPerPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var posts []models.Post
	if err := db.DB.Preload("User").
		Order("created_at DESC").
		Limit(postsPerPage).
		Offset(offset).
		Find(&posts).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to load posts")
		return
	}

	fillPostCounts(posts)

	results := make([]postResponse, len(posts))
	for i, p := range posts {
		results[i] = toPostResponse(p)
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       results,
		"page":        page,
		"total_pages": totalPages,
		"total":       total,
	})
}

type createPostRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *PostHandler) Create(c *gin.Context) {
	user := MustCurrentUser(c)

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "content is required")
		return
	}

	post := models.Post{
		UserID:  user.ID,
		Content: req.Content,
	}
	if err := db.DB.Create(&post).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to create post")
		return
	}
	post.User = *user

	c.JSON(http.StatusCreated, toPostResponse(post))
}

func detailCacheKey(postID uint) string {
	return fmt.Sprintf("post:detail:%d", postID)
}

// Detail serves a post with its full nested comment tree. The payload is
// shared across users, so it is cached and invalidated by comment/like
// writes against the post.
func (h *PostHandler) Detail(c *gin.Context) {
	postID := utils.StringToUint(c.Param("id"))
	if postID == 0 {
		JSONError(c, http.StatusNotFound, "post not found")
		return
	}

	cacheKey := detailCacheKey(postID)
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if payload, ok := cached.(gin.H); ok {
			c.JSON(http.StatusOK, payload)
			return
		}
	}

	var post models.Post
	if err := db.DB.Preload("User").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			JSONError(c, http.StatusNotFound, "post not found")
			return
		}
		JSONError(c, http.StatusInternalServerError, "failed to load post")
		return
	}

	tree, err := services.BuildCommentTree(post.ID)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			JSONError(c, http.StatusNotFound, "post not found")
			return
		}
		JSONError(c, http.StatusInternalServerError, "failed to load comments")
		return
	}

	var likeCount int64
	db.DB.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&likeCount)
	post.LikeCount = int(likeCount)

	payload := gin.H{
		"id":           post.ID,
		"author":       post.User.Ref(),
		"content":      post.Content,
		"content_html": utils.RenderMarkdown(post.Content),
		"created_at":   post.CreatedAt.Format(time.RFC3339),
		"like_count":   post.LikeCount,
		"comments":     tree,
	}

	utils.GetCache().Set(cacheKey, payload, 5*time.Minute)

	c.JSON(http.StatusOK, payload)
}

func (h *PostHandler) Delete(c *gin.Context) {
	user := MustCurrentUser(c)
	postID := utils.StringToUint(c.Param("id"))

	var post models.Post
	if err := db.DB.First(&post, postID).Error; err != nil {
		JSONError(c, http.StatusNotFound, "post not found")
		return
	}

	if post.UserID != user.ID {
		JSONError(c, http.StatusForbidden, "only the author can delete a post")
		return
	}

	// Hard delete; comments and likes go with it via FK cascade.
	if err := db.DB.Delete(&post).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to delete post")
		return
	}

	utils.GetCache().Delete(detailCacheKey(post.ID))

	c.Status(http.StatusNoContent)
}

// Like inserts a like row for the current user. The composite unique index
// makes the duplicate check part of the insert itself, so two concurrent
// likes from the same user cannot both land.
func (h *PostHandler) Like(c *gin.Context) {
	user := MustCurrentUser(c)
	postID := utils.StringToUint(c.Param("id"))

	var post models.Post
	if err := db.DB.First(&post, postID).Error; err != nil {
		JSONError(c, http.StatusNotFound, "post not found")
		return
	}

	like := models.PostLike{
		UserID: user.ID,
		PostID: post.ID,
	}
	if err := db.DB.Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			JSONError(c, http.StatusConflict, "already liked")
			return
		}
		JSONError(c, http.StatusInternalServerError, "failed to like post")
		return
	}

	utils.GetCache().Delete(detailCacheKey(post.ID))

	c.JSON(http.StatusOK, gin.H{"status": "liked"})
}
