package handlers

import (
	"errors"
	"net/http"

	"pulselink/internal/db"
	"pulselink/internal/models"
	"pulselink/internal/services"
	"pulselink/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "username, valid email and a password of at least 6 characters are required")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to process password")
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		// Unique indexes on username and email reject duplicates.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			JSONError(c, http.StatusConflict, "username or email already exists")
			return
		}
		JSONError(c, http.StatusInternalServerError, "failed to create user")
		return
	}

	tokens, err := services.IssueTokenPair(user.ID)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to issue tokens")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "username and password are required")
		return
	}

	var user models.User
	if err := db.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		JSONError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !utils.CheckPasswordHash(req.Password, user.Password) {
		JSONError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := services.IssueTokenPair(user.ID)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to issue tokens")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "refresh token is required")
		return
	}

	access, err := services.RefreshAccessToken(req.Refresh)
	if err != nil {
		JSONError(c, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": access})
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, MustCurrentUser(c))
}
