package handler

import (
	"net/http"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/middleware"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler interface {
	GetProfile(c *gin.Context)
	UpdateProfile(c *gin.Context)
	UpdateProfilePicture(c *gin.Context)
}

type userHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) UserHandler {
	return &userHandler{service: service}
}

func (h *userHandler) GetProfile(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	user, err := h.service.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

func (h *userHandler) UpdateProfile(c *gin.Context) {
	var update service.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid profile payload"})
		return
	}

	claims := middleware.ClaimsFrom(c)
	user, err := h.service.UpdateProfile(c.Request.Context(), claims.UserID, update)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

func (h *userHandler) UpdateProfilePicture(c *gin.Context) {
	data, filename, ok := readUpload(c, "profilePicture")
	if !ok {
		return
	}

	claims := middleware.ClaimsFrom(c)
	user, err := h.service.UpdateProfilePicture(c.Request.Context(), claims.UserID, data, filename)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}
