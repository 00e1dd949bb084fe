package handler

import (
	"net/http"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/middleware"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/service"
	"github.com/gin-gonic/gin"
)

type ChatbotHandler interface {
	SendMessage(c *gin.Context)
	AnalyzeReport(c *gin.Context)
	AnalyzeStoredReport(c *gin.Context)
	ListChats(c *gin.Context)
	GetChat(c *gin.Context)
	RenameChat(c *gin.Context)
	DeleteChat(c *gin.Context)
}

type chatbotHandler struct {
	service service.ChatbotService
}

func NewChatbotHandler(service service.ChatbotService) ChatbotHandler {
	return &chatbotHandler{service: service}
}

func (h *chatbotHandler) SendMessage(c *gin.Context) {
	var body struct {
		ChatID  string `json:"chatId"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "message is required"})
		return
	}

	claims := middleware.ClaimsFrom(c)
	session, reply, err := h.service.SendChatMessage(c.Request.Context(), claims.UserID, body.ChatID, body.Message)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"chatId":  session.ID.Hex(),
		"title":   session.Title,
		"reply":   reply,
	})
}

// AnalyzeReport accepts a multipart document upload plus an optional prompt
// and chatId, returning the structured analysis.
func (h *chatbotHandler) AnalyzeReport(c *gin.Context) {
	data, filename, ok := readUpload(c, "report")
	if !ok {
		return
	}
	mimeType := c.PostForm("mimeType")
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	claims := middleware.ClaimsFrom(c)
	session, analysis, err := h.service.AnalyzeReport(
		c.Request.Context(),
		claims.UserID,
		c.PostForm("chatId"),
		data,
		mimeType,
		filename,
		c.PostForm("prompt"),
	)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"chatId":   session.ID.Hex(),
		"title":    session.Title,
		"analysis": analysis,
	})
}

// AnalyzeStoredReport analyzes a report already sitting in the blob store,
// referenced by URL.
func (h *chatbotHandler) AnalyzeStoredReport(c *gin.Context) {
	var body struct {
		ChatID   string `json:"chatId"`
		FileURL  string `json:"fileUrl" binding:"required"`
		Filename string `json:"fileName"`
		Prompt   string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "fileUrl is required"})
		return
	}

	claims := middleware.ClaimsFrom(c)
	session, analysis, err := h.service.AnalyzeStoredReport(
		c.Request.Context(),
		claims.UserID,
		body.ChatID,
		body.FileURL,
		body.Filename,
		body.Prompt,
	)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"chatId":   session.ID.Hex(),
		"title":    session.Title,
		"analysis": analysis,
	})
}

func (h *chatbotHandler) ListChats(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	chats, err := h.service.ListChats(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"chats":   chats,
	})
}

func (h *chatbotHandler) GetChat(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	chat, err := h.service.GetChat(c.Request.Context(), claims.UserID, c.Param("chatId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"chat":    chat,
	})
}

func (h *chatbotHandler) RenameChat(c *gin.Context) {
	var body struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "title is required"})
		return
	}

	claims := middleware.ClaimsFrom(c)
	if err := h.service.RenameChat(c.Request.Context(), claims.UserID, c.Param("chatId"), body.Title); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Chat renamed",
	})
}

func (h *chatbotHandler) DeleteChat(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if err := h.service.DeleteChat(c.Request.Context(), claims.UserID, c.Param("chatId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Chat deleted",
	})
}
