package handler

import (
	"io"
	"net/http"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/middleware"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/service"
	"github.com/gin-gonic/gin"
)

// maxUploadSize caps multipart file reads.
const maxUploadSize = 25 << 20 // 25 MB

type ChatHandler interface {
	CreateConversation(c *gin.Context)
	ListConversations(c *gin.Context)
	ListMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	SendFileMessage(c *gin.Context)
	ShareStoredFile(c *gin.Context)
	DeleteMessage(c *gin.Context)
}

type chatHandler struct {
	service service.ChatService
}

func NewChatHandler(service service.ChatService) ChatHandler {
	return &chatHandler{service: service}
}

func (h *chatHandler) CreateConversation(c *gin.Context) {
	var body struct {
		RecipientID string `json:"recipientId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "recipientId is required"})
		return
	}

	claims := middleware.ClaimsFrom(c)
	view, created, err := h.service.CreateOrGetConversation(c.Request.Context(), claims.UserID, body.RecipientID)
	if err != nil {
		fail(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"success":      true,
		"conversation": view,
	})
}

func (h *chatHandler) ListConversations(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	views, err := h.service.ListConversations(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"conversations": views,
	})
}

func (h *chatHandler) ListMessages(c *gin.Context) {
	msgs, err := h.service.ListMessages(c.Request.Context(), c.Param("conversationId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": msgs,
	})
}

func (h *chatHandler) SendMessage(c *gin.Context) {
	var body struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "text is required"})
		return
	}

	claims := middleware.ClaimsFrom(c)
	msg, err := h.service.SendMessage(c.Request.Context(), c.Param("conversationId"), claims.UserID, body.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": msg,
	})
}

func (h *chatHandler) SendFileMessage(c *gin.Context) {
	data, filename, ok := readUpload(c, "file")
	if !ok {
		return
	}

	claims := middleware.ClaimsFrom(c)
	msg, err := h.service.SendFileMessage(c.Request.Context(), c.Param("conversationId"), claims.UserID, data, filename)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": msg,
	})
}

func (h *chatHandler) ShareStoredFile(c *gin.Context) {
	var ref service.StoredFileRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "file reference is required"})
		return
	}

	claims := middleware.ClaimsFrom(c)
	msg, err := h.service.ShareStoredFile(c.Request.Context(), c.Param("conversationId"), claims.UserID, ref)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": msg,
	})
}

func (h *chatHandler) DeleteMessage(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if err := h.service.DeleteMessage(c.Request.Context(), c.Param("messageId"), claims.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Message deleted",
	})
}

// readUpload pulls a multipart file field into memory. It writes the error
// response itself when the field is missing or unreadable.
func readUpload(c *gin.Context, field string) ([]byte, string, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "file is required"})
		return nil, "", false
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unable to read file"})
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unable to read file"})
		return nil, "", false
	}
	return data, fileHeader.Filename, true
}
