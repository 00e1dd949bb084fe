package handler

import (
	"net/http"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/middleware"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/service"
	"github.com/gin-gonic/gin"
)

type ReportHandler interface {
	Upload(c *gin.Context)
	List(c *gin.Context)
	Delete(c *gin.Context)
	Download(c *gin.Context)
	ListStoredFiles(c *gin.Context)
}

type reportHandler struct {
	service service.ReportService
}

func NewReportHandler(service service.ReportService) ReportHandler {
	return &reportHandler{service: service}
}

func (h *reportHandler) Upload(c *gin.Context) {
	data, filename, ok := readUpload(c, "report")
	if !ok {
		return
	}
	contentType := "application/octet-stream"
	if fh, err := c.FormFile("report"); err == nil && fh.Header.Get("Content-Type") != "" {
		contentType = fh.Header.Get("Content-Type")
	}

	claims := middleware.ClaimsFrom(c)
	report, err := h.service.Upload(c.Request.Context(), claims.UserID, data, filename, contentType)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"report":  report,
	})
}

func (h *reportHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	reports, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reports": reports,
	})
}

func (h *reportHandler) Delete(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if err := h.service.Delete(c.Request.Context(), c.Param("reportId"), claims.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Report deleted",
	})
}

// Download returns a URL that forces attachment disposition so the
// browser saves the file instead of rendering it inline.
func (h *reportHandler) Download(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	url, err := h.service.DownloadURL(c.Request.Context(), c.Param("reportId"), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     url,
	})
}

// ListStoredFiles backs the re-share picker: everything in the blob store
// available for sharing into a conversation.
func (h *reportHandler) ListStoredFiles(c *gin.Context) {
	files, err := h.service.ListStoredFiles(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"files":   files,
	})
}
