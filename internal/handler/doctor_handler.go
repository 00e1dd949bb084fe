package handler

import (
	"net/http"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/service"
	"github.com/gin-gonic/gin"
)

type DoctorHandler interface {
	ListVerified(c *gin.Context)
	ListUnverified(c *gin.Context)
	ListAll(c *gin.Context)
	Verify(c *gin.Context)
	Stats(c *gin.Context)
}

type doctorHandler struct {
	service service.DoctorService
}

func NewDoctorHandler(service service.DoctorService) DoctorHandler {
	return &doctorHandler{service: service}
}

// ListVerified is the patient-facing doctor directory.
func (h *doctorHandler) ListVerified(c *gin.Context) {
	doctors, err := h.service.ListVerified(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"doctors": doctors,
	})
}

func (h *doctorHandler) ListUnverified(c *gin.Context) {
	doctors, err := h.service.ListUnverified(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"doctors": doctors,
	})
}

func (h *doctorHandler) ListAll(c *gin.Context) {
	doctors, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"doctors": doctors,
	})
}

func (h *doctorHandler) Verify(c *gin.Context) {
	doctor, err := h.service.Verify(c.Request.Context(), c.Param("doctorId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"doctor":  doctor,
	})
}

func (h *doctorHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}
