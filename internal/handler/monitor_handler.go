package handler

import (
	"net/http"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/hub"
	"github.com/gin-gonic/gin"
)

// MonitorHandler exposes hub statistics for operational visibility.
type MonitorHandler interface {
	GetHubStats(c *gin.Context)
}

type monitorHandler struct {
	monitorService *hub.MonitorService
}

func NewMonitorHandler(monitorService *hub.MonitorService) MonitorHandler {
	return &monitorHandler{
		monitorService: monitorService,
	}
}

// GetHubStats returns current connection counts per online user.
func (h *monitorHandler) GetHubStats(c *gin.Context) {
	stats := h.monitorService.GetStats()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}
