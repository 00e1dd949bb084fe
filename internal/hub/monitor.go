package hub

import (
	"sort"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
)

// MonitorService gathers hub statistics for the monitoring endpoint.
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a monitor service bound to hub.
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats returns a snapshot of connection and presence state.
func (ms *MonitorService) GetStats() model.MonitorResponse {
	users := make([]model.UserConnections, 0)
	totalConnections := 0

	for _, b := range ms.hub.shards {
		b.RLock()
		for userID, group := range b.users {
			users = append(users, model.UserConnections{
				UserID:      userID,
				Connections: len(group),
			})
			totalConnections += len(group)
		}
		b.RUnlock()
	}

	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })

	status := "healthy"
	if totalConnections == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: totalConnections,
		OnlineUsers: len(users),
		Users:       users,
	}
}
