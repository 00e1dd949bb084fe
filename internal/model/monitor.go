package model

// MonitorResponse is the body of the hub monitoring endpoint.
type MonitorResponse struct {
	Status      string            `json:"status"` // "healthy" or "idle"
	Connections int               `json:"connections"`
	OnlineUsers int               `json:"onlineUsers"`
	Users       []UserConnections `json:"users"`
}

// UserConnections reports how many live connections a user currently holds.
type UserConnections struct {
	UserID      string `json:"userId"`
	Connections int    `json:"connections"`
}
