package event

import "encoding/json"

// Server-to-client event names. The frontend listens for these verbatim, so
// they must not change without a coordinated client release.
const (
	// EventReceiveMessage carries the full persisted message document.
	EventReceiveMessage = "receiveMessage"

	// EventMessageDeleted carries only the id of the retracted message.
	EventMessageDeleted = "messageDeleted"

	// EventOnlineUsers carries the current set of online user ids. Best
	// effort: it drives the presence indicator, not delivery.
	EventOnlineUsers = "getOnlineUsers"
)

// Outbound is the envelope for every event pushed over a live connection.
type Outbound struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewOutbound marshals payload into an Outbound envelope.
func NewOutbound(name string, payload any) (Outbound, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Outbound{}, err
	}
	return Outbound{Event: name, Payload: raw}, nil
}

// MessageDeletedPayload is the body of an EventMessageDeleted envelope.
type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

// OnlineUsersPayload is the body of an EventOnlineUsers envelope.
type OnlineUsersPayload struct {
	UserIDs []string `json:"userIds"`
}
