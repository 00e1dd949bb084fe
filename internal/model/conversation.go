package model

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation pairs exactly two user identities for patient-doctor
// messaging. ParticipantKey is the sorted participant pair joined with ":";
// a unique index on it guarantees one conversation per unordered pair even
// when two first-contact requests race.
type Conversation struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Participants   []primitive.ObjectID `json:"participants" bson:"participants"`
	ParticipantKey string               `json:"-" bson:"participant_key"`
	CreatedAt      time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updatedAt" bson:"updated_at"`
}

// ParticipantKey builds the canonical lookup key for an unordered pair of
// user ids.
func ParticipantKey(a, b primitive.ObjectID) string {
	ids := []string{a.Hex(), b.Hex()}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

// ConversationView is a conversation enriched with participant details for
// the API, mirroring what the chat sidebar renders.
type ConversationView struct {
	ID           string            `json:"id"`
	Participants []ParticipantInfo `json:"participants"`
	CreatedAt    time.Time         `json:"createdAt"`
}
