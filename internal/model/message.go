package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message belongs to exactly one conversation. A message carries either Text
// or a file reference (FileURL/FileType/FileName), never both. CreatedAt is
// server assigned; history ordering follows it.
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversationId" bson:"conversation_id"`
	Sender         primitive.ObjectID `json:"sender" bson:"sender"`
	SenderName     string             `json:"senderName,omitempty" bson:"sender_name,omitempty"`
	Text           string             `json:"text" bson:"text"`
	FileURL        string             `json:"fileUrl,omitempty" bson:"file_url,omitempty"`
	FileType       string             `json:"fileType,omitempty" bson:"file_type,omitempty"`
	FileName       string             `json:"fileName,omitempty" bson:"file_name,omitempty"`
	IsRead         bool               `json:"isRead" bson:"is_read"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
}

// HasFile reports whether the message is file-backed.
func (m *Message) HasFile() bool {
	return m.FileURL != ""
}
