package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AI chat turn senders.
const (
	ChatSenderUser = "user"
	ChatSenderAI   = "ai"
)

// Model types recorded on a chat session.
const (
	ChatModelGemini = "gemini"
)

// ChatTurn is one exchange inside an AI chat session. Text is either a plain
// string (symptom chat) or the structured report analysis document, so it is
// deliberately untyped.
type ChatTurn struct {
	Sender    string    `json:"sender" bson:"sender"`
	Text      any       `json:"text" bson:"text"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// ChatSession is one AI chatbot thread owned by a single user.
type ChatSession struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"user_id"`
	Title     string             `json:"title" bson:"title"`
	ModelType string             `json:"modelType" bson:"model_type"`
	Messages  []ChatTurn         `json:"messages" bson:"messages"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// DefaultChatTitle is the placeholder title until the first user message
// names the session.
const DefaultChatTitle = "New Chat"

// DeriveChatTitle shortens the first user message into a session title.
func DeriveChatTitle(message string) string {
	const maxLen = 30
	if message == "" {
		return DefaultChatTitle
	}
	if len(message) > maxLen {
		return message[:maxLen] + "..."
	}
	return message
}
