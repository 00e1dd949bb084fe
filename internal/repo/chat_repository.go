package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/db"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type chatRepository struct {
	mongoRepo *db.Repository[model.ChatSession]
}

// ChatRepository persists AI chatbot sessions. Every lookup is scoped to the
// owning user so one user can never read another's sessions.
type ChatRepository interface {
	Insert(ctx context.Context, s *model.ChatSession) (*model.ChatSession, error)
	FindForUser(ctx context.Context, chatID string, userID primitive.ObjectID) (*model.ChatSession, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]model.ChatSession, error)
	DeleteForUser(ctx context.Context, chatID string, userID primitive.ObjectID) (bool, error)
	AppendTurn(ctx context.Context, chatID string, turn model.ChatTurn) error
	SetTitle(ctx context.Context, chatID string, title string) error
}

func NewChatRepository(repo *db.Repository[model.ChatSession]) ChatRepository {
	return &chatRepository{mongoRepo: repo}
}

func (r *chatRepository) Insert(ctx context.Context, s *model.ChatSession) (*model.ChatSession, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	s.CreatedAt = time.Now().UTC()
	if s.Messages == nil {
		s.Messages = []model.ChatTurn{}
	}

	id, err := r.mongoRepo.Create(ctx, *s)
	if err != nil {
		return nil, fmt.Errorf("insert chat session failed: %w", err)
	}
	s.ID = id
	return s, nil
}

// FindForUser returns the session, or (nil, nil) when absent or owned by
// someone else.
func (r *chatRepository) FindForUser(ctx context.Context, chatID string, userID primitive.ObjectID) (*model.ChatSession, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().ObjectID("_id", chatID).Eq("user_id", userID).Build()
	s, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find chat session failed: %w", err)
	}
	return s, nil
}

// ListForUser returns the user's sessions, newest first.
func (r *chatRepository) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]model.ChatSession, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("user_id", userID).Build()
	sessions, err := r.mongoRepo.FindAll(ctx, filter, db.FindOptions{SortBy: "created_at", SortDesc: true})
	if err != nil {
		return nil, fmt.Errorf("list chat sessions failed: %w", err)
	}
	return sessions, nil
}

func (r *chatRepository) DeleteForUser(ctx context.Context, chatID string, userID primitive.ObjectID) (bool, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().ObjectID("_id", chatID).Eq("user_id", userID).Build()
	deleted, err := r.mongoRepo.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("delete chat session failed: %w", err)
	}
	return deleted, nil
}

func (r *chatRepository) AppendTurn(ctx context.Context, chatID string, turn model.ChatTurn) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	turn.CreatedAt = time.Now().UTC()
	if err := r.mongoRepo.Push(ctx, chatID, "messages", turn); err != nil {
		return fmt.Errorf("append chat turn failed: %w", err)
	}
	return nil
}

func (r *chatRepository) SetTitle(ctx context.Context, chatID string, title string) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()
	return r.mongoRepo.UpdateByID(ctx, chatID, bson.M{"title": title})
}
