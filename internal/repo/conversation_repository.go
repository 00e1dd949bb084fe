package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/db"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrDuplicateConversation signals that another request inserted the same
// participant pair first. Callers re-fetch and use the existing document.
var ErrDuplicateConversation = errors.New("conversation already exists for participant pair")

type conversationRepository struct {
	mongoRepo *db.Repository[model.Conversation]
	logger    *zap.Logger
}

// ConversationRepository is the conversation half of the conversation store.
type ConversationRepository interface {
	EnsureIndexes(ctx context.Context) error
	FindByParticipants(ctx context.Context, a, b primitive.ObjectID) (*model.Conversation, error)
	Insert(ctx context.Context, conv *model.Conversation) (*model.Conversation, error)
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]model.Conversation, error)
}

func NewConversationRepository(repo *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// EnsureIndexes creates the unique participant-pair index. This is what
// closes the find-then-insert race: the second insert of the same pair fails
// with a duplicate-key error instead of creating a second conversation.
func (r *conversationRepository) EnsureIndexes(ctx context.Context) error {
	return r.mongoRepo.EnsureUniqueIndex(ctx, "participant_key")
}

// FindByParticipants looks a conversation up by its unordered participant
// pair. Returns (nil, nil) when absent.
func (r *conversationRepository) FindByParticipants(ctx context.Context, a, b primitive.ObjectID) (*model.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("participant_key", model.ParticipantKey(a, b)).Build()
	conv, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find conversation failed: %w", err)
	}
	return conv, nil
}

// Insert creates a conversation, deriving its participant key. A unique-key
// clash maps to ErrDuplicateConversation.
func (r *conversationRepository) Insert(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	if len(conv.Participants) != 2 {
		return nil, fmt.Errorf("conversation requires exactly two participants, got %d", len(conv.Participants))
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	conv.ParticipantKey = model.ParticipantKey(conv.Participants[0], conv.Participants[1])
	conv.CreatedAt = now
	conv.UpdatedAt = now

	id, err := r.mongoRepo.Create(ctx, *conv)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateConversation
		}
		r.logger.Error("failed to insert conversation",
			zap.String("participant_key", conv.ParticipantKey),
			zap.Error(err),
		)
		return nil, fmt.Errorf("insert conversation failed: %w", err)
	}

	conv.ID = id
	return conv, nil
}

// FindByID returns the conversation, or (nil, nil) when absent.
func (r *conversationRepository) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	if id == "" {
		return nil, ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	conv, err := r.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find conversation failed: %w", err)
	}
	return conv, nil
}

// ListForUser returns every conversation the user participates in, most
// recently created first.
func (r *conversationRepository) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]model.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("participants", userID).Build()
	convs, err := r.mongoRepo.FindAll(ctx, filter, db.FindOptions{SortBy: "created_at", SortDesc: true})
	if err != nil {
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}
	return convs, nil
}
