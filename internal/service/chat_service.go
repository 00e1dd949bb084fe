package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/event"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/repo"
	"github.com/Zahid-Ham/ConsultAI-Latest/pkg/blobstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StoredFileRef identifies an already-uploaded blob being re-shared into a
// conversation. URL/Type/Name may be empty, in which case they are resolved
// from the blob store by BlobID.
type StoredFileRef struct {
	BlobID string `json:"publicId"`
	URL    string `json:"fileUrl"`
	Type   string `json:"fileType"`
	Name   string `json:"fileName"`
}

// ChatService is the canonical path for patient-doctor messaging: it owns
// conversation find-or-create, message dispatch and message retraction.
// Persistence always precedes fan-out; fan-out failures are logged and
// swallowed because history is the source of truth.
type ChatService interface {
	CreateOrGetConversation(ctx context.Context, userID, recipientID string) (*model.ConversationView, bool, error)
	ListConversations(ctx context.Context, userID string) ([]model.ConversationView, error)
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
	SendMessage(ctx context.Context, conversationID, senderID, text string) (*model.Message, error)
	SendFileMessage(ctx context.Context, conversationID, senderID string, data []byte, filename string) (*model.Message, error)
	ShareStoredFile(ctx context.Context, conversationID, senderID string, ref StoredFileRef) (*model.Message, error)
	DeleteMessage(ctx context.Context, messageID, requesterID string) error
}

type chatService struct {
	conversations repo.ConversationRepository
	messages      repo.MessageRepository
	users         repo.UserRepository
	blobs         blobstore.Store
	notifier      Notifier
	logger        *zap.Logger
}

func NewChatService(
	conversations repo.ConversationRepository,
	messages repo.MessageRepository,
	users repo.UserRepository,
	blobs blobstore.Store,
	notifier Notifier,
	logger *zap.Logger,
) ChatService {
	return &chatService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		blobs:         blobs,
		notifier:      notifier,
		logger:        logger,
	}
}

// CreateOrGetConversation returns the conversation for the unordered
// (userID, recipientID) pair, creating it on first contact. The second
// return reports whether a new conversation was created. Lookup-before-
// create plus the unique participant-pair index make this safe under
// concurrent first-contact requests: the losing insert re-fetches the
// winner's document.
func (s *chatService) CreateOrGetConversation(ctx context.Context, userID, recipientID string) (*model.ConversationView, bool, error) {
	a, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false, ErrUserNotFound
	}
	b, err := primitive.ObjectIDFromHex(recipientID)
	if err != nil {
		return nil, false, ErrUserNotFound
	}
	if a == b {
		return nil, false, ErrInvalidContent
	}

	conv, err := s.conversations.FindByParticipants(ctx, a, b)
	if err != nil {
		return nil, false, err
	}
	if conv != nil {
		view, err := s.buildView(ctx, conv)
		return view, false, err
	}

	conv, err = s.conversations.Insert(ctx, &model.Conversation{Participants: []primitive.ObjectID{a, b}})
	if errors.Is(err, repo.ErrDuplicateConversation) {
		// Lost the first-contact race; the other request's document wins.
		conv, err = s.conversations.FindByParticipants(ctx, a, b)
		if err == nil && conv == nil {
			err = ErrConversationNotFound
		}
		if err != nil {
			return nil, false, err
		}
		view, err := s.buildView(ctx, conv)
		return view, false, err
	}
	if err != nil {
		return nil, false, err
	}

	view, err := s.buildView(ctx, conv)
	return view, true, err
}

// ListConversations returns every conversation the user participates in,
// enriched with participant details.
func (s *chatService) ListConversations(ctx context.Context, userID string) ([]model.ConversationView, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	convs, err := s.conversations.ListForUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	infos, err := s.participantInfos(ctx, convs)
	if err != nil {
		return nil, err
	}

	views := make([]model.ConversationView, 0, len(convs))
	for i := range convs {
		views = append(views, viewFrom(&convs[i], infos))
	}
	return views, nil
}

// ListMessages returns a conversation's history in non-decreasing
// creation-time order.
func (s *chatService) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	if _, err := primitive.ObjectIDFromHex(conversationID); err != nil {
		return nil, ErrConversationNotFound
	}
	return s.messages.ListByConversation(ctx, conversationID)
}

// SendMessage dispatches a plain-text message. The message is persisted with
// a server-assigned timestamp before any live delivery is attempted; the
// persisted document is returned regardless of fan-out outcome.
func (s *chatService) SendMessage(ctx context.Context, conversationID, senderID, text string) (*model.Message, error) {
	if text == "" {
		return nil, ErrInvalidContent
	}
	return s.dispatch(ctx, conversationID, senderID, &model.Message{Text: text})
}

// SendFileMessage uploads the file to the blob store and dispatches the
// resulting file reference as a message. Upload failure aborts the send.
func (s *chatService) SendFileMessage(ctx context.Context, conversationID, senderID string, data []byte, filename string) (*model.Message, error) {
	if len(data) == 0 {
		return nil, ErrInvalidContent
	}

	stored, err := s.blobs.Upload(ctx, data, filename)
	if err != nil {
		return nil, fmt.Errorf("file upload failed: %w", err)
	}

	return s.dispatch(ctx, conversationID, senderID, &model.Message{
		FileURL:  stored.URL,
		FileType: stored.Type,
		FileName: stored.Filename,
	})
}

// ShareStoredFile dispatches a reference to an already-stored blob, skipping
// the upload step. Missing reference details are resolved from the store.
func (s *chatService) ShareStoredFile(ctx context.Context, conversationID, senderID string, ref StoredFileRef) (*model.Message, error) {
	if ref.URL == "" || ref.Name == "" || ref.Type == "" {
		if ref.BlobID == "" {
			return nil, ErrInvalidContent
		}
		info, err := s.blobs.Resolve(ctx, ref.BlobID)
		if err != nil {
			return nil, fmt.Errorf("stored file lookup failed: %w", err)
		}
		if ref.URL == "" {
			ref.URL = info.URL
		}
		if ref.Name == "" {
			ref.Name = info.Filename
		}
		if ref.Type == "" {
			ref.Type = info.Type
		}
	}

	return s.dispatch(ctx, conversationID, senderID, &model.Message{
		FileURL:  ref.URL,
		FileType: ref.Type,
		FileName: ref.Name,
	})
}

// dispatch is the shared persist-then-fan-out path. msg arrives with its
// payload set; conversation, sender and timestamp are filled in here.
func (s *chatService) dispatch(ctx context.Context, conversationID, senderID string, msg *model.Message) (*model.Message, error) {
	convID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, ErrConversationNotFound
	}
	sender, err := primitive.ObjectIDFromHex(senderID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	msg.ConversationID = convID
	msg.Sender = sender
	if u, err := s.users.FindByID(ctx, senderID); err == nil && u != nil {
		msg.SenderName = u.Name
	}

	persisted, err := s.messages.Insert(ctx, msg)
	if err != nil {
		return nil, err
	}

	// Fan-out only after the write is durable. Every participant gets the
	// event, the sender included, so the sender's other open tabs stay in
	// sync. Offline participants reconcile from history.
	for _, p := range conv.Participants {
		s.notifier.EmitToUser(p.Hex(), event.EventReceiveMessage, persisted)
	}

	return persisted, nil
}

// DeleteMessage retracts a message. Only the original sender may delete;
// the hard delete is followed by a retraction event to every participant.
func (s *chatService) DeleteMessage(ctx context.Context, messageID, requesterID string) error {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.Sender.Hex() != requesterID {
		return ErrForbidden
	}

	if _, err := s.messages.DeleteByID(ctx, messageID); err != nil {
		return err
	}

	conv, err := s.conversations.FindByID(ctx, msg.ConversationID.Hex())
	if err != nil || conv == nil {
		// Deletion is already durable; a failed participant resolution only
		// costs the live retraction event.
		s.logger.Warn("skipping retraction fan-out",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return nil
	}

	payload := event.MessageDeletedPayload{MessageID: messageID}
	for _, p := range conv.Participants {
		s.notifier.EmitToUser(p.Hex(), event.EventMessageDeleted, payload)
	}

	return nil
}

// -----------------------------------------------------------------------------
// View helpers
// -----------------------------------------------------------------------------

func (s *chatService) buildView(ctx context.Context, conv *model.Conversation) (*model.ConversationView, error) {
	infos, err := s.participantInfos(ctx, []model.Conversation{*conv})
	if err != nil {
		return nil, err
	}
	view := viewFrom(conv, infos)
	return &view, nil
}

// participantInfos loads the users referenced by convs in one query.
func (s *chatService) participantInfos(ctx context.Context, convs []model.Conversation) (map[string]model.ParticipantInfo, error) {
	seen := make(map[primitive.ObjectID]bool)
	ids := make([]primitive.ObjectID, 0, 2*len(convs))
	for i := range convs {
		for _, p := range convs[i].Participants {
			if !seen[p] {
				seen[p] = true
				ids = append(ids, p)
			}
		}
	}
	if len(ids) == 0 {
		return map[string]model.ParticipantInfo{}, nil
	}

	users, err := s.users.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	infos := make(map[string]model.ParticipantInfo, len(users))
	for i := range users {
		u := &users[i]
		infos[u.ID.Hex()] = model.ParticipantInfo{
			UserID:         u.ID.Hex(),
			Name:           u.Name,
			Role:           u.Role,
			Specialization: u.Specialization,
		}
	}
	return infos, nil
}

func viewFrom(conv *model.Conversation, infos map[string]model.ParticipantInfo) model.ConversationView {
	participants := make([]model.ParticipantInfo, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		if info, ok := infos[p.Hex()]; ok {
			participants = append(participants, info)
		} else {
			participants = append(participants, model.ParticipantInfo{UserID: p.Hex()})
		}
	}
	return model.ConversationView{
		ID:           conv.ID.Hex(),
		Participants: participants,
		CreatedAt:    conv.CreatedAt,
	}
}
