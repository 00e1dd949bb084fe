package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/middleware"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-test-secret"

// stubChatService cans responses per method and records the caller identity
// the handler extracted from the token.
type stubChatService struct {
	sentText   string
	senderID   string
	sendErr    error
	deleteErr  error
	deletedID  string
	requester  string
}

func (s *stubChatService) CreateOrGetConversation(ctx context.Context, userID, recipientID string) (*model.ConversationView, bool, error) {
	return &model.ConversationView{ID: primitive.NewObjectID().Hex()}, true, nil
}

func (s *stubChatService) ListConversations(ctx context.Context, userID string) ([]model.ConversationView, error) {
	return nil, nil
}

func (s *stubChatService) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	return nil, nil
}

func (s *stubChatService) SendMessage(ctx context.Context, conversationID, senderID, text string) (*model.Message, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	s.sentText = text
	s.senderID = senderID
	return &model.Message{ID: primitive.NewObjectID(), Text: text}, nil
}

func (s *stubChatService) SendFileMessage(ctx context.Context, conversationID, senderID string, data []byte, filename string) (*model.Message, error) {
	return &model.Message{ID: primitive.NewObjectID(), FileName: filename}, nil
}

func (s *stubChatService) ShareStoredFile(ctx context.Context, conversationID, senderID string, ref service.StoredFileRef) (*model.Message, error) {
	return &model.Message{ID: primitive.NewObjectID(), FileURL: ref.URL}, nil
}

func (s *stubChatService) DeleteMessage(ctx context.Context, messageID, requesterID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedID = messageID
	s.requester = requesterID
	return nil
}

func chatTestRouter(stub *stubChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewChatHandler(stub)
	auth := middleware.RequireAuth(testSecret)
	group := router.Group("/api/chat", auth)
	group.POST("/messages/:conversationId", h.SendMessage)
	group.DELETE("/messages/:messageId", h.DeleteMessage)
	return router
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := middleware.SignToken(testSecret, &model.User{
		ID:   mustObjectID(t, userID),
		Role: model.RolePatient,
	}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func mustObjectID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return id
}

func TestSendMessageUsesTokenIdentity(t *testing.T) {
	stub := &stubChatService{}
	router := chatTestRouter(stub)
	userID := primitive.NewObjectID().Hex()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/messages/"+primitive.NewObjectID().Hex(),
		strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, userID))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "hello", stub.sentText)
	// Sender identity comes from the token, never the request body.
	require.Equal(t, userID, stub.senderID)
}

func TestSendMessageRequiresAuth(t *testing.T) {
	router := chatTestRouter(&stubChatService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/messages/"+primitive.NewObjectID().Hex(),
		strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendMessageMapsServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown conversation", service.ErrConversationNotFound, http.StatusNotFound},
		{"empty content", service.ErrInvalidContent, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chatTestRouter(&stubChatService{sendErr: tt.err})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/chat/messages/"+primitive.NewObjectID().Hex(),
				strings.NewReader(`{"text":"hello"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", bearerFor(t, primitive.NewObjectID().Hex()))
			router.ServeHTTP(w, req)

			require.Equal(t, tt.want, w.Code)
		})
	}
}

func TestDeleteMessageForbiddenForNonSender(t *testing.T) {
	router := chatTestRouter(&stubChatService{deleteErr: service.ErrForbidden})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/chat/messages/"+primitive.NewObjectID().Hex(), nil)
	req.Header.Set("Authorization", bearerFor(t, primitive.NewObjectID().Hex()))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteMessagePassesIdentity(t *testing.T) {
	stub := &stubChatService{}
	router := chatTestRouter(stub)
	userID := primitive.NewObjectID().Hex()
	messageID := primitive.NewObjectID().Hex()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/chat/messages/"+messageID, nil)
	req.Header.Set("Authorization", bearerFor(t, userID))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, messageID, stub.deletedID)
	require.Equal(t, userID, stub.requester)
}
