package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/repo"
	"github.com/Zahid-Ham/ConsultAI-Latest/pkg/gemini"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// degradedReply is returned when every analysis credential is exhausted. The
// user gets an apology rather than an error page; the turn is still recorded.
const degradedReply = "I'm sorry, I'm having trouble connecting to my knowledge base right now. Please try again in a moment."

// parentheticals strips stage-direction asides some models emit, e.g.
// "(pauses thoughtfully)".
var parentheticals = regexp.MustCompile(`\([^)]*\)`)

const maxReportDownload = 20 << 20 // 20 MB

// ChatbotService runs the AI assistant: symptom chat sessions and medical
// report analysis, both persisted as chat history.
type ChatbotService interface {
	SendChatMessage(ctx context.Context, userID, chatID, message string) (*model.ChatSession, string, error)
	AnalyzeReport(ctx context.Context, userID, chatID string, data []byte, mimeType, filename, prompt string) (*model.ChatSession, any, error)
	AnalyzeStoredReport(ctx context.Context, userID, chatID, fileURL, filename, prompt string) (*model.ChatSession, any, error)
	ListChats(ctx context.Context, userID string) ([]model.ChatSession, error)
	GetChat(ctx context.Context, userID, chatID string) (*model.ChatSession, error)
	RenameChat(ctx context.Context, userID, chatID, title string) error
	DeleteChat(ctx context.Context, userID, chatID string) error
}

type chatbotService struct {
	chats    repo.ChatRepository
	analyzer gemini.Analyzer
	client   *http.Client
	logger   *zap.Logger
}

func NewChatbotService(chats repo.ChatRepository, analyzer gemini.Analyzer, logger *zap.Logger) ChatbotService {
	return &chatbotService{
		chats:    chats,
		analyzer: analyzer,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

// SendChatMessage appends the user's message to the session (creating one
// when chatID is empty), asks the model for a reply with the prior turns as
// context, and appends the reply. When the model is unreachable a degraded
// apology reply is stored instead, so the session stays coherent.
func (s *chatbotService) SendChatMessage(ctx context.Context, userID, chatID, message string) (*model.ChatSession, string, error) {
	if message == "" {
		return nil, "", ErrInvalidContent
	}

	session, err := s.loadOrCreate(ctx, userID, chatID, message)
	if err != nil {
		return nil, "", err
	}

	history := make([]gemini.Turn, 0, len(session.Messages))
	for _, turn := range session.Messages {
		text, ok := turn.Text.(string)
		if !ok {
			// Structured analysis turns are summarized rather than replayed
			// verbatim so the model keeps the context without the raw JSON.
			text = "(a medical report analysis was shared earlier)"
		}
		role := model.ChatSenderUser
		if turn.Sender != model.ChatSenderUser {
			role = model.ChatSenderAI
		}
		history = append(history, gemini.Turn{Role: role, Text: text})
	}

	if err := s.appendTurn(ctx, session, model.ChatSenderUser, message); err != nil {
		return nil, "", err
	}

	reply, err := s.analyzer.ContinueChat(ctx, history, message)
	if err != nil {
		if !errors.Is(err, gemini.ErrExhausted) {
			return nil, "", err
		}
		s.logger.Warn("chat reply degraded, all credentials exhausted",
			zap.String("chat_id", session.ID.Hex()),
			zap.Error(err),
		)
		reply = degradedReply
	}
	reply = parentheticals.ReplaceAllString(reply, "")

	if err := s.appendTurn(ctx, session, model.ChatSenderAI, reply); err != nil {
		return nil, "", err
	}

	return session, reply, nil
}

// AnalyzeReport runs structured analysis over an uploaded document and
// records both the request and the structured result in the session.
func (s *chatbotService) AnalyzeReport(ctx context.Context, userID, chatID string, data []byte, mimeType, filename, prompt string) (*model.ChatSession, any, error) {
	if len(data) == 0 {
		return nil, nil, ErrInvalidContent
	}

	title := "Report: " + filename
	session, err := s.loadOrCreate(ctx, userID, chatID, title)
	if err != nil {
		return nil, nil, err
	}

	userText := "Analyze report: " + filename
	if prompt != "" {
		userText = prompt
	}
	if err := s.appendTurn(ctx, session, model.ChatSenderUser, userText); err != nil {
		return nil, nil, err
	}

	analysis, err := s.analyzer.AnalyzeDocument(ctx, data, mimeType, prompt)
	if err != nil {
		if !errors.Is(err, gemini.ErrExhausted) {
			return nil, nil, err
		}
		s.logger.Warn("report analysis degraded, all credentials exhausted",
			zap.String("chat_id", session.ID.Hex()),
			zap.Error(err),
		)
		if err := s.appendTurn(ctx, session, model.ChatSenderAI, degradedReply); err != nil {
			return nil, nil, err
		}
		return session, degradedReply, nil
	}

	var structured any
	if err := json.Unmarshal(analysis, &structured); err != nil {
		return nil, nil, fmt.Errorf("decoding analysis result: %w", err)
	}
	if err := s.appendTurn(ctx, session, model.ChatSenderAI, structured); err != nil {
		return nil, nil, err
	}

	return session, structured, nil
}

// AnalyzeStoredReport fetches a previously stored report by URL and analyzes
// it like a fresh upload.
func (s *chatbotService) AnalyzeStoredReport(ctx context.Context, userID, chatID, fileURL, filename, prompt string) (*model.ChatSession, any, error) {
	if fileURL == "" {
		return nil, nil, ErrInvalidContent
	}

	data, mimeType, err := s.download(ctx, fileURL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching stored report: %w", err)
	}

	return s.AnalyzeReport(ctx, userID, chatID, data, mimeType, filename, prompt)
}

// ListChats returns the user's sessions, most recent first, with message
// bodies included.
func (s *chatbotService) ListChats(ctx context.Context, userID string) ([]model.ChatSession, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.chats.ListForUser(ctx, uid)
}

func (s *chatbotService) GetChat(ctx context.Context, userID, chatID string) (*model.ChatSession, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	session, err := s.chats.FindForUser(ctx, chatID, uid)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrChatNotFound
	}
	return session, nil
}

// RenameChat sets a user-chosen session title, replacing the derived one.
func (s *chatbotService) RenameChat(ctx context.Context, userID, chatID, title string) error {
	if title == "" {
		return ErrInvalidContent
	}
	if _, err := s.GetChat(ctx, userID, chatID); err != nil {
		return err
	}
	return s.chats.SetTitle(ctx, chatID, title)
}

func (s *chatbotService) DeleteChat(ctx context.Context, userID, chatID string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}
	deleted, err := s.chats.DeleteForUser(ctx, chatID, uid)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrChatNotFound
	}
	return nil
}

// loadOrCreate fetches the owner's session or starts a new one titled after
// the first message.
func (s *chatbotService) loadOrCreate(ctx context.Context, userID, chatID, firstMessage string) (*model.ChatSession, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if chatID != "" {
		session, err := s.chats.FindForUser(ctx, chatID, uid)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrChatNotFound
		}
		return session, nil
	}

	return s.chats.Insert(ctx, &model.ChatSession{
		UserID:    uid,
		Title:     model.DeriveChatTitle(firstMessage),
		ModelType: model.ChatModelGemini,
		Messages:  []model.ChatTurn{},
	})
}

// appendTurn persists a turn and mirrors it onto the in-memory session so the
// caller can return the up-to-date document without a re-read.
func (s *chatbotService) appendTurn(ctx context.Context, session *model.ChatSession, sender string, text any) error {
	turn := model.ChatTurn{
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chats.AppendTurn(ctx, session.ID.Hex(), turn); err != nil {
		return err
	}
	session.Messages = append(session.Messages, turn)
	return nil
}

func (s *chatbotService) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReportDownload))
	if err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	return data, mimeType, nil
}
