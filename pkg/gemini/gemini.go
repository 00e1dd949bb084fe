// Package gemini wraps the Gemini API behind a retry layer that rotates
// across several credential slots. Transient upstream failures (5xx,
// overload, rate limits) are retried with incremental backoff on the same
// key; permanent failures move straight to the next key.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ErrExhausted signals that every credential slot failed permanently. Callers
// translate it into a user-visible degraded reply, never a raw error page.
var ErrExhausted = errors.New("analysis failed after trying all credentials")

const (
	defaultModel       = "gemini-flash-latest"
	defaultMaxAttempts = 3 // per credential slot
	defaultBaseBackoff = time.Second
)

// Turn is one prior exchange in an AI chat.
type Turn struct {
	Role string // model.ChatSenderUser or model.ChatSenderAI
	Text string
}

// Analyzer is the LLM collaborator surface consumed by services.
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, data []byte, mimeType, userPrompt string) (json.RawMessage, error)
	ContinueChat(ctx context.Context, history []Turn, newMessage string) (string, error)
}

type request struct {
	system   string
	contents []*genai.Content
	jsonMode bool
}

type invokeFunc func(ctx context.Context, apiKey string, req request) (string, error)

// Client implements Analyzer against the Gemini API.
type Client struct {
	keys        []string
	model       string
	maxAttempts int
	baseBackoff time.Duration
	logger      *zap.Logger

	// invoke performs one upstream call; tests substitute it.
	invoke invokeFunc
}

// New creates a Client rotating over keys. Empty keys are skipped.
func New(keys []string, model string, logger *zap.Logger) *Client {
	if model == "" {
		model = defaultModel
	}
	c := &Client{
		model:       model,
		maxAttempts: defaultMaxAttempts,
		baseBackoff: defaultBaseBackoff,
		logger:      logger,
	}
	for _, k := range keys {
		if k != "" {
			c.keys = append(c.keys, k)
		}
	}
	c.invoke = c.callGemini
	return c
}

const analysisInstructions = `You are an expert medical AI assistant with a high degree of empathy. Your primary role is to act as a health educator, breaking down complex medical reports into simple, understandable, and reassuring information for a patient.

Analyze the attached medical report and respond with a JSON object containing: "keyTakeaways" (2-3 plain-language bullet points), "patientInfo" (name, patientId, dob, gender; "Not Found" when absent), "testResults" (testName, result, units, referenceRange, isCritical boolean, interpretation), "recommendations", "questionsForDoctor" (2-3 questions), and "summary" (one reassuring paragraph). Extract data exactly as it appears and do not diagnose diseases.`

const chatSystemPrompt = `You are a helpful medical AI assistant. Answer the user's follow-up questions based on the preceding conversation, which may include an analysis of their medical report. Provide clear, conversational answers. Do not output raw JSON or repeat the analysis structure.`

// AnalyzeDocument sends document bytes for structured analysis and returns
// the validated JSON result.
func (c *Client) AnalyzeDocument(ctx context.Context, data []byte, mimeType, userPrompt string) (json.RawMessage, error) {
	if userPrompt == "" {
		userPrompt = "Please provide a general analysis."
	}

	parts := []*genai.Part{
		{Text: analysisInstructions},
		{Text: "User's specific question: " + userPrompt},
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
	}

	text, err := c.generate(ctx, request{
		contents: []*genai.Content{{Role: genai.RoleUser, Parts: parts}},
		jsonMode: true,
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(text), nil
}

// ContinueChat continues a text conversation using the prior turns as
// context.
func (c *Client) ContinueChat(ctx context.Context, history []Turn, newMessage string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		var role genai.Role = genai.RoleUser
		if t.Role != "user" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(newMessage, genai.RoleUser))

	return c.generate(ctx, request{
		system:   chatSystemPrompt,
		contents: contents,
	})
}

// generate runs the credential-slot retry loop around invoke.
func (c *Client) generate(ctx context.Context, req request) (string, error) {
	if len(c.keys) == 0 {
		return "", fmt.Errorf("%w: no API keys configured", ErrExhausted)
	}

	var lastErr error
	for slot, key := range c.keys {
		for attempt := 1; attempt <= c.maxAttempts; attempt++ {
			text, err := c.invoke(ctx, key, req)
			if err == nil {
				if req.jsonMode && !json.Valid([]byte(text)) {
					lastErr = fmt.Errorf("invalid JSON response from model")
					c.logger.Warn("model returned unparseable JSON, rotating key",
						zap.Int("slot", slot),
					)
					break // next key
				}
				return text, nil
			}

			lastErr = err
			if ctx.Err() != nil {
				return "", fmt.Errorf("analysis cancelled: %w", ctx.Err())
			}

			if !isTransient(err) {
				c.logger.Warn("permanent upstream error, rotating key",
					zap.Int("slot", slot),
					zap.Error(err),
				)
				break // next key
			}

			c.logger.Warn("transient upstream error, backing off",
				zap.Int("slot", slot),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if attempt < c.maxAttempts {
				select {
				case <-ctx.Done():
					return "", fmt.Errorf("analysis cancelled: %w", ctx.Err())
				case <-time.After(c.baseBackoff * time.Duration(attempt)):
				}
			}
		}
	}

	return "", fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}

// callGemini performs one real upstream call with the given key.
func (c *Client) callGemini(ctx context.Context, apiKey string, req request) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{}
	if req.jsonMode {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.system, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, req.contents, cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// isTransient classifies upstream failures. Only 5xx-class and overload
// errors are worth retrying on the same credential slot.
func isTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "503") ||
		strings.Contains(msg, "overload") ||
		strings.Contains(msg, "temporar")
}
