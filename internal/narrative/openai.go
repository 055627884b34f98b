package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Service abstracts the external summarization call so the generator can be
// tested with deterministic fakes.
type Service interface {
	Summarize(ctx context.Context, system, user string) (string, error)
}

// OpenAIService implements Service over the OpenAI chat-completions API.
type OpenAIService struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIService builds a client for the given credential and model.
// Callers must not construct one without a key; absence of a credential means
// the narrative generator skips the external call entirely.
func NewOpenAIService(apiKey, model string) *OpenAIService {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIService{
		api:     openai.NewClient(apiKey),
		model:   model,
		timeout: 30 * time.Second,
	}
}

// Model returns the active model identifier.
func (s *OpenAIService) Model() string { return s.model }

// Summarize sends the fixed system instruction and the digest to the model
// and returns the raw paragraph.
func (s *OpenAIService) Summarize(ctx context.Context, system, user string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.45,
		MaxTokens:   350,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
