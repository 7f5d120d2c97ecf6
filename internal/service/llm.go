package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Completer is the opaque text-generation capability the core depends on.
// Implementations return complete text or an error, never partial output.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

const (
	defaultLLMAPIURL  = "https://api.deepseek.com/v1"
	defaultLLMModel   = "deepseek-chat"
	defaultLLMTimeout = 90 * time.Second
)

const systemPersona = "You are a registered dietitian and professional meal planner. Follow the requested output format exactly."

// LLMConfig configures the chat-completions backend
type LLMConfig struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout time.Duration
}

// LLMService talks to an OpenAI-compatible chat completions API (DeepSeek by default)
type LLMService struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

var _ Completer = (*LLMService)(nil)

// NewLLMService creates a new LLMService instance
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key must be set")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultLLMAPIURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultLLMModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultLLMTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimSuffix(cfg.APIURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	slog.Info("Initializing LLM client", "model", cfg.Model, "url", clientCfg.BaseURL)
	return &LLMService{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// Complete sends a single-turn prompt and returns the assistant text
func (s *LLMService) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPersona},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from API: %w", ErrEmptyCompletion)
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyCompletion
	}
	slog.Debug("Received completion", "model", s.model, "finish_reason", resp.Choices[0].FinishReason, "chars", len(content))
	return content, nil
}
