package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// GroqClient asks yes/no questions of a Groq-hosted chat model.
// Groq exposes an OpenAI-compatible API, so the client is the go-openai
// client pointed at Groq's base URL. Constructed once and shared.
type GroqClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// GroqConfig holds the settings for a GroqClient.
type GroqConfig struct {
	APIKey    string
	BaseURL   string        // Defaults to Groq's OpenAI-compatible endpoint.
	Model     string        // e.g. "llama3-8b-8192".
	MaxTokens int           // Completion budget; the verdict needs only a few tokens.
	Timeout   time.Duration // Per-call HTTP timeout.
}

// NewGroqClient creates a GroqClient from config.
func NewGroqClient(cfg GroqConfig, logger *slog.Logger) *GroqClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &GroqClient{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

// Ask sends a two-message exchange (system instruction + user prompt) and
// parses the bounded completion as a True/False verdict.
func (g *GroqClient) Ask(ctx context.Context, systemMsg, prompt string) (bool, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMsg},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return false, fmt.Errorf("%w: no choices in response", ErrServiceUnavailable)
	}

	answer := resp.Choices[0].Message.Content
	g.logger.Debug("oracle answer", "model", g.model, "answer", answer)
	return parseVerdict(answer)
}
