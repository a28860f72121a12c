package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI generates text through any OpenAI-compatible chat completions
// endpoint, including OpenRouter.
type OpenAI struct {
	client  openai.Client
	apiKey  string
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func NewOpenAI(apiKey, model, baseURL string, timeout time.Duration, logger *slog.Logger) *OpenAI {
	if model == "" {
		model = defaultOpenAIModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAI{
		client:  openai.NewClient(opts...),
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		logger:  logger.With("component", "llm", "provider", ProviderOpenAI),
	}
}

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       o.model,
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("openai timeout after %s (model=%s)", o.timeout, o.model)
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai status %d (model=%s): %s",
				apiErr.StatusCode, o.model, truncate(redactKey(apiErr.Error(), o.apiKey), 400))
		}
		return "", fmt.Errorf("openai generate (model=%s): %w", o.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := resp.Choices[0].Message.Content
	o.logger.Debug("openai response received",
		"model", o.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"chars", len(text),
	)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func redactKey(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, "[REDACTED]")
}
