package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"finsight/internal/resilience/retry"
)

// Claude implements Provider using Anthropic's Claude API with circuit
// breaker and retry protection.
type Claude struct {
	client  anthropic.Client
	breaker *gobreaker.CircuitBreaker
	retry   retry.Config
	cfg     ClaudeConfig
}

// NewClaude creates a Claude provider with the given API key.
func NewClaude(apiKey string) *Claude {
	cfg := LoadClaudeConfig()
	slog.Info("Initialized Claude provider", "model", cfg.Model)

	return &Claude{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		breaker: newBreaker("claude-api"),
		retry:   retry.AIAPIConfig(),
		cfg:     cfg,
	}
}

// Name implements Provider.
func (c *Claude) Name() string {
	return "claude"
}

// Complete implements Provider.
func (c *Claude) Complete(ctx context.Context, instructions, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, c.retry, func() error {
		cbResult, err := c.breaker.Execute(func() (interface{}, error) {
			return c.doComplete(ctx, instructions, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("Claude circuit breaker open, request rejected")
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("claude completion failed: %w", retryErr)
	}
	return result, nil
}

// doComplete performs the actual API call without retry or circuit breaker.
func (c *Claude) doComplete(ctx context.Context, instructions, prompt string) (string, error) {
	requestID := uuid.New().String()
	start := time.Now()

	slog.InfoContext(ctx, "Starting Claude completion",
		"request_id", requestID,
		"prompt_length", len(prompt),
	)

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: instructions},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Claude completion failed",
			"request_id", requestID,
			"duration", duration,
			"error", err.Error(),
		)
		return "", fmt.Errorf("claude api error: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected response type")
	}

	slog.InfoContext(ctx, "Claude completion finished",
		"request_id", requestID,
		"answer_length", len(textBlock.Text),
		"duration", duration,
	)
	return textBlock.Text, nil
}
