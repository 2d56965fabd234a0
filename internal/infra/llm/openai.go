package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"finsight/internal/resilience/retry"
)

// OpenAI implements Provider using the OpenAI chat completion API with
// circuit breaker and retry protection.
type OpenAI struct {
	client  *openai.Client
	breaker *gobreaker.CircuitBreaker
	retry   retry.Config
	cfg     OpenAIConfig
}

// NewOpenAI creates an OpenAI provider with the given API key.
func NewOpenAI(apiKey string) *OpenAI {
	cfg := LoadOpenAIConfig()
	slog.Info("Initialized OpenAI provider", "model", cfg.Model)

	return &OpenAI{
		client:  openai.NewClient(apiKey),
		breaker: newBreaker("openai-api"),
		retry:   retry.AIAPIConfig(),
		cfg:     cfg,
	}
}

// Name implements Provider.
func (o *OpenAI) Name() string {
	return "openai"
}

// Complete implements Provider.
func (o *OpenAI) Complete(ctx context.Context, instructions, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, o.retry, func() error {
		cbResult, err := o.breaker.Execute(func() (interface{}, error) {
			return o.doComplete(ctx, instructions, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("OpenAI circuit breaker open, request rejected")
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("openai completion failed: %w", retryErr)
	}
	return result, nil
}

// doComplete performs the actual API call without retry or circuit breaker.
func (o *OpenAI) doComplete(ctx context.Context, instructions, prompt string) (string, error) {
	requestID := uuid.New().String()
	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.cfg.Model,
		MaxTokens: o.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "OpenAI completion failed",
			"request_id", requestID,
			"duration", duration,
			"error", err.Error(),
		)
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api returned no choices")
	}

	slog.InfoContext(ctx, "OpenAI completion finished",
		"request_id", requestID,
		"answer_length", len(resp.Choices[0].Message.Content),
		"duration", duration,
	)
	return resp.Choices[0].Message.Content, nil
}
