// Package llm provides language model adapters used to synthesize natural
// language answers from collected market data. It includes Claude
// (Anthropic) and OpenAI implementations with circuit breaker and retry
// protection, plus a no-op implementation for running without API keys.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"finsight/pkg/config"
)

// Provider generates an answer from agent instructions and a prompt
// containing the collected data and the user's question.
type Provider interface {
	Complete(ctx context.Context, instructions, prompt string) (string, error)

	// Name identifies the provider in logs and result metadata.
	Name() string
}

// NewProvider selects a provider from the environment.
//
// LLM_PROVIDER chooses the backend: "claude", "openai" or "none". When
// unset, the choice falls back to whichever API key is present
// (ANTHROPIC_API_KEY, then OPENAI_API_KEY), and finally to the no-op
// provider so the service remains usable without credentials.
func NewProvider() (Provider, error) {
	provider := strings.ToLower(config.GetEnvString("LLM_PROVIDER", ""))

	switch provider {
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("LLM_PROVIDER=claude requires ANTHROPIC_API_KEY")
		}
		return NewClaude(apiKey), nil
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("LLM_PROVIDER=openai requires OPENAI_API_KEY")
		}
		return NewOpenAI(apiKey), nil
	case "none":
		return NewNoOp(), nil
	case "":
		if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
			return NewClaude(apiKey), nil
		}
		if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
			return NewOpenAI(apiKey), nil
		}
		slog.Warn("No LLM API key configured, answers will be data digests only")
		return NewNoOp(), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}
}
