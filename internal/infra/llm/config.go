package llm

import (
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"

	"finsight/pkg/config"
)

// ClaudeConfig holds settings for the Claude provider.
type ClaudeConfig struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// LoadClaudeConfig loads Claude settings from environment variables:
//   - CLAUDE_MODEL: model identifier
//   - LLM_TIMEOUT: per-call timeout (e.g. "60s")
func LoadClaudeConfig() ClaudeConfig {
	return ClaudeConfig{
		Model:     config.GetEnvString("CLAUDE_MODEL", string(anthropic.ModelClaudeSonnet4_5_20250929)),
		MaxTokens: config.GetEnvInt("LLM_MAX_TOKENS", 1024),
		Timeout:   config.GetEnvDuration("LLM_TIMEOUT", 60*time.Second),
	}
}

// OpenAIConfig holds settings for the OpenAI provider.
type OpenAIConfig struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// LoadOpenAIConfig loads OpenAI settings from environment variables:
//   - OPENAI_MODEL: model identifier
//   - LLM_TIMEOUT: per-call timeout (e.g. "60s")
func LoadOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model:     config.GetEnvString("OPENAI_MODEL", openai.GPT4oMini),
		MaxTokens: config.GetEnvInt("LLM_MAX_TOKENS", 1024),
		Timeout:   config.GetEnvDuration("LLM_TIMEOUT", 60*time.Second),
	}
}
