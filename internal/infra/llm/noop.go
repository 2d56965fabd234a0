package llm

import (
	"context"
)

// NoOp is a provider that returns the prompt's data digest unchanged.
// It keeps the service fully functional without any AI credentials:
// answers are the raw collected data instead of a synthesized narrative.
type NoOp struct{}

// NewNoOp creates a no-op provider.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Name implements Provider.
func (n *NoOp) Name() string {
	return "noop"
}

// Complete returns the prompt as-is.
func (n *NoOp) Complete(_ context.Context, _ string, prompt string) (string, error) {
	return prompt, nil
}
