package llm

import (
	"context"
	"testing"
)

func TestNewProvider_Selection(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		env      map[string]string
		wantName string
		wantErr  bool
	}{
		{name: "explicit none", provider: "none", wantName: "noop"},
		{name: "explicit claude without key", provider: "claude", wantErr: true},
		{name: "explicit openai without key", provider: "openai", wantErr: true},
		{name: "unknown provider", provider: "gemini", wantErr: true},
		{name: "unset without keys falls back to noop", provider: "", wantName: "noop"},
		{
			name:     "unset prefers anthropic key",
			provider: "",
			env:      map[string]string{"ANTHROPIC_API_KEY": "test-key"},
			wantName: "claude",
		},
		{
			name:     "unset uses openai key",
			provider: "",
			env:      map[string]string{"OPENAI_API_KEY": "test-key"},
			wantName: "openai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LLM_PROVIDER", tt.provider)
			t.Setenv("ANTHROPIC_API_KEY", "")
			t.Setenv("OPENAI_API_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			p, err := NewProvider()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got provider %q", p.Name())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("provider = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestNoOp_ReturnsPrompt(t *testing.T) {
	p := NewNoOp()
	got, err := p.Complete(context.Background(), "instructions are ignored", "NVDA: $875.50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "NVDA: $875.50" {
		t.Errorf("got %q, want the prompt unchanged", got)
	}
}
