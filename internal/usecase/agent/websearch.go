package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finsight/internal/domain/entity"
	"finsight/internal/infra/llm"
	"finsight/internal/infra/websearch"
	"finsight/internal/resilience/guard"
)

// WebSearcher is the search capability the web agent needs.
type WebSearcher interface {
	Search(ctx context.Context, query string) (websearch.Results, error)
}

// WebSearchAgent answers questions from web search results, optionally
// synthesizing the answer with a language model.
type WebSearchAgent struct {
	searcher     WebSearcher
	provider     llm.Provider
	instructions string
}

// NewWebSearchAgent creates a web search agent.
func NewWebSearchAgent(searcher WebSearcher, provider llm.Provider, instructions string) *WebSearchAgent {
	return &WebSearchAgent{
		searcher:     searcher,
		provider:     provider,
		instructions: instructions,
	}
}

// Name implements Agent.
func (a *WebSearchAgent) Name() string {
	return "web-search"
}

// Answer implements Agent.
func (a *WebSearchAgent) Answer(ctx context.Context, q entity.Query) (*entity.QueryResult, error) {
	results, err := a.searcher.Search(ctx, q.Content)
	if err != nil {
		return nil, fmt.Errorf("web search agent: %w", err)
	}

	digest := digestResults(results.Items)
	result := &entity.QueryResult{
		Query:       q,
		Agent:       a.Name(),
		Success:     true,
		Degraded:    results.Source != guard.SourceFresh,
		GeneratedAt: time.Now().UTC(),
	}
	result.AddSource("web-search")

	prompt := fmt.Sprintf("Question: %s\n\nSearch results:\n%s", q.Content, digest)
	answer, err := a.provider.Complete(ctx, a.instructions, prompt)
	if err != nil {
		slog.Warn("LLM synthesis failed, answering with search digest",
			"agent", a.Name(),
			"error", err,
		)
		result.Answer = digest
		result.Degraded = true
		result.AddSource("search-digest")
		return result, nil
	}

	result.Answer = answer
	return result, nil
}

// digestResults renders search hits as numbered plain-text entries.
func digestResults(items []websearch.Result) string {
	if len(items) == 0 {
		return "No search results available."
	}

	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, item.Title, item.Snippet, item.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}
