package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"finsight/internal/domain/entity"
	"finsight/internal/repository"
	"finsight/internal/usecase/analysis"
)

// Service routes each user question to the right agent and records the
// outcome.
type Service struct {
	finance *FinanceAgent
	web     *WebSearchAgent
	team    *TeamAgent
	results repository.QueryResultRepository
}

// NewService creates the routing service.
func NewService(finance *FinanceAgent, web *WebSearchAgent, team *TeamAgent, results repository.QueryResultRepository) *Service {
	return &Service{
		finance: finance,
		web:     web,
		team:    team,
		results: results,
	}
}

// Ask analyzes the question, routes it, and returns the recorded result.
//
// Routing: questions without ticker symbols go to web search, questions
// about several tickers go to the team, everything else to the finance
// agent.
func (s *Service) Ask(ctx context.Context, content string) (*entity.QueryResult, error) {
	q := analysis.AnalyzeQuery(content)
	selected := s.route(q)
	start := time.Now()

	slog.Info("Routing query",
		"type", string(q.Type),
		"symbols", len(q.Symbols),
		"agent", selected.Name(),
	)

	result, err := selected.Answer(ctx, q)
	if err != nil {
		failed := &entity.QueryResult{
			Query:          q,
			Agent:          selected.Name(),
			GeneratedAt:    time.Now().UTC(),
			ProcessingTime: time.Since(start),
		}
		failed.MarkFailed(err.Error())
		s.save(ctx, failed)
		return nil, fmt.Errorf("answer query: %w", err)
	}

	result.ProcessingTime = time.Since(start)
	s.save(ctx, result)
	return result, nil
}

// Recent returns the latest recorded results.
func (s *Service) Recent(ctx context.Context, limit int) ([]*entity.QueryResult, error) {
	return s.results.ListRecent(ctx, limit)
}

// maxPopularSymbols caps the popular-symbols list in stats output.
const maxPopularSymbols = 5

// SymbolCount pairs a ticker with how often recorded queries mentioned it.
type SymbolCount struct {
	Symbol entity.Symbol
	Count  int
}

// QueryStats aggregates the recorded query history.
type QueryStats struct {
	Total          int
	Succeeded      int
	Degraded       int64
	PopularSymbols []SymbolCount
}

// Stats summarizes the recorded history: how many queries were answered,
// how many succeeded, how many were served from fallback data, and which
// tickers come up most often.
func (s *Service) Stats(ctx context.Context) (QueryStats, error) {
	degraded, err := s.results.CountDegraded(ctx)
	if err != nil {
		return QueryStats{}, fmt.Errorf("count degraded results: %w", err)
	}
	all, err := s.results.ListRecent(ctx, 0)
	if err != nil {
		return QueryStats{}, fmt.Errorf("list results: %w", err)
	}

	stats := QueryStats{Total: len(all), Degraded: degraded}
	counts := make(map[entity.Symbol]int)
	for _, res := range all {
		if res.Success {
			stats.Succeeded++
		}
		for _, sym := range res.Query.Symbols {
			counts[sym]++
		}
	}
	stats.PopularSymbols = topSymbols(counts, maxPopularSymbols)
	return stats, nil
}

// topSymbols orders symbol counts descending, ties broken alphabetically.
func topSymbols(counts map[entity.Symbol]int, n int) []SymbolCount {
	out := make([]SymbolCount, 0, len(counts))
	for sym, count := range counts {
		out = append(out, SymbolCount{Symbol: sym, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Symbol < out[j].Symbol
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (s *Service) route(q entity.Query) Agent {
	switch {
	case len(q.Symbols) == 0:
		return s.web
	case q.IsMultiSymbol():
		return s.team
	default:
		return s.finance
	}
}

func (s *Service) save(ctx context.Context, result *entity.QueryResult) {
	if s.results == nil {
		return
	}
	if err := s.results.Save(ctx, result); err != nil {
		slog.Error("Failed to record query result", "error", err)
	}
}
