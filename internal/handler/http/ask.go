package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"finsight/internal/domain/entity"
	"finsight/internal/handler/http/respond"
	"finsight/internal/usecase/agent"
)

// maxQuestionLength caps the accepted question size.
const maxQuestionLength = 2000

// AskService answers user questions and reports on past results.
type AskService interface {
	Ask(ctx context.Context, content string) (*entity.QueryResult, error)
	Recent(ctx context.Context, limit int) ([]*entity.QueryResult, error)
	Stats(ctx context.Context) (agent.QueryStats, error)
}

// AskRequest is the request body for the ask endpoint.
type AskRequest struct {
	Question string `json:"question"`
}

// QueryResultDTO is the JSON shape of an answered query.
type QueryResultDTO struct {
	Question         string   `json:"question"`
	Answer           string   `json:"answer"`
	Agent            string   `json:"agent"`
	Symbols          []string `json:"symbols,omitempty"`
	Sources          []string `json:"sources,omitempty"`
	Success          bool     `json:"success"`
	Degraded         bool     `json:"degraded"`
	ErrorMessage     string   `json:"error_message,omitempty"`
	GeneratedAt      string   `json:"generated_at"`
	ProcessingTimeMS int64    `json:"processing_time_ms"`
}

func toQueryResultDTO(res *entity.QueryResult) QueryResultDTO {
	symbols := make([]string, 0, len(res.Query.Symbols))
	for _, s := range res.Query.Symbols {
		symbols = append(symbols, s.String())
	}
	return QueryResultDTO{
		Question:         res.Query.Content,
		Answer:           res.Answer,
		Agent:            res.Agent,
		Symbols:          symbols,
		Sources:          res.Sources,
		Success:          res.Success,
		Degraded:         res.Degraded,
		ErrorMessage:     res.ErrorMessage,
		GeneratedAt:      res.GeneratedAt.UTC().Format(time.RFC3339),
		ProcessingTimeMS: res.ProcessingTime.Milliseconds(),
	}
}

// AskHandler answers a user question by routing it to the right agent.
type AskHandler struct{ Svc AskService }

func (h AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Question == "" {
		respond.DomainError(w, &entity.ValidationError{Field: "question", Message: "must not be empty"})
		return
	}
	if len(req.Question) > maxQuestionLength {
		respond.DomainError(w, &entity.ValidationError{
			Field:   "question",
			Message: fmt.Sprintf("must be at most %d characters", maxQuestionLength),
		})
		return
	}

	result, err := h.Svc.Ask(r.Context(), req.Question)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toQueryResultDTO(result))
}

// RecentHandler lists the most recently answered queries.
type RecentHandler struct{ Svc AskService }

func (h RecentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respond.DomainError(w, &entity.ValidationError{Field: "limit", Message: "must be an integer between 1 and 100"})
			return
		}
		limit = parsed
	}

	results, err := h.Svc.Recent(r.Context(), limit)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	out := make([]QueryResultDTO, 0, len(results))
	for _, res := range results {
		out = append(out, toQueryResultDTO(res))
	}
	respond.JSON(w, http.StatusOK, map[string]any{"results": out})
}

// QueryStatsDTO is the JSON shape of aggregated query statistics.
type QueryStatsDTO struct {
	TotalQueries    int              `json:"total_queries"`
	Succeeded       int              `json:"succeeded"`
	DegradedAnswers int64            `json:"degraded_answers"`
	PopularSymbols  []SymbolCountDTO `json:"popular_symbols"`
}

// SymbolCountDTO is one entry of the popular-symbols list.
type SymbolCountDTO struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}

func toQueryStatsDTO(stats agent.QueryStats) QueryStatsDTO {
	popular := make([]SymbolCountDTO, 0, len(stats.PopularSymbols))
	for _, sc := range stats.PopularSymbols {
		popular = append(popular, SymbolCountDTO{Symbol: sc.Symbol.String(), Count: sc.Count})
	}
	return QueryStatsDTO{
		TotalQueries:    stats.Total,
		Succeeded:       stats.Succeeded,
		DegradedAnswers: stats.Degraded,
		PopularSymbols:  popular,
	}
}

// StatsHandler reports aggregate statistics over the recorded queries.
type StatsHandler struct{ Svc AskService }

func (h StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context())
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toQueryStatsDTO(stats))
}
