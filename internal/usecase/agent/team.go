package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"finsight/internal/domain/entity"
	"finsight/internal/infra/llm"
)

// TeamAgent runs the finance and web search agents in parallel and
// synthesizes their answers into one. If one member fails, the other's
// answer is used alone rather than failing the query.
type TeamAgent struct {
	finance      *FinanceAgent
	web          *WebSearchAgent
	provider     llm.Provider
	instructions string
}

// NewTeamAgent creates a team agent over the two member agents.
func NewTeamAgent(finance *FinanceAgent, web *WebSearchAgent, provider llm.Provider, instructions string) *TeamAgent {
	return &TeamAgent{
		finance:      finance,
		web:          web,
		provider:     provider,
		instructions: instructions,
	}
}

// Name implements Agent.
func (a *TeamAgent) Name() string {
	return "team"
}

// Answer implements Agent.
func (a *TeamAgent) Answer(ctx context.Context, q entity.Query) (*entity.QueryResult, error) {
	var financeResult, webResult *entity.QueryResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := a.finance.Answer(gctx, q)
		if err != nil {
			slog.Warn("Finance member failed", "error", err)
			return nil
		}
		financeResult = r
		return nil
	})
	g.Go(func() error {
		r, err := a.web.Answer(gctx, q)
		if err != nil {
			slog.Warn("Web search member failed", "error", err)
			return nil
		}
		webResult = r
		return nil
	})
	// Members never return errors; failures degrade to a missing section.
	_ = g.Wait()

	if financeResult == nil && webResult == nil {
		return nil, fmt.Errorf("team agent: all members failed")
	}

	result := &entity.QueryResult{
		Query:       q,
		Agent:       a.Name(),
		Success:     true,
		GeneratedAt: time.Now().UTC(),
	}

	var sections []string
	if financeResult != nil {
		sections = append(sections, "Market data analysis:\n"+financeResult.Answer)
		result.Degraded = result.Degraded || financeResult.Degraded
		for _, s := range financeResult.Sources {
			result.AddSource(s)
		}
	}
	if webResult != nil {
		sections = append(sections, "Web research:\n"+webResult.Answer)
		result.Degraded = result.Degraded || webResult.Degraded
		for _, s := range webResult.Sources {
			result.AddSource(s)
		}
	}
	combined := strings.Join(sections, "\n\n")

	// A single surviving member needs no extra synthesis round.
	if financeResult == nil || webResult == nil {
		result.Answer = combined
		result.Degraded = true
		return result, nil
	}

	prompt := fmt.Sprintf("Question: %s\n\n%s", q.Content, combined)
	answer, err := a.provider.Complete(ctx, a.instructions, prompt)
	if err != nil {
		slog.Warn("Team synthesis failed, returning member answers", "error", err)
		result.Answer = combined
		result.Degraded = true
		return result, nil
	}

	result.Answer = answer
	return result, nil
}
