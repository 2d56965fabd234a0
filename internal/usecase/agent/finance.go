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
	"finsight/internal/resilience/guard"
	"finsight/internal/usecase/analysis"
)

// maxSymbolsPerQuery bounds the fan-out for one question.
const maxSymbolsPerQuery = 5

// FinanceAgent answers stock questions from the market data repositories,
// optionally synthesizing the answer with a language model.
type FinanceAgent struct {
	analysis     *analysis.Service
	provider     llm.Provider
	instructions string
}

// NewFinanceAgent creates a finance agent.
func NewFinanceAgent(svc *analysis.Service, provider llm.Provider, instructions string) *FinanceAgent {
	return &FinanceAgent{
		analysis:     svc,
		provider:     provider,
		instructions: instructions,
	}
}

// Name implements Agent.
func (a *FinanceAgent) Name() string {
	return "finance"
}

// Answer implements Agent. Overviews for all mentioned symbols are fetched
// concurrently; the language model turns the data digest into a narrative
// answer. When the model fails, the digest itself is the answer, marked
// degraded, so a working data path always yields something useful.
func (a *FinanceAgent) Answer(ctx context.Context, q entity.Query) (*entity.QueryResult, error) {
	symbols := q.Symbols
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if len(symbols) > maxSymbolsPerQuery {
		symbols = symbols[:maxSymbolsPerQuery]
	}

	overviews := make([]*analysis.StockOverview, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range symbols {
		g.Go(func() error {
			o, err := a.analysis.Overview(gctx, sym)
			if err != nil {
				return err
			}
			overviews[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("finance agent: %w", err)
	}

	digest := buildDigest(overviews)
	degraded := false
	for _, o := range overviews {
		if o.Degraded() {
			degraded = true
			break
		}
	}

	result := &entity.QueryResult{
		Query:       q,
		Agent:       a.Name(),
		Success:     true,
		Degraded:    degraded,
		GeneratedAt: time.Now().UTC(),
	}
	result.AddSource("stock-api")

	prompt := fmt.Sprintf("Question: %s\n\nMarket data:\n%s", q.Content, digest)
	answer, err := a.provider.Complete(ctx, a.instructions, prompt)
	if err != nil {
		slog.Warn("LLM synthesis failed, answering with data digest",
			"agent", a.Name(),
			"error", err,
		)
		result.Answer = digest
		result.Degraded = true
		result.AddSource("data-digest")
		return result, nil
	}

	result.Answer = answer
	return result, nil
}

// buildDigest renders the fetched overviews as plain text, one section per
// symbol, annotating sections served from fallback data.
func buildDigest(overviews []*analysis.StockOverview) string {
	var b strings.Builder
	for i, o := range overviews {
		if i > 0 {
			b.WriteString("\n\n")
		}
		writeOverview(&b, o)
	}
	return b.String()
}

func writeOverview(b *strings.Builder, o *analysis.StockOverview) {
	s := o.Stock

	fmt.Fprintf(b, "%s (%s)", s.Name, s.Symbol)
	if o.StockSource != guard.SourceFresh {
		fmt.Fprintf(b, " [%s data]", o.StockSource)
	}
	b.WriteString("\n")

	if s.CurrentPrice != nil {
		fmt.Fprintf(b, "Price: %s\n", s.CurrentPrice.Formatted())
	}
	if s.MarketCap != nil {
		fmt.Fprintf(b, "Market cap: %s\n", s.MarketCap.Formatted())
	}
	if s.PERatio != nil {
		fmt.Fprintf(b, "P/E ratio: %.1f\n", *s.PERatio)
	}
	if s.DividendYield != nil {
		fmt.Fprintf(b, "Dividend yield: %.2f%%\n", *s.DividendYield*100)
	}
	if s.Sector != "" {
		fmt.Fprintf(b, "Sector: %s", s.Sector)
		if s.Industry != "" {
			fmt.Fprintf(b, " / %s", s.Industry)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "Analysts: %s", o.Consensus.Summary())
	if o.RecsSource != guard.SourceFresh && o.Consensus.Total > 0 {
		fmt.Fprintf(b, " [%s data]", o.RecsSource)
	}
	b.WriteString("\n")

	b.WriteString("Recent news:\n")
	b.WriteString(analysis.DigestNews(o.News, 5))
}
