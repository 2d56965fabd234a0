package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"finsight/internal/domain/entity"
	"finsight/internal/repository"
	"finsight/internal/resilience/guard"
)

// StockOverview bundles everything known about one stock, with per-section
// provenance so callers can tell which parts came from fallback data.
type StockOverview struct {
	Stock       *entity.Stock
	StockSource guard.Source

	Consensus  Consensus
	RecsSource guard.Source

	News       []entity.CompanyNews
	NewsSource guard.Source
}

// Degraded reports whether any section was served from fallback data.
func (o *StockOverview) Degraded() bool {
	return o.StockSource != guard.SourceFresh ||
		o.RecsSource != guard.SourceFresh ||
		o.NewsSource != guard.SourceFresh
}

// Service aggregates the three market data repositories into per-stock
// overviews.
type Service struct {
	stocks    repository.StockRepository
	recs      repository.RecommendationRepository
	news      repository.NewsRepository
	newsLimit int
}

// NewService creates an analysis service over the given repositories.
func NewService(stocks repository.StockRepository, recs repository.RecommendationRepository, news repository.NewsRepository) *Service {
	return &Service{
		stocks:    stocks,
		recs:      recs,
		news:      news,
		newsLimit: 5,
	}
}

// Overview fetches quote, recommendations and news for one symbol
// concurrently. A missing symbol fails the whole overview; failures of the
// recommendation or news sections degrade to empty sections instead, since
// a partial answer is more useful than none.
func (s *Service) Overview(ctx context.Context, symbol entity.Symbol) (*StockOverview, error) {
	overview := &StockOverview{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.stocks.GetStock(gctx, symbol)
		if err != nil {
			return fmt.Errorf("stock section: %w", err)
		}
		overview.Stock = res.Stock
		overview.StockSource = res.Source
		return nil
	})
	g.Go(func() error {
		res, err := s.recs.GetRecommendations(gctx, symbol)
		if err != nil {
			slog.Warn("Recommendations section unavailable", "symbol", symbol, "error", err)
			overview.RecsSource = guard.SourceDefault
			return nil
		}
		overview.Consensus = BuildConsensus(symbol, res.Recommendations)
		overview.RecsSource = res.Source
		return nil
	})
	g.Go(func() error {
		res, err := s.news.GetNews(gctx, symbol, s.newsLimit)
		if err != nil {
			slog.Warn("News section unavailable", "symbol", symbol, "error", err)
			overview.NewsSource = guard.SourceDefault
			return nil
		}
		overview.News = AnnotateSentiment(res.Items)
		overview.NewsSource = res.Source
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if overview.Consensus.Symbol == "" {
		overview.Consensus = BuildConsensus(symbol, nil)
	}
	return overview, nil
}
