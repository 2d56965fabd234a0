package repository

import (
	"context"

	"finsight/internal/domain/entity"
	"finsight/internal/resilience/guard"
)

// StockResult wraps a stock with the provenance of the data: whether it
// came from a live call, the fallback cache, or a default placeholder.
type StockResult struct {
	Stock  *entity.Stock
	Source guard.Source
}

// RecommendationsResult wraps analyst recommendations with provenance.
type RecommendationsResult struct {
	Recommendations []entity.AnalystRecommendation
	Source          guard.Source
}

// NewsResult wraps company news items with provenance.
type NewsResult struct {
	Items  []entity.CompanyNews
	Source guard.Source
}

// StockRepository retrieves current quote and profile data for a ticker.
type StockRepository interface {
	// GetStock returns the stock for the given symbol. A degraded result
	// (stale cache or default placeholder) is returned with its Source
	// set accordingly rather than an error when the upstream is failing.
	GetStock(ctx context.Context, symbol entity.Symbol) (StockResult, error)
}

// RecommendationRepository retrieves analyst recommendations for a ticker.
type RecommendationRepository interface {
	GetRecommendations(ctx context.Context, symbol entity.Symbol) (RecommendationsResult, error)
}

// NewsRepository retrieves recent company news for a ticker.
type NewsRepository interface {
	// GetNews returns up to limit recent news items for the symbol.
	GetNews(ctx context.Context, symbol entity.Symbol, limit int) (NewsResult, error)
}
