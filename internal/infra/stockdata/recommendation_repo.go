package stockdata

import (
	"context"
	"fmt"

	"finsight/internal/domain/entity"
	"finsight/internal/repository"
	"finsight/internal/resilience/fallback"
	"finsight/internal/resilience/guard"
)

// RecommendationRepo implements repository.RecommendationRepository
// against the quote API's rating history module.
type RecommendationRepo struct {
	client *Client
	limit  int
	guard  *guard.Guard[[]entity.AnalystRecommendation]
}

var _ repository.RecommendationRepository = (*RecommendationRepo)(nil)

// NewRecommendationRepo creates a guarded recommendation repository.
func NewRecommendationRepo(client *Client, deps Deps) (*RecommendationRepo, error) {
	var (
		cache *fallback.Cache[[]entity.AnalystRecommendation]
		def   func() []entity.AnalystRecommendation
	)
	if deps.Fallback.Enabled {
		var err error
		cache, err = fallback.New[[]entity.AnalystRecommendation](deps.Fallback)
		if err != nil {
			return nil, err
		}
		def = func() []entity.AnalystRecommendation { return nil }
	}
	limit := client.cfg.RecommendationLimit
	if limit <= 0 {
		limit = 10
	}
	return &RecommendationRepo{
		client: client,
		limit:  limit,
		guard: guard.New(guard.Config[[]entity.AnalystRecommendation]{
			Name:     breakerName,
			Breaker:  deps.Registry.Get(breakerName),
			Retry:    deps.Retry,
			Cache:    cache,
			Default:  def,
			Observer: deps.Observer,
		}),
	}, nil
}

// GetRecommendations implements repository.RecommendationRepository.
func (r *RecommendationRepo) GetRecommendations(ctx context.Context, symbol entity.Symbol) (repository.RecommendationsResult, error) {
	res, err := r.guard.Do(ctx, "recommendations:"+symbol.String(), func(ctx context.Context) ([]entity.AnalystRecommendation, error) {
		return r.fetch(ctx, symbol)
	})
	if err != nil {
		return repository.RecommendationsResult{}, fmt.Errorf("get recommendations %s: %w", symbol, err)
	}
	return repository.RecommendationsResult{Recommendations: res.Value, Source: res.Source}, nil
}

func (r *RecommendationRepo) fetch(ctx context.Context, symbol entity.Symbol) ([]entity.AnalystRecommendation, error) {
	summary, err := r.client.FetchQuoteSummary(ctx, symbol, "upgradeDowngradeHistory")
	if err != nil {
		return nil, err
	}

	results := summary.QuoteSummary.Result
	if len(results) == 0 || results[0].UpgradeDowngradeHistory == nil {
		return nil, nil
	}

	history := results[0].UpgradeDowngradeHistory.History
	if len(history) > r.limit {
		history = history[:r.limit]
	}

	recs := make([]entity.AnalystRecommendation, 0, len(history))
	for _, h := range history {
		recs = append(recs, entity.AnalystRecommendation{
			Symbol: symbol,
			Firm:   h.Firm,
			Grade:  entity.ParseGrade(h.ToGrade),
			Date:   epochToTime(h.EpochGradeDate),
		})
	}
	return recs, nil
}
