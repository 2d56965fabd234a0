package stockdata

import (
	"context"
	"fmt"
	"strconv"

	"finsight/internal/domain/entity"
	"finsight/internal/repository"
	"finsight/internal/resilience/fallback"
	"finsight/internal/resilience/guard"
)

// NewsRepo implements repository.NewsRepository against the quote API's
// search endpoint.
type NewsRepo struct {
	client *Client
	guard  *guard.Guard[[]entity.CompanyNews]
}

var _ repository.NewsRepository = (*NewsRepo)(nil)

// NewNewsRepo creates a guarded news repository.
func NewNewsRepo(client *Client, deps Deps) (*NewsRepo, error) {
	var (
		cache *fallback.Cache[[]entity.CompanyNews]
		def   func() []entity.CompanyNews
	)
	if deps.Fallback.Enabled {
		var err error
		cache, err = fallback.New[[]entity.CompanyNews](deps.Fallback)
		if err != nil {
			return nil, err
		}
		def = func() []entity.CompanyNews { return nil }
	}
	return &NewsRepo{
		client: client,
		guard: guard.New(guard.Config[[]entity.CompanyNews]{
			Name:     breakerName,
			Breaker:  deps.Registry.Get(breakerName),
			Retry:    deps.Retry,
			Cache:    cache,
			Default:  def,
			Observer: deps.Observer,
		}),
	}, nil
}

// GetNews implements repository.NewsRepository.
func (r *NewsRepo) GetNews(ctx context.Context, symbol entity.Symbol, limit int) (repository.NewsResult, error) {
	if limit <= 0 {
		limit = r.client.cfg.NewsLimit
	}

	key := "news:" + symbol.String() + ":" + strconv.Itoa(limit)
	res, err := r.guard.Do(ctx, key, func(ctx context.Context) ([]entity.CompanyNews, error) {
		return r.fetch(ctx, symbol, limit)
	})
	if err != nil {
		return repository.NewsResult{}, fmt.Errorf("get news %s: %w", symbol, err)
	}
	return repository.NewsResult{Items: res.Value, Source: res.Source}, nil
}

func (r *NewsRepo) fetch(ctx context.Context, symbol entity.Symbol, limit int) ([]entity.CompanyNews, error) {
	items, err := r.client.FetchNews(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}

	news := make([]entity.CompanyNews, 0, len(items))
	for _, item := range items {
		news = append(news, entity.CompanyNews{
			Symbol:      symbol,
			Title:       item.Title,
			Summary:     item.Summary,
			Source:      item.Publisher,
			URL:         item.Link,
			PublishedAt: epochToTime(item.ProviderPublishTime),
		})
	}
	return news, nil
}
