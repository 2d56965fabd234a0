package stockdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finsight/internal/domain/entity"
	"finsight/internal/repository"
	"finsight/internal/resilience/circuitbreaker"
	"finsight/internal/resilience/fallback"
	"finsight/internal/resilience/guard"
	"finsight/internal/resilience/retry"
)

// breakerName is the shared circuit breaker identity for the quote API.
// All three repositories in this package guard the same upstream, so they
// share one breaker.
const breakerName = "stock-api"

// Deps carries the resilience collaborators the repositories in this
// package are built from.
type Deps struct {
	Registry *circuitbreaker.Registry
	Retry    retry.Config
	Fallback fallback.Config
	Observer guard.Observer
}

// StockRepo implements repository.StockRepository against the quote API.
type StockRepo struct {
	client *Client
	guard  *guard.Guard[*entity.Stock]
}

var _ repository.StockRepository = (*StockRepo)(nil)

// NewStockRepo creates a guarded stock repository.
func NewStockRepo(client *Client, deps Deps) (*StockRepo, error) {
	var (
		cache *fallback.Cache[*entity.Stock]
		def   func() *entity.Stock
	)
	if deps.Fallback.Enabled {
		var err error
		cache, err = fallback.New[*entity.Stock](deps.Fallback)
		if err != nil {
			return nil, err
		}
		def = func() *entity.Stock { return nil }
	}
	return &StockRepo{
		client: client,
		guard: guard.New(guard.Config[*entity.Stock]{
			Name:     breakerName,
			Breaker:  deps.Registry.Get(breakerName),
			Retry:    deps.Retry,
			Cache:    cache,
			Default:  def,
			Observer: deps.Observer,
		}),
	}, nil
}

// GetStock implements repository.StockRepository. When the upstream fails
// and fallback is enabled, a cached or placeholder stock is returned with
// Source marking the degradation; with fallback disabled the failure is
// returned as-is. An unknown symbol is reported as entity.ErrNotFound.
func (r *StockRepo) GetStock(ctx context.Context, symbol entity.Symbol) (repository.StockResult, error) {
	res, err := r.guard.Do(ctx, "stock:"+symbol.String(), func(ctx context.Context) (*entity.Stock, error) {
		return r.fetchStock(ctx, symbol)
	})
	if err != nil {
		return repository.StockResult{}, fmt.Errorf("get stock %s: %w", symbol, err)
	}
	if res.Degraded() && errors.Is(res.Cause, entity.ErrNotFound) {
		return repository.StockResult{}, res.Cause
	}

	stock := res.Value
	if stock == nil {
		stock = placeholderStock(symbol)
	}
	return repository.StockResult{Stock: stock, Source: res.Source}, nil
}

// fetchStock combines the quote and profile endpoints into one entity.
// The two requests run concurrently; either failure fails the attempt.
func (r *StockRepo) fetchStock(ctx context.Context, symbol entity.Symbol) (*entity.Stock, error) {
	var (
		quote   *quoteResult
		summary *quoteSummaryResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quote, err = r.client.FetchQuote(gctx, symbol)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = r.client.FetchQuoteSummary(gctx, symbol, "summaryProfile")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stock := &entity.Stock{
		Symbol:      symbol,
		Name:        quote.LongName,
		LastUpdated: time.Now().UTC(),
	}
	if stock.Name == "" {
		stock.Name = quote.ShortName
	}

	currency := quote.Currency
	if currency == "" {
		currency = "USD"
	}
	if quote.RegularMarketPrice != nil {
		stock.CurrentPrice = &entity.Price{Value: *quote.RegularMarketPrice, Currency: currency}
	}
	if quote.MarketCap != nil {
		stock.MarketCap = &entity.MarketCap{Value: *quote.MarketCap, Currency: currency}
	}
	stock.PERatio = quote.TrailingPE
	stock.DividendYield = quote.DividendYield

	if results := summary.QuoteSummary.Result; len(results) > 0 && results[0].SummaryProfile != nil {
		stock.Sector = results[0].SummaryProfile.Sector
		stock.Industry = results[0].SummaryProfile.Industry
	}
	return stock, nil
}

// placeholderStock is the explicitly-empty default served when neither a
// live call nor the fallback cache can provide data.
func placeholderStock(symbol entity.Symbol) *entity.Stock {
	return &entity.Stock{
		Symbol: symbol,
		Name:   "Data temporarily unavailable",
	}
}
