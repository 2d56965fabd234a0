package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"finsight/internal/domain/entity"
	"finsight/internal/handler/http/respond"
	"finsight/internal/repository"
	"finsight/internal/usecase/analysis"
)

// StockDTO is the JSON shape of a stock quote with profile data.
type StockDTO struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Sector        string   `json:"sector,omitempty"`
	Industry      string   `json:"industry,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"`
	PERatio       *float64 `json:"pe_ratio,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
	LastUpdated   string   `json:"last_updated,omitempty"`
}

func toStockDTO(s *entity.Stock) StockDTO {
	dto := StockDTO{
		Symbol:        s.Symbol.String(),
		Name:          s.Name,
		Sector:        s.Sector,
		Industry:      s.Industry,
		PERatio:       s.PERatio,
		DividendYield: s.DividendYield,
	}
	if s.CurrentPrice != nil {
		dto.Price = &s.CurrentPrice.Value
		dto.Currency = s.CurrentPrice.Currency
	}
	if s.MarketCap != nil {
		dto.MarketCap = &s.MarketCap.Value
	}
	if !s.LastUpdated.IsZero() {
		dto.LastUpdated = s.LastUpdated.UTC().Format(time.RFC3339)
	}
	return dto
}

// ConsensusDTO is the JSON shape of an analyst consensus.
type ConsensusDTO struct {
	Grade          string   `json:"grade"`
	BuyRatio       float64  `json:"buy_ratio"`
	SellRatio      float64  `json:"sell_ratio"`
	Total          int      `json:"total"`
	AvgPriceTarget *float64 `json:"avg_price_target,omitempty"`
	Summary        string   `json:"summary"`
}

func toConsensusDTO(c analysis.Consensus) ConsensusDTO {
	return ConsensusDTO{
		Grade:          c.Grade.String(),
		BuyRatio:       c.BuyRatio,
		SellRatio:      c.SellRatio,
		Total:          c.Total,
		AvgPriceTarget: c.AvgPriceTarget,
		Summary:        c.Summary(),
	}
}

// NewsItemDTO is the JSON shape of one news item.
type NewsItemDTO struct {
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	Source      string `json:"source,omitempty"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	Sentiment   string `json:"sentiment,omitempty"`
}

func toNewsDTOs(items []entity.CompanyNews) []NewsItemDTO {
	out := make([]NewsItemDTO, 0, len(items))
	for i := range items {
		dto := NewsItemDTO{
			Title:     items[i].Title,
			Summary:   items[i].Summary,
			Source:    items[i].Source,
			URL:       items[i].URL,
			Sentiment: items[i].Sentiment,
		}
		if !items[i].PublishedAt.IsZero() {
			dto.PublishedAt = items[i].PublishedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, dto)
	}
	return out
}

func pathSymbol(r *http.Request) (entity.Symbol, error) {
	return entity.NewSymbol(r.PathValue("symbol"))
}

// OverviewService builds the combined market data view of one stock.
type OverviewService interface {
	Overview(ctx context.Context, symbol entity.Symbol) (*analysis.StockOverview, error)
}

// OverviewHandler serves the combined quote, consensus and news view of
// one stock, with per-section provenance.
type OverviewHandler struct{ Svc OverviewService }

func (h OverviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	symbol, err := pathSymbol(r)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	overview, err := h.Svc.Overview(r.Context(), symbol)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"stock":        toStockDTO(overview.Stock),
		"stock_source": overview.StockSource.String(),
		"consensus":    toConsensusDTO(overview.Consensus),
		"recs_source":  overview.RecsSource.String(),
		"news":         toNewsDTOs(overview.News),
		"news_source":  overview.NewsSource.String(),
		"degraded":     overview.Degraded(),
	})
}

// StockHandler serves the quote and profile of one stock.
type StockHandler struct{ Repo repository.StockRepository }

func (h StockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	symbol, err := pathSymbol(r)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	res, err := h.Repo.GetStock(r.Context(), symbol)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"stock":  toStockDTO(res.Stock),
		"source": res.Source.String(),
	})
}

// RecommendationsHandler serves the analyst consensus for one stock.
type RecommendationsHandler struct{ Repo repository.RecommendationRepository }

func (h RecommendationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	symbol, err := pathSymbol(r)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	res, err := h.Repo.GetRecommendations(r.Context(), symbol)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"consensus": toConsensusDTO(analysis.BuildConsensus(symbol, res.Recommendations)),
		"source":    res.Source.String(),
	})
}

// NewsHandler serves recent company news for one stock.
type NewsHandler struct {
	Repo         repository.NewsRepository
	DefaultLimit int
}

func (h NewsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	symbol, err := pathSymbol(r)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	limit := h.DefaultLimit
	if limit <= 0 {
		limit = 5
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			respond.DomainError(w, &entity.ValidationError{Field: "limit", Message: "must be an integer between 1 and 50"})
			return
		}
		limit = parsed
	}

	res, err := h.Repo.GetNews(r.Context(), symbol, limit)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"news":   toNewsDTOs(analysis.AnnotateSentiment(res.Items)),
		"source": res.Source.String(),
	})
}
