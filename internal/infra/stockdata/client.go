// Package stockdata implements the stock, recommendation and news
// repositories against a Yahoo-Finance-shaped quote API, wrapped in the
// full resilience stack (circuit breaker, retry, fallback cache).
package stockdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"finsight/internal/domain/entity"
	"finsight/internal/resilience/retry"
)

// maxErrorBodyBytes limits how much of an error response is kept for the
// error message.
const maxErrorBodyBytes = 512

// Client is a thin HTTP client for the quote API. Resilience is layered
// on top by the repositories, not here.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a quote API client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// quoteResponse mirrors the v7 quote endpoint payload.
type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol             string   `json:"symbol"`
	LongName           string   `json:"longName"`
	ShortName          string   `json:"shortName"`
	Currency           string   `json:"currency"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	MarketCap          *float64 `json:"marketCap"`
	TrailingPE         *float64 `json:"trailingPE"`
	DividendYield      *float64 `json:"dividendYield"`
}

// quoteSummaryResponse mirrors the v10 quoteSummary endpoint payload for
// the modules this client requests.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryProfile *struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"summaryProfile"`
			UpgradeDowngradeHistory *struct {
				History []gradeHistoryEntry `json:"history"`
			} `json:"upgradeDowngradeHistory"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

type gradeHistoryEntry struct {
	Firm           string `json:"firm"`
	ToGrade        string `json:"toGrade"`
	EpochGradeDate int64  `json:"epochGradeDate"`
}

// searchResponse mirrors the v1 search endpoint payload; only the news
// section is used.
type searchResponse struct {
	News []newsItem `json:"news"`
}

type newsItem struct {
	Title               string `json:"title"`
	Publisher           string `json:"publisher"`
	Link                string `json:"link"`
	Summary             string `json:"summary"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
}

// FetchQuote returns the current quote for one symbol.
// entity.ErrNotFound is returned when the API has no data for the symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol entity.Symbol) (*quoteResult, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.cfg.BaseURL, url.QueryEscape(symbol.String()))

	var resp quoteResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("quote for %s: %w", symbol, entity.ErrNotFound)
	}
	return &resp.QuoteResponse.Result[0], nil
}

// FetchQuoteSummary returns profile and rating history modules for one symbol.
func (c *Client) FetchQuoteSummary(ctx context.Context, symbol entity.Symbol, modules string) (*quoteSummaryResponse, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		c.cfg.BaseURL, url.PathEscape(symbol.String()), url.QueryEscape(modules))

	var resp quoteSummaryResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetch summary for %s: %w", symbol, err)
	}
	return &resp, nil
}

// FetchNews returns up to limit recent news items for one symbol.
func (c *Client) FetchNews(ctx context.Context, symbol entity.Symbol, limit int) ([]newsItem, error) {
	if limit <= 0 {
		limit = c.cfg.NewsLimit
	}
	endpoint := fmt.Sprintf("%s/v1/finance/search?q=%s&newsCount=%s&quotesCount=0",
		c.cfg.BaseURL, url.QueryEscape(symbol.String()), strconv.Itoa(limit))

	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetch news for %s: %w", symbol, err)
	}
	if len(resp.News) > limit {
		resp.News = resp.News[:limit]
	}
	return resp.News, nil
}

// getJSON performs a GET request and decodes the JSON response.
// Non-2xx responses become *retry.HTTPError so the retry layer can
// classify them.
func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "finsight/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func epochToTime(epoch int64) time.Time {
	if epoch == 0 {
		return time.Time{}
	}
	return time.Unix(epoch, 0).UTC()
}
