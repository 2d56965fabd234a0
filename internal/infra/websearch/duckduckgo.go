// Package websearch implements web search against the DuckDuckGo HTML
// endpoint, wrapped in the resilience stack. Requests are rate limited to
// stay polite toward the upstream.
package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"finsight/internal/resilience/circuitbreaker"
	"finsight/internal/resilience/fallback"
	"finsight/internal/resilience/guard"
	"finsight/internal/resilience/retry"
	"finsight/pkg/config"
)

// breakerName is the circuit breaker identity for the search upstream.
const breakerName = "web-search"

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Results carries search hits with their provenance.
type Results struct {
	Items  []Result
	Source guard.Source
}

// Config holds settings for the search client.
type Config struct {
	// BaseURL is the root of the HTML search endpoint.
	BaseURL string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// MaxResults caps hits returned per search.
	MaxResults int

	// RatePerSecond throttles outgoing searches.
	RatePerSecond float64
}

// LoadConfig reads search settings from environment variables:
//   - SEARCH_BASE_URL: HTML search endpoint root
//   - SEARCH_TIMEOUT: per-request timeout
//   - SEARCH_MAX_RESULTS: hits per search
//   - SEARCH_RATE_LIMIT: requests per second toward the upstream
func LoadConfig() Config {
	return Config{
		BaseURL:       config.GetEnvString("SEARCH_BASE_URL", "https://html.duckduckgo.com"),
		Timeout:       config.GetEnvDuration("SEARCH_TIMEOUT", 10*time.Second),
		MaxResults:    config.GetEnvInt("SEARCH_MAX_RESULTS", 5),
		RatePerSecond: config.GetEnvFloat("SEARCH_RATE_LIMIT", 1.0),
	}
}

// DuckDuckGo is a guarded search client.
type DuckDuckGo struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	guard      *guard.Guard[[]Result]
}

// New creates a guarded DuckDuckGo search client.
func New(cfg Config, registry *circuitbreaker.Registry, retryCfg retry.Config, fbCfg fallback.Config, observer guard.Observer) (*DuckDuckGo, error) {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1.0
	}

	var (
		cache *fallback.Cache[[]Result]
		def   func() []Result
	)
	if fbCfg.Enabled {
		var err error
		cache, err = fallback.New[[]Result](fbCfg)
		if err != nil {
			return nil, err
		}
		def = func() []Result { return nil }
	}

	d := &DuckDuckGo{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
	}
	d.guard = guard.New(guard.Config[[]Result]{
		Name:     breakerName,
		Breaker:  registry.Get(breakerName),
		Retry:    retryCfg,
		Cache:    cache,
		Default:  def,
		Observer: observer,
	})
	return d, nil
}

// Search runs a query under the resilience stack. On upstream failure a
// cached result set within its TTL is served, otherwise an empty degraded
// result; with fallback disabled the failure propagates to the caller.
func (d *DuckDuckGo) Search(ctx context.Context, query string) (Results, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Results{}, fmt.Errorf("search query must not be empty")
	}

	res, err := d.guard.Do(ctx, "search:"+strings.ToLower(query), func(ctx context.Context) ([]Result, error) {
		return d.fetch(ctx, query)
	})
	if err != nil {
		return Results{}, fmt.Errorf("search %q: %w", query, err)
	}
	return Results{Items: res.Value, Source: res.Source}, nil
}

func (d *DuckDuckGo) fetch(ctx context.Context, query string) ([]Result, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("%s/html/?q=%s", d.cfg.BaseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "finsight/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	return d.parse(resp.Body)
}

// parse extracts results from the HTML result page.
func (d *DuckDuckGo) parse(body io.Reader) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}
		results = append(results, Result{
			Title:   title,
			URL:     resolveRedirect(href),
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		})
		return len(results) < d.cfg.MaxResults
	})
	return results, nil
}

// resolveRedirect unwraps the uddg redirect parameter the HTML endpoint
// wraps result links in. Unparseable links are returned as-is.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
