package stockdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"finsight/internal/domain/entity"
	"finsight/internal/resilience/circuitbreaker"
	"finsight/internal/resilience/fallback"
	"finsight/internal/resilience/guard"
	"finsight/internal/resilience/retry"
)

const (
	quoteBody = `{"quoteResponse":{"result":[{
		"symbol":"NVDA","longName":"NVIDIA Corporation","currency":"USD",
		"regularMarketPrice":875.50,"marketCap":2150000000000,
		"trailingPE":65.2,"dividendYield":0.02}]}}`
	profileBody = `{"quoteSummary":{"result":[{
		"summaryProfile":{"sector":"Technology","industry":"Semiconductors"}}]}}`
	historyBody = `{"quoteSummary":{"result":[{
		"upgradeDowngradeHistory":{"history":[
			{"firm":"Morgan Stanley","toGrade":"Overweight","epochGradeDate":1736899200},
			{"firm":"Goldman Sachs","toGrade":"Sell","epochGradeDate":1736812800}
		]}}]}}`
	newsBody = `{"news":[
		{"title":"NVIDIA announces new datacenter GPU","publisher":"Reuters",
		 "link":"https://example.com/a","providerPublishTime":1736899200,
		 "summary":"Record revenue expected."},
		{"title":"Chip demand surges","publisher":"Bloomberg",
		 "link":"https://example.com/b","providerPublishTime":1736812800}
	]}`
)

// newUpstream serves canned quote API responses; failing switches all
// endpoints to HTTP 503.
func newUpstream(t *testing.T, failing *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing != nil && failing.Load() {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/v7/finance/quote"):
			if strings.Contains(r.URL.RawQuery, "UNKNOWN") {
				fmt.Fprint(w, `{"quoteResponse":{"result":[]}}`)
				return
			}
			fmt.Fprint(w, quoteBody)
		case strings.HasPrefix(r.URL.Path, "/v10/finance/quoteSummary/"):
			if strings.Contains(r.URL.RawQuery, "upgradeDowngradeHistory") {
				fmt.Fprint(w, historyBody)
				return
			}
			fmt.Fprint(w, profileBody)
		case strings.HasPrefix(r.URL.Path, "/v1/finance/search"):
			fmt.Fprint(w, newsBody)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testDeps() Deps {
	return Deps{
		Registry: circuitbreaker.NewRegistry(circuitbreaker.Config{
			FailureThreshold: 3,
			RecoveryTimeout:  30 * time.Second,
			SuccessThreshold: 3,
		}),
		Retry: retry.Config{
			MaxAttempts:   2,
			InitialDelay:  time.Millisecond,
			BackoffFactor: 2.0,
			MaxDelay:      5 * time.Millisecond,
		},
		Fallback: fallback.Config{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 16,
		},
	}
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		BaseURL:             srv.URL,
		Timeout:             2 * time.Second,
		NewsLimit:           5,
		RecommendationLimit: 10,
	})
}

func TestStockRepo_GetStock(t *testing.T) {
	srv := newUpstream(t, nil)
	repo, err := NewStockRepo(newTestClient(srv), testDeps())
	if err != nil {
		t.Fatalf("NewStockRepo: %v", err)
	}

	res, err := repo.GetStock(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if res.Source != guard.SourceFresh {
		t.Errorf("source = %v, want fresh", res.Source)
	}

	s := res.Stock
	if s.Name != "NVIDIA Corporation" {
		t.Errorf("name = %q", s.Name)
	}
	if s.Sector != "Technology" || s.Industry != "Semiconductors" {
		t.Errorf("profile = %q/%q", s.Sector, s.Industry)
	}
	if s.CurrentPrice == nil || s.CurrentPrice.Value != 875.50 {
		t.Errorf("price = %+v", s.CurrentPrice)
	}
	if s.MarketCap == nil || s.MarketCap.Formatted() != "$2.2T" {
		t.Errorf("market cap = %+v", s.MarketCap)
	}
}

func TestStockRepo_UnknownSymbol(t *testing.T) {
	srv := newUpstream(t, nil)
	repo, err := NewStockRepo(newTestClient(srv), testDeps())
	if err != nil {
		t.Fatalf("NewStockRepo: %v", err)
	}

	_, err = repo.GetStock(context.Background(), "UNKNOWN")
	if !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStockRepo_ServesStaleCacheWhenUpstreamFails(t *testing.T) {
	var failing atomic.Bool
	srv := newUpstream(t, &failing)
	repo, err := NewStockRepo(newTestClient(srv), testDeps())
	if err != nil {
		t.Fatalf("NewStockRepo: %v", err)
	}
	ctx := context.Background()

	if _, err := repo.GetStock(ctx, "NVDA"); err != nil {
		t.Fatalf("seed call: %v", err)
	}

	failing.Store(true)
	res, err := repo.GetStock(ctx, "NVDA")
	if err != nil {
		t.Fatalf("degraded call should not error: %v", err)
	}
	if res.Source != guard.SourceStaleCache {
		t.Errorf("source = %v, want stale-cache", res.Source)
	}
	if res.Stock.Name != "NVIDIA Corporation" {
		t.Errorf("stale value = %q", res.Stock.Name)
	}
}

func TestStockRepo_PlaceholderWhenNoCache(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	srv := newUpstream(t, &failing)
	repo, err := NewStockRepo(newTestClient(srv), testDeps())
	if err != nil {
		t.Fatalf("NewStockRepo: %v", err)
	}

	res, err := repo.GetStock(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("degraded call should not error: %v", err)
	}
	if res.Source != guard.SourceDefault {
		t.Errorf("source = %v, want default", res.Source)
	}
	if res.Stock.Symbol != "NVDA" {
		t.Errorf("placeholder should carry the symbol, got %q", res.Stock.Symbol)
	}
}

func TestStockRepo_DisabledFallbackSurfacesFailure(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	srv := newUpstream(t, &failing)
	deps := testDeps()
	deps.Fallback = fallback.Config{Enabled: false}

	repo, err := NewStockRepo(newTestClient(srv), deps)
	if err != nil {
		t.Fatalf("NewStockRepo: %v", err)
	}

	res, err := repo.GetStock(context.Background(), "NVDA")
	if err == nil {
		t.Fatalf("disabled fallback must surface the failure, got %+v", res)
	}
	var httpErr *retry.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("err = %v, want the upstream 503", err)
	}
}

func TestNewsRepo_DisabledFallbackSurfacesFailure(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	srv := newUpstream(t, &failing)
	deps := testDeps()
	deps.Fallback = fallback.Config{Enabled: false}

	repo, err := NewNewsRepo(newTestClient(srv), deps)
	if err != nil {
		t.Fatalf("NewNewsRepo: %v", err)
	}

	if _, err := repo.GetNews(context.Background(), "NVDA", 5); err == nil {
		t.Fatal("disabled fallback must surface the failure")
	}

	recs, err := NewRecommendationRepo(newTestClient(srv), deps)
	if err != nil {
		t.Fatalf("NewRecommendationRepo: %v", err)
	}
	if _, err := recs.GetRecommendations(context.Background(), "NVDA"); err == nil {
		t.Fatal("disabled fallback must surface the failure")
	}
}

func TestStockRepo_RetriesTransientError(t *testing.T) {
	var quoteCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/v7/finance/quote") {
			if quoteCalls.Add(1) == 1 {
				http.Error(w, "flaky", http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, quoteBody)
			return
		}
		fmt.Fprint(w, profileBody)
	}))
	t.Cleanup(srv.Close)

	repo, err := NewStockRepo(newTestClient(srv), testDeps())
	if err != nil {
		t.Fatalf("NewStockRepo: %v", err)
	}

	res, err := repo.GetStock(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if res.Source != guard.SourceFresh {
		t.Errorf("source = %v, want fresh after retry", res.Source)
	}
}

func TestRecommendationRepo_GetRecommendations(t *testing.T) {
	srv := newUpstream(t, nil)
	repo, err := NewRecommendationRepo(newTestClient(srv), testDeps())
	if err != nil {
		t.Fatalf("NewRecommendationRepo: %v", err)
	}

	res, err := repo.GetRecommendations(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if len(res.Recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(res.Recommendations))
	}

	first := res.Recommendations[0]
	if first.Firm != "Morgan Stanley" || first.Grade != entity.GradeBuy {
		t.Errorf("first = %+v, want Morgan Stanley / Buy", first)
	}
	second := res.Recommendations[1]
	if second.Grade != entity.GradeSell {
		t.Errorf("second grade = %v, want Sell", second.Grade)
	}
}

func TestNewsRepo_GetNews(t *testing.T) {
	srv := newUpstream(t, nil)
	repo, err := NewNewsRepo(newTestClient(srv), testDeps())
	if err != nil {
		t.Fatalf("NewNewsRepo: %v", err)
	}

	res, err := repo.GetNews(context.Background(), "NVDA", 5)
	if err != nil {
		t.Fatalf("GetNews: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(res.Items))
	}
	if res.Items[0].Title != "NVIDIA announces new datacenter GPU" {
		t.Errorf("title = %q", res.Items[0].Title)
	}
	if res.Items[0].Source != "Reuters" {
		t.Errorf("source = %q", res.Items[0].Source)
	}
	if res.Items[0].PublishedAt.IsZero() {
		t.Error("published time should be set")
	}
}

func TestRepos_ShareOneBreaker(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	srv := newUpstream(t, &failing)
	deps := testDeps()
	client := newTestClient(srv)

	stocks, err := NewStockRepo(client, deps)
	if err != nil {
		t.Fatalf("NewStockRepo: %v", err)
	}
	news, err := NewNewsRepo(client, deps)
	if err != nil {
		t.Fatalf("NewNewsRepo: %v", err)
	}
	ctx := context.Background()

	// Failures across both repos accumulate on the shared breaker.
	stocks.GetStock(ctx, "NVDA")
	news.GetNews(ctx, "NVDA", 5)
	stocks.GetStock(ctx, "NVDA")

	cb := deps.Registry.Get("stock-api")
	if cb.State() != circuitbreaker.StateOpen {
		t.Errorf("breaker state = %v, want open after 3 shared failures", cb.State())
	}
}
