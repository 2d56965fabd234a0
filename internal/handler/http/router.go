package http

import (
	"log/slog"
	"net/http"
	"time"

	"finsight/internal/handler/http/requestid"
	"finsight/internal/monitoring"
	"finsight/internal/observability/tracing"
	"finsight/internal/repository"
)

// maxRequestBodyBytes caps request bodies; questions are small.
const maxRequestBodyBytes = 64 * 1024

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	Agents   AskService
	Analysis OverviewService
	Stocks   repository.StockRepository
	Recs     repository.RecommendationRepository
	News     repository.NewsRepository
	Monitor  *monitoring.Monitor
	Logger   *slog.Logger
	Timeout  time.Duration
}

// NewRouter builds the HTTP handler: all routes wired with the standard
// middleware chain (request ID, tracing, logging, panic recovery, body
// limit, per-request timeout).
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /ask", AskHandler{Svc: deps.Agents})
	mux.Handle("GET /queries/recent", RecentHandler{Svc: deps.Agents})
	mux.Handle("GET /queries/stats", StatsHandler{Svc: deps.Agents})

	mux.Handle("GET /stocks/{symbol}", StockHandler{Repo: deps.Stocks})
	mux.Handle("GET /stocks/{symbol}/overview", OverviewHandler{Svc: deps.Analysis})
	mux.Handle("GET /stocks/{symbol}/recommendations", RecommendationsHandler{Repo: deps.Recs})
	mux.Handle("GET /stocks/{symbol}/news", NewsHandler{Repo: deps.News})

	mux.Handle("GET /healthz", LiveHandler{})
	mux.Handle("GET /health/system", SystemHealthHandler{Monitor: deps.Monitor})
	mux.Handle("GET /alerts", AlertsHandler{Monitor: deps.Monitor})

	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return Chain(mux,
		requestid.Middleware,
		tracing.Middleware,
		Logging(deps.Logger),
		Recover(deps.Logger),
		LimitRequestBody(maxRequestBodyBytes),
		Timeout(timeout),
	)
}
