// Command api runs the HTTP API: question answering backed by the agent
// team, per-stock market data, Prometheus metrics, and the system health
// and alert endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	hhttp "finsight/internal/handler/http"
	"finsight/internal/infra/llm"
	"finsight/internal/infra/memory"
	"finsight/internal/infra/notifier"
	"finsight/internal/infra/stockdata"
	"finsight/internal/infra/websearch"
	"finsight/internal/monitoring"
	"finsight/internal/observability/logging"
	"finsight/internal/observability/tracing"
	"finsight/internal/resilience/circuitbreaker"
	"finsight/internal/resilience/fallback"
	"finsight/internal/resilience/retry"
	"finsight/internal/usecase/agent"
	"finsight/internal/usecase/analysis"
	"finsight/pkg/config"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	shutdownTracing := tracing.Setup()
	defer shutdownTracing()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor, handler := setup(logger)

	if err := monitor.Start(ctx); err != nil {
		logger.Error("failed to start monitoring sweep", slog.Any("error", err))
		os.Exit(1)
	}
	defer monitor.Stop()

	runServer(ctx, logger, handler)
}

// setup wires the resilience stack, data sources, agents and HTTP routes.
func setup(logger *slog.Logger) (*monitoring.Monitor, http.Handler) {
	registry := circuitbreaker.NewRegistry(circuitbreaker.LoadConfig("default"))
	metrics := monitoring.NewPrometheusRequestMetrics()
	monitor := monitoring.NewMonitor(registry, metrics,
		monitoring.WithNotifier(buildNotifier(logger)),
	)

	retryCfg := retry.LoadConfig()
	fallbackCfg := fallback.LoadConfig()

	deps := stockdata.Deps{
		Registry: registry,
		Retry:    retryCfg,
		Fallback: fallbackCfg,
		Observer: monitor,
	}
	client := stockdata.NewClient(stockdata.LoadConfig())

	stocks, err := stockdata.NewStockRepo(client, deps)
	if err != nil {
		fatal(logger, "failed to build stock repository", err)
	}
	recs, err := stockdata.NewRecommendationRepo(client, deps)
	if err != nil {
		fatal(logger, "failed to build recommendation repository", err)
	}
	news, err := stockdata.NewNewsRepo(client, deps)
	if err != nil {
		fatal(logger, "failed to build news repository", err)
	}

	searcher, err := websearch.New(websearch.LoadConfig(), registry, retryCfg, fallbackCfg, monitor)
	if err != nil {
		fatal(logger, "failed to build web search client", err)
	}

	provider, err := llm.NewProvider()
	if err != nil {
		fatal(logger, "failed to build LLM provider", err)
	}
	logger.Info("LLM provider selected", slog.String("provider", provider.Name()))

	instructions, err := agent.LoadInstructions()
	if err != nil {
		fatal(logger, "failed to load agent instructions", err)
	}

	analysisSvc := analysis.NewService(stocks, recs, news)
	finance := agent.NewFinanceAgent(analysisSvc, provider, instructions.Finance)
	web := agent.NewWebSearchAgent(searcher, provider, instructions.WebSearch)
	team := agent.NewTeamAgent(finance, web, provider, instructions.Team)

	results := memory.NewQueryResultRepo(config.GetEnvInt("QUERY_HISTORY_SIZE", 256))
	agentSvc := agent.NewService(finance, web, team, results)

	router := hhttp.NewRouter(hhttp.RouterDeps{
		Agents:   agentSvc,
		Analysis: analysisSvc,
		Stocks:   stocks,
		Recs:     recs,
		News:     news,
		Monitor:  monitor,
		Logger:   logger,
		Timeout:  config.GetEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
	})

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/", router)

	return monitor, mux
}

// buildNotifier selects the alert channel: Slack when a webhook URL is
// configured, otherwise a no-op.
func buildNotifier(logger *slog.Logger) monitoring.AlertNotifier {
	cfg := notifier.LoadSlackConfig()
	if cfg.WebhookURL == "" {
		logger.Info("alert notifications disabled (SLACK_WEBHOOK_URL not set)")
		return notifier.NewNoOp()
	}
	logger.Info("alert notifications enabled", slog.String("channel", "slack"))
	return notifier.NewSlackNotifier(cfg)
}

func runServer(ctx context.Context, logger *slog.Logger, handler http.Handler) {
	addr := ":" + config.GetEnvString("PORT", "8080")

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
