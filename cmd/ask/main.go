// Command ask answers one financial question from the command line.
// Usage: finsight-ask "question" [--timeout 60s] [--output json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"finsight/internal/domain/entity"
	"finsight/internal/infra/llm"
	"finsight/internal/infra/memory"
	"finsight/internal/infra/stockdata"
	"finsight/internal/infra/websearch"
	"finsight/internal/monitoring"
	"finsight/internal/resilience/circuitbreaker"
	"finsight/internal/resilience/fallback"
	"finsight/internal/resilience/retry"
	"finsight/internal/usecase/agent"
	"finsight/internal/usecase/analysis"
)

// AskOutput is the JSON output shape.
type AskOutput struct {
	Question         string   `json:"question"`
	Answer           string   `json:"answer"`
	Agent            string   `json:"agent"`
	Sources          []string `json:"sources,omitempty"`
	Degraded         bool     `json:"degraded"`
	ProcessingTimeMS int64    `json:"processing_time_ms"`
}

func main() {
	var (
		timeout      time.Duration
		outputFormat string
	)
	flag.DurationVar(&timeout, "timeout", 60*time.Second, "Overall deadline for answering")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: Question is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: finsight-ask \"question\" [--timeout 60s] [--output json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  finsight-ask \"What is the current price of NVDA?\"")
		fmt.Fprintln(os.Stderr, "  finsight-ask \"Compare NVDA and AMD\" --output json")
		os.Exit(1)
	}
	question := args[0]

	logger := initLogger()

	svc, err := buildService()
	if err != nil {
		logger.Error("failed to build agent service", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := svc.Ask(ctx, question)
	if err != nil {
		logger.Error("ask failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: Ask failed: %v\n", err)
		os.Exit(1)
	}

	if outputFormat == "json" {
		outputJSON(result)
	} else {
		outputText(result)
	}
}

// buildService wires the full agent stack with a no-op monitor sweep; the
// CLI lives for one question so the periodic sweep is not started.
func buildService() (*agent.Service, error) {
	registry := circuitbreaker.NewRegistry(circuitbreaker.LoadConfig("default"))
	monitor := monitoring.NewMonitor(registry, nil)

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
		return nil, err
	}
	recs, err := stockdata.NewRecommendationRepo(client, deps)
	if err != nil {
		return nil, err
	}
	news, err := stockdata.NewNewsRepo(client, deps)
	if err != nil {
		return nil, err
	}

	searcher, err := websearch.New(websearch.LoadConfig(), registry, retryCfg, fallbackCfg, monitor)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider()
	if err != nil {
		return nil, err
	}

	instructions, err := agent.LoadInstructions()
	if err != nil {
		return nil, err
	}

	analysisSvc := analysis.NewService(stocks, recs, news)
	finance := agent.NewFinanceAgent(analysisSvc, provider, instructions.Finance)
	web := agent.NewWebSearchAgent(searcher, provider, instructions.WebSearch)
	team := agent.NewTeamAgent(finance, web, provider, instructions.Team)

	return agent.NewService(finance, web, team, memory.NewQueryResultRepo(16)), nil
}

// outputText prints the answer in human-readable form.
func outputText(result *entity.QueryResult) {
	fmt.Printf("Question: %s\n\n", result.Query.Content)
	fmt.Printf("Answer (agent: %s):\n%s\n", result.Agent, result.Answer)
	if result.Degraded {
		fmt.Printf("\nNote: parts of this answer came from cached or fallback data.\n")
	}
	if len(result.Sources) > 0 {
		fmt.Printf("\nSources:\n")
		for i, source := range result.Sources {
			fmt.Printf("%d. %s\n", i+1, source)
		}
	}
}

// outputJSON prints the answer as indented JSON.
func outputJSON(result *entity.QueryResult) {
	output := AskOutput{
		Question:         result.Query.Content,
		Answer:           result.Answer,
		Agent:            result.Agent,
		Sources:          result.Sources,
		Degraded:         result.Degraded,
		ProcessingTimeMS: result.ProcessingTime.Milliseconds(),
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
		os.Exit(1)
	}
}

// initLogger initializes a structured logger on stderr so stdout stays
// clean for the answer itself.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}
