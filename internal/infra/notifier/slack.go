package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"finsight/internal/monitoring"
	"finsight/internal/resilience/retry"
	"finsight/pkg/config"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	// WebhookURL is the Slack incoming webhook URL. Empty disables the
	// notifier.
	WebhookURL string

	// Timeout is the HTTP request timeout for webhook calls.
	Timeout time.Duration
}

// LoadSlackConfig reads webhook settings from environment variables:
//   - SLACK_WEBHOOK_URL: incoming webhook URL (empty disables Slack)
//   - SLACK_TIMEOUT: per-request timeout
func LoadSlackConfig() SlackConfig {
	return SlackConfig{
		WebhookURL: config.GetEnvString("SLACK_WEBHOOK_URL", ""),
		Timeout:    config.GetEnvDuration("SLACK_TIMEOUT", 10*time.Second),
	}
}

// SlackNotifier delivers monitoring alerts to Slack via incoming webhook.
// Webhook calls are rate limited to 1 message per second (Slack's webhook
// limit) and retried on throttling and server errors.
type SlackNotifier struct {
	cfg         SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	retry       retry.Config
}

var _ monitoring.AlertNotifier = (*SlackNotifier)(nil)

// NewSlackNotifier creates a Slack notifier with the given configuration.
func NewSlackNotifier(cfg SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(1.0, 1),
		retry: retry.Config{
			MaxAttempts:   2,
			InitialDelay:  5 * time.Second,
			BackoffFactor: 2.0,
			MaxDelay:      10 * time.Second,
			JitterRatio:   0.25,
		},
	}
}

// slackWebhookPayload is the Block Kit payload posted to the webhook.
type slackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string            `json:"type"`
	Text     *slackTextObject  `json:"text,omitempty"`
	Elements []slackTextObject `json:"elements,omitempty"`
}

type slackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// buildPayload renders an alert as a section block with a context line.
func buildPayload(alert monitoring.Alert) slackWebhookPayload {
	icon := ":warning:"
	if alert.Severity == monitoring.SeverityCritical {
		icon = ":rotating_light:"
	}

	sectionText := fmt.Sprintf("%s *%s*\n%s", icon, alert.Component, alert.Message)
	contextText := fmt.Sprintf("severity: %s • fired: %s",
		alert.Severity, alert.FiredAt.Format(time.RFC3339))

	return slackWebhookPayload{
		Text: fmt.Sprintf("[%s] %s: %s", alert.Severity, alert.Component, alert.Message),
		Blocks: []slackBlock{
			{
				Type: "section",
				Text: &slackTextObject{Type: "mrkdwn", Text: sectionText},
			},
			{
				Type: "context",
				Elements: []slackTextObject{
					{Type: "mrkdwn", Text: contextText},
				},
			},
		},
	}
}

// Notify implements monitoring.AlertNotifier.
func (s *SlackNotifier) Notify(ctx context.Context, alert monitoring.Alert) error {
	requestID := uuid.New().String()

	slog.Info("Sending Slack alert",
		"request_id", requestID,
		"component", alert.Component,
		"severity", alert.Severity,
	)

	if err := s.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	err := retry.WithBackoff(ctx, s.retry, func() error {
		return s.post(ctx, alert)
	})
	if err != nil {
		slog.Error("Slack alert delivery failed",
			"request_id", requestID,
			"component", alert.Component,
			"error", err,
		)
		return fmt.Errorf("deliver slack alert: %w", err)
	}

	slog.Info("Slack alert delivered", "request_id", requestID)
	return nil
}

// post performs one webhook request. Non-2xx responses are reported as
// *retry.HTTPError so throttling (429) and server errors are retried
// while client errors fail immediately.
func (s *SlackNotifier) post(ctx context.Context, alert monitoring.Alert) error {
	jsonData, err := json.Marshal(buildPayload(alert))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
}
