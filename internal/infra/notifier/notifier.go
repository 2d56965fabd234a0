// Package notifier delivers monitoring alerts to external channels.
// The Slack implementation posts Block Kit messages via an incoming
// webhook; the no-op implementation is used when no webhook is configured.
package notifier

import (
	"context"

	"finsight/internal/monitoring"
)

// NoOp is an AlertNotifier that discards alerts. Used when no delivery
// channel is configured.
type NoOp struct{}

// NewNoOp creates a no-op notifier.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Notify implements monitoring.AlertNotifier.
func (n *NoOp) Notify(_ context.Context, _ monitoring.Alert) error {
	return nil
}
