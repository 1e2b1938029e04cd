package cron

import (
	"context"
	"fmt"
	"time"
)

const (
	JobReconcileCheckoutSessions = "reconcile_checkout_sessions"
	JobCleanupProcessedEvents    = "cleanup_processed_events"
	JobCleanupNotifications      = "cleanup_read_notifications"

	staleCheckoutAge    = time.Hour
	reconcileBatchLimit = 200
)

// ReconcileCheckoutSessions flags checkouts the processor completed but no
// webhook recorded, and expires abandoned ones
func (m *CronManager) ReconcileCheckoutSessions(ctx context.Context) (string, error) {
	if m.reconciler == nil {
		return "reconciler not configured", nil
	}

	report, err := m.reconciler.ReconcileStaleCheckouts(ctx, staleCheckoutAge, reconcileBatchLimit)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("checked %d sessions: %d expired, %d mismatched, %d failed",
		report.Checked, report.Expired, report.Mismatched, report.Failed), nil
}

// CleanupProcessedEvents prunes idempotency keys older than the retention.
// The processor stops retrying an event after a few days, so old keys can go.
func (m *CronManager) CleanupProcessedEvents(ctx context.Context) (string, error) {
	cutoff := time.Now().UTC().Add(-m.opts.EventRetention)

	deleted, err := m.repos.WebhookEvents.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted %d processed events", deleted), nil
}

// CleanupNotifications removes read notifications past their retention
func (m *CronManager) CleanupNotifications(ctx context.Context) (string, error) {
	if m.notifications == nil {
		return "notifications not configured", nil
	}

	deleted, err := m.notifications.CleanupOldNotifications(ctx, m.opts.NotificationRetention)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted %d notifications", deleted), nil
}
