package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/repository"
)

const webhookProvider = "stripe"

// ProcessedMarker describes an event whose side effects all committed
type ProcessedMarker struct {
	EventID   string
	EventType string
	UserID    string
	Metadata  map[string]interface{}
}

// IdempotencyGuard answers "was this event already applied" from the
// dedicated key table, falling back to audit markers written before the
// table existed.
type IdempotencyGuard struct {
	repos *repository.Repositories
}

func NewIdempotencyGuard(repos *repository.Repositories) *IdempotencyGuard {
	return &IdempotencyGuard{repos: repos}
}

func (g *IdempotencyGuard) HasProcessedEvent(ctx context.Context, eventID string) (bool, error) {
	exists, err := g.repos.WebhookEvents.Exists(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("check processed event %s: %w", eventID, err)
	}
	if exists {
		return true, nil
	}

	exists, err = g.repos.AuditLogs.Exists(ctx, model.AuditActionWebhookProcessed, eventID)
	if err != nil {
		return false, fmt.Errorf("check audit marker %s: %w", eventID, err)
	}
	return exists, nil
}

// MarkEventProcessed records the key and its audit marker in one transaction.
// A key that is already stored gets no second marker.
func (g *IdempotencyGuard) MarkEventProcessed(ctx context.Context, marker ProcessedMarker) error {
	metadata := map[string]interface{}{
		"eventType": marker.EventType,
		"provider":  webhookProvider,
	}
	for k, v := range marker.Metadata {
		metadata[k] = v
	}

	return g.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		inserted, err := tx.WebhookEvents.Record(ctx, &model.ProcessedWebhookEvent{
			EventID:     marker.EventID,
			Provider:    webhookProvider,
			EventType:   marker.EventType,
			ProcessedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		return LogAuditTrail(ctx, tx, AuditEntry{
			UserID:     marker.UserID,
			Action:     model.AuditActionWebhookProcessed,
			TargetID:   marker.EventID,
			TargetType: "webhook_event",
			Metadata:   metadata,
		})
	})
}
