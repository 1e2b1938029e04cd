package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/VisionVII/smeducacional-sub001/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WebhookEventRepository stores idempotency keys of processed webhook events
type WebhookEventRepository struct {
	db *gorm.DB
}

func (r *WebhookEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProcessedWebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Record stores the key and reports whether it was new; recording an
// existing key is a no-op.
func (r *WebhookEventRepository) Record(ctx context.Context, event *model.ProcessedWebhookEvent) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if result.Error != nil {
		return false, fmt.Errorf("record webhook event %s: %w", event.EventID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteOlderThan prunes keys processed before cutoff
func (r *WebhookEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("processed_at < ?", cutoff).
		Delete(&model.ProcessedWebhookEvent{})
	return result.RowsAffected, result.Error
}
