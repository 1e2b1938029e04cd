package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/VisionVII/smeducacional-sub001/model"
	"gorm.io/gorm"
)

type CheckoutSessionRepository struct {
	db *gorm.DB
}

func (r *CheckoutSessionRepository) Create(ctx context.Context, session *model.CheckoutSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create checkout session %s: %w", session.StripeSessionID, err)
	}
	return nil
}

// MarkCompleted flags every row for the processor session as completed.
// Sessions the application never recorded are left alone.
func (r *CheckoutSessionRepository) MarkCompleted(ctx context.Context, stripeSessionID string, paymentIntentID, customerID *string, at time.Time) (int64, error) {
	updates := map[string]interface{}{
		"status":       model.CheckoutStatusCompleted,
		"completed_at": at,
	}
	if paymentIntentID != nil {
		updates["payment_intent_id"] = *paymentIntentID
	}
	if customerID != nil {
		updates["customer_id"] = *customerID
	}

	result := r.db.WithContext(ctx).
		Model(&model.CheckoutSession{}).
		Where("stripe_session_id = ?", stripeSessionID).
		Updates(updates)
	if result.Error != nil {
		return 0, fmt.Errorf("complete checkout session %s: %w", stripeSessionID, result.Error)
	}
	return result.RowsAffected, nil
}

func (r *CheckoutSessionRepository) MarkExpired(ctx context.Context, stripeSessionID string) error {
	return r.db.WithContext(ctx).
		Model(&model.CheckoutSession{}).
		Where("stripe_session_id = ? AND status = ?", stripeSessionID, model.CheckoutStatusPending).
		Update("status", model.CheckoutStatusExpired).Error
}

// ListStalePending returns pending sessions created before cutoff, oldest first
func (r *CheckoutSessionRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.CheckoutSession, error) {
	var sessions []model.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.CheckoutStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}
