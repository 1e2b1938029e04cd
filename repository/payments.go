package repository

import (
	"context"
	"fmt"

	"github.com/VisionVII/smeducacional-sub001/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

// paymentUpsertColumns is written on both the insert and the conflict path
var paymentUpsertColumns = []string{
	"user_id", "course_id", "checkout_session_id", "amount", "currency",
	"status", "type", "is_test", "metadata", "updated_at",
}

// Upsert writes the payment keyed by StripePaymentID and returns the stored row.
// A refunded row is left as it is; callers check the returned status.
func (r *PaymentRepository) Upsert(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_payment_id"}},
			DoUpdates: clause.AssignmentColumns(paymentUpsertColumns),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Neq{Column: clause.Column{Table: "payments", Name: "status"}, Value: model.PaymentStatusRefunded},
			}},
		}).
		Create(payment).Error
	if err != nil {
		return nil, fmt.Errorf("upsert payment %s: %w", payment.StripePaymentID, err)
	}

	// the row id is the original insert's when the conflict path ran
	return r.FindByStripeID(ctx, payment.StripePaymentID)
}

func (r *PaymentRepository) FindByStripeID(ctx context.Context, stripePaymentID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).Where("stripe_payment_id = ?", stripePaymentID).First(&payment).Error
	if err != nil {
		return nil, fmt.Errorf("find payment %s: %w", stripePaymentID, notFound(err))
	}
	return &payment, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, fmt.Errorf("find payment %s: %w", id, notFound(err))
	}
	return &payment, nil
}

// ExistsForCheckoutSession reports whether any payment references the session
func (r *PaymentRepository) ExistsForCheckoutSession(ctx context.Context, sessionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("checkout_session_id = ? OR stripe_payment_id = ?", sessionID, sessionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PaymentRepository) MarkRefunded(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", id).
		Update("status", model.PaymentStatusRefunded).Error
	if err != nil {
		return fmt.Errorf("mark payment %s refunded: %w", id, err)
	}
	return nil
}
