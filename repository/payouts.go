package repository

import (
	"context"
	"fmt"

	"github.com/VisionVII/smeducacional-sub001/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PayoutRepository struct {
	db *gorm.DB
}

// CreateOnce inserts the payout unless one already exists for the payment.
// It reports whether a row was inserted.
func (r *PayoutRepository) CreateOnce(ctx context.Context, payout *model.Payout) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		}).
		Create(payout)
	if result.Error != nil {
		return false, fmt.Errorf("create payout for payment %s: %w", payout.PaymentID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CancelPendingForPayment voids an unpaid payout, used by refunds
func (r *PayoutRepository) CancelPendingForPayment(ctx context.Context, paymentID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Payout{}).
		Where("payment_id = ? AND status = ?", paymentID, model.PayoutStatusPending).
		Update("status", model.PayoutStatusCancelled)
	return result.RowsAffected, result.Error
}

func (r *PayoutRepository) ListByTeacher(ctx context.Context, teacherID string) ([]model.Payout, error) {
	var payouts []model.Payout
	err := r.db.WithContext(ctx).Where("teacher_id = ?", teacherID).Order("created_at DESC").Find(&payouts).Error
	return payouts, err
}
