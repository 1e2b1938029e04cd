package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/VisionVII/smeducacional-sub001/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository covers student plans, teacher plans and the teacher
// financial profile that mirrors the teacher plan state
type SubscriptionRepository struct {
	db *gorm.DB
}

// CancelStudent cancels every non-cancelled student subscription of the user
func (r *SubscriptionRepository) CancelStudent(ctx context.Context, userID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.StudentSubscription{}).
		Where("user_id = ? AND status <> ?", userID, model.SubscriptionStatusCancelled).
		Updates(map[string]interface{}{
			"status":       model.SubscriptionStatusCancelled,
			"cancelled_at": at,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("cancel student subscriptions of %s: %w", userID, result.Error)
	}
	return result.RowsAffected, nil
}

// CancelTeacher cancels every non-cancelled teacher subscription of the user
func (r *SubscriptionRepository) CancelTeacher(ctx context.Context, userID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.TeacherSubscription{}).
		Where("user_id = ? AND status <> ?", userID, model.SubscriptionStatusCancelled).
		Updates(map[string]interface{}{
			"status":       model.SubscriptionStatusCancelled,
			"cancelled_at": at,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("cancel teacher subscriptions of %s: %w", userID, result.Error)
	}
	return result.RowsAffected, nil
}

// SetTeacherFinancialStatus updates the teacher's financial profile if one exists
func (r *SubscriptionRepository) SetTeacherFinancialStatus(ctx context.Context, teacherID, status string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.TeacherFinancial{}).
		Where("teacher_id = ?", teacherID).
		Update("subscription_status", status)
	if result.Error != nil {
		return 0, fmt.Errorf("update financial status of %s: %w", teacherID, result.Error)
	}
	return result.RowsAffected, nil
}

// ActivateStudent upserts the student plan by processor subscription id
func (r *SubscriptionRepository) ActivateStudent(ctx context.Context, sub *model.StudentSubscription) error {
	sub.Status = model.SubscriptionStatusActive
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "stripe_customer_id", "status", "cancelled_at", "updated_at"}),
		}).
		Create(sub).Error
}

// ActivateTeacher upserts the teacher plan and marks the financial profile active
func (r *SubscriptionRepository) ActivateTeacher(ctx context.Context, sub *model.TeacherSubscription) error {
	sub.Status = model.SubscriptionStatusActive
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "stripe_customer_id", "status", "cancelled_at", "updated_at"}),
		}).
		Create(sub).Error
	if err != nil {
		return fmt.Errorf("upsert teacher subscription %s: %w", sub.StripeSubscriptionID, err)
	}

	financial := model.TeacherFinancial{
		TeacherID:          sub.UserID,
		SubscriptionStatus: model.FinancialStatusActive,
		StripeCustomerID:   sub.StripeCustomerID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "teacher_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"subscription_status", "stripe_customer_id", "updated_at"}),
		}).
		Create(&financial).Error
}

// Owns reports whether the processor subscription belongs to the user
func (r *SubscriptionRepository) Owns(ctx context.Context, userID, stripeSubscriptionID string) (bool, error) {
	var students, teachers int64
	if err := r.db.WithContext(ctx).Model(&model.StudentSubscription{}).
		Where("user_id = ? AND stripe_subscription_id = ?", userID, stripeSubscriptionID).
		Count(&students).Error; err != nil {
		return false, err
	}
	if err := r.db.WithContext(ctx).Model(&model.TeacherSubscription{}).
		Where("user_id = ? AND stripe_subscription_id = ?", userID, stripeSubscriptionID).
		Count(&teachers).Error; err != nil {
		return false, err
	}
	return students+teachers > 0, nil
}
