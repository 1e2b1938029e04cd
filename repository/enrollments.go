package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/VisionVII/smeducacional-sub001/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	db *gorm.DB
}

// Activate creates the (student, course) enrollment or reactivates the existing one
func (r *EnrollmentRepository) Activate(ctx context.Context, studentID, courseID string) error {
	enrollment := model.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    model.EnrollmentStatusActive,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "cancelled_at", "updated_at"}),
		}).
		Create(&enrollment).Error
	if err != nil {
		return fmt.Errorf("upsert enrollment %s/%s: %w", studentID, courseID, err)
	}
	return nil
}

// CancelActiveForStudent cancels every ACTIVE enrollment of the student and
// returns how many rows changed
func (r *EnrollmentRepository) CancelActiveForStudent(ctx context.Context, studentID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("student_id = ? AND status = ?", studentID, model.EnrollmentStatusActive).
		Updates(map[string]interface{}{
			"status":       model.EnrollmentStatusCancelled,
			"cancelled_at": at,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("cancel enrollments of %s: %w", studentID, result.Error)
	}
	return result.RowsAffected, nil
}

// Cancel revokes one enrollment, used by refunds
func (r *EnrollmentRepository) Cancel(ctx context.Context, studentID, courseID string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ? AND status = ?", studentID, courseID, model.EnrollmentStatusActive).
		Updates(map[string]interface{}{
			"status":       model.EnrollmentStatusCancelled,
			"cancelled_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("cancel enrollment %s/%s: %w", studentID, courseID, err)
	}
	return nil
}

func (r *EnrollmentRepository) Find(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &enrollment, nil
}
