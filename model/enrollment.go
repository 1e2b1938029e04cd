package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnrollmentStatus is the entitlement state of a student on a course
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Enrollment grants a student access to a course. Rows are toggled, never deleted.
type Enrollment struct {
	ID          string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	StudentID   string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollments_student_course" json:"student_id"`
	CourseID    string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollments_student_course;index" json:"course_id"`
	Status      EnrollmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CancelledAt *time.Time       `json:"cancelled_at,omitempty"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "enrollments"
}
