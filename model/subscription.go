package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription status values shared by student and teacher plans
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
)

// TeacherFinancial subscription status values
const (
	FinancialStatusActive   = "active"
	FinancialStatusInactive = "inactive"
)

// StudentSubscription is a student's recurring plan
type StudentSubscription struct {
	ID                   string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	UserID               string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	StripeSubscriptionID string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_subscription_id"`
	StripeCustomerID     string     `gorm:"type:varchar(255)" json:"stripe_customer_id"`
	Status               string     `gorm:"type:varchar(20);not null" json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
}

func (s *StudentSubscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// TeacherSubscription is an instructor's plan for publishing on the platform
type TeacherSubscription struct {
	ID                   string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	UserID               string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	StripeSubscriptionID string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_subscription_id"`
	StripeCustomerID     string     `gorm:"type:varchar(255)" json:"stripe_customer_id"`
	Status               string     `gorm:"type:varchar(20);not null" json:"status"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
}

func (s *TeacherSubscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// TeacherFinancial holds per-instructor billing state (one row per teacher)
type TeacherFinancial struct {
	ID                 string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	TeacherID          string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"teacher_id"`
	SubscriptionStatus string    `gorm:"type:varchar(20);not null" json:"subscription_status"`
	StripeCustomerID   string    `gorm:"type:varchar(255)" json:"stripe_customer_id"`
}

func (f *TeacherFinancial) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
