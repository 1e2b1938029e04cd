package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Checkout session status values
const (
	CheckoutStatusPending   = "pending"
	CheckoutStatusCompleted = "completed"
	CheckoutStatusExpired   = "expired"
)

// CheckoutSession tracks a hosted checkout opened by the application before payment
type CheckoutSession struct {
	ID              string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	StripeSessionID string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_session_id"`
	UserID          string      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	CourseID        *string     `gorm:"type:varchar(36);index" json:"course_id,omitempty"`
	Type            PaymentType `gorm:"type:varchar(20);not null" json:"type"`
	Amount          float64     `gorm:"type:decimal(12,2)" json:"amount"`
	Currency        string      `gorm:"type:varchar(3)" json:"currency"`
	Status          string      `gorm:"type:varchar(20);not null;index" json:"status"` // pending, completed, expired
	URL             string      `gorm:"type:text" json:"url"`
	PaymentIntentID *string     `gorm:"type:varchar(255)" json:"payment_intent_id,omitempty"`
	CustomerID      *string     `gorm:"type:varchar(255)" json:"customer_id,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
}

func (s *CheckoutSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// TableName specifies the table name for CheckoutSession
func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}
