package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentType separates one-off course sales from subscription charges
type PaymentType string

const (
	PaymentTypeCourse       PaymentType = "course"
	PaymentTypeSubscription PaymentType = "subscription"
)

// Payment status values
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusFailed    = "failed"
)

// Payment is the ledger row for money received. StripePaymentID (the payment
// intent, or the checkout session when no intent exists) is unique.
type Payment struct {
	ID                string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	UserID            string         `gorm:"type:varchar(36);not null;index" json:"user_id"`
	CourseID          *string        `gorm:"type:varchar(36);index" json:"course_id,omitempty"`
	StripePaymentID   string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_payment_id"`
	CheckoutSessionID string         `gorm:"type:varchar(255);index" json:"checkout_session_id"`
	Amount            float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency          string         `gorm:"type:varchar(3);not null" json:"currency"`
	Status            string         `gorm:"type:varchar(20);not null;index" json:"status"` // pending, completed, refunded, failed
	Type              PaymentType    `gorm:"type:varchar(20);not null" json:"type"`
	IsTest            bool           `gorm:"default:false" json:"is_test"`
	Metadata          datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}
