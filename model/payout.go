package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payout status values
const (
	PayoutStatusPending   = "pending"
	PayoutStatusPaid      = "paid"
	PayoutStatusCancelled = "cancelled"
)

// Payout is instructor revenue owed for a single sale. Settlement happens
// outside this service; PeriodStart and PeriodEnd both mark the sale time.
type Payout struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	TeacherID   string    `gorm:"type:varchar(36);not null;index" json:"teacher_id"`
	PaymentID   string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"payment_id"`
	Amount      float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency    string    `gorm:"type:varchar(3);not null" json:"currency"`
	PeriodStart time.Time `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null" json:"period_end"`
	Status      string    `gorm:"type:varchar(20);not null;index" json:"status"`
}

func (p *Payout) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// TableName specifies the table name for Payout
func (Payout) TableName() string {
	return "payouts"
}
