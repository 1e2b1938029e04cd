package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditAction enumerates what an audit entry records
type AuditAction string

const (
	AuditActionPaymentCreated         AuditAction = "PAYMENT_CREATED"
	AuditActionPaymentRefunded        AuditAction = "PAYMENT_REFUNDED"
	AuditActionSubscriptionActivated  AuditAction = "SUBSCRIPTION_ACTIVATED"
	AuditActionSubscriptionCancelled  AuditAction = "SUBSCRIPTION_CANCELLED"
	AuditActionWebhookProcessed       AuditAction = "WEBHOOK_PROCESSED"
	AuditActionReconciliationMismatch AuditAction = "CHECKOUT_RECONCILIATION_MISMATCH"
)

// AuditLog is the append-only audit trail. UserID is the acting user or the
// configured system actor, so it carries no foreign key.
type AuditLog struct {
	ID         string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     string         `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Action     AuditAction    `gorm:"type:varchar(64);not null;index:idx_audit_logs_action_target" json:"action"`
	TargetID   string         `gorm:"type:varchar(255);index:idx_audit_logs_action_target" json:"target_id"`
	TargetType string         `gorm:"type:varchar(64)" json:"target_type"`
	Metadata   datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
