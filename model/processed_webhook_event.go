package model

import "time"

// ProcessedWebhookEvent is the idempotency key store for inbound webhooks.
// A row exists only after every side effect of the event committed.
type ProcessedWebhookEvent struct {
	EventID     string    `gorm:"type:varchar(255);primaryKey" json:"event_id"`
	Provider    string    `gorm:"type:varchar(32);not null" json:"provider"`
	EventType   string    `gorm:"type:varchar(128);not null" json:"event_type"`
	ProcessedAt time.Time `gorm:"not null;index" json:"processed_at"`
}

// TableName specifies the table name for ProcessedWebhookEvent
func (ProcessedWebhookEvent) TableName() string {
	return "processed_webhook_events"
}
