package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationType represents the type/severity of notification
type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
	NotificationTypeError   NotificationType = "error"
)

// NotificationCategory represents the category of notification
type NotificationCategory string

const (
	NotificationCategoryPurchase     NotificationCategory = "purchase"
	NotificationCategorySubscription NotificationCategory = "subscription"
	NotificationCategoryGeneral      NotificationCategory = "general"
)

// UserNotification represents an in-app notification for a user
type UserNotification struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	DeletedAt gorm.DeletedAt       `gorm:"index" json:"deleted_at,omitempty"`
	UserID    string               `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Type      NotificationType     `gorm:"type:varchar(20);not null" json:"type"`
	Category  NotificationCategory `gorm:"type:varchar(30);not null" json:"category"`
	Title     string               `gorm:"type:varchar(255);not null" json:"title"`
	Message   string               `gorm:"type:text" json:"message"`
	Link      string               `gorm:"type:text" json:"link,omitempty"`
	Reference string               `gorm:"type:varchar(64);index" json:"-"` // source record, e.g. the payment id
	Read      bool                 `gorm:"default:false" json:"read"`
	Metadata  datatypes.JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`
}

// NotificationMetadata represents common metadata fields
type NotificationMetadata struct {
	CourseID    string `json:"course_id,omitempty"`
	CourseTitle string `json:"course_title,omitempty"`
	PaymentID   string `json:"payment_id,omitempty"`
}
