package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationService handles in-app user notifications
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// CreateNotificationRequest represents a request to create a notification
type CreateNotificationRequest struct {
	UserID    string
	Type      model.NotificationType
	Category  model.NotificationCategory
	Title     string
	Message   string
	Link      string
	Reference string // source record, deduplicates retries
	Metadata  *model.NotificationMetadata
}

// CreateNotification creates a new notification for a user
func (s *NotificationService) CreateNotification(ctx context.Context, req CreateNotificationRequest) (*model.UserNotification, error) {
	notification := &model.UserNotification{
		UserID:    req.UserID,
		Type:      req.Type,
		Category:  req.Category,
		Title:     req.Title,
		Message:   req.Message,
		Link:      req.Link,
		Reference: req.Reference,
		Read:      false,
	}

	// Serialize metadata if provided
	if req.Metadata != nil {
		metadataJSON, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(metadataJSON)
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	log.Infow("[Notification] created", "id", notification.ID, "user_id", req.UserID, "title", req.Title)
	return notification, nil
}

// HasNotification reports whether a notification for the reference was
// already recorded, so job retries do not duplicate it
func (s *NotificationService) HasNotification(ctx context.Context, userID, reference string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.UserNotification{}).
		Where("user_id = ? AND reference = ?", userID, reference).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}
	return count > 0, nil
}

// ListNotifications returns the user's most recent notifications, newest first
func (s *NotificationService) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.UserNotification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var notifications []model.UserNotification
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// CleanupOldNotifications removes read notifications older than the specified duration
func (s *NotificationService) CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	result := s.db.WithContext(ctx).
		Where("created_at < ? AND read = ?", cutoff, true).
		Delete(&model.UserNotification{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}
