package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/VisionVII/smeducacional-sub001/model"
	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

// Append writes a new entry. Entries are never updated.
func (r *AuditLogRepository) Append(ctx context.Context, entry *model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append audit %s: %w", entry.Action, err)
	}
	return nil
}

// Exists reports whether an entry with action and target is present
func (r *AuditLogRepository) Exists(ctx context.Context, action model.AuditAction, targetID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AuditLog{}).
		Where("action = ? AND target_id = ?", action, targetID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AuditFilter narrows List; zero fields are ignored
type AuditFilter struct {
	Action   model.AuditAction
	UserID   string
	TargetID string
	Since    time.Time
	Page     int
	PageSize int
}

func (r *AuditLogRepository) List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.TargetID != "" {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	var entries []model.AuditLog
	err := query.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&entries).Error
	return entries, total, err
}

func (r *AuditLogRepository) FindByID(ctx context.Context, id string) (*model.AuditLog, error) {
	var entry model.AuditLog
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}
