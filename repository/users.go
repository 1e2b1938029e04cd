package repository

import (
	"context"
	"fmt"

	"github.com/VisionVII/smeducacional-sub001/model"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, notFound(err))
	}
	return &user, nil
}

type CourseRepository struct {
	db *gorm.DB
}

// FindByID loads a non-deleted course
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, fmt.Errorf("find course %s: %w", id, notFound(err))
	}
	return &course, nil
}
