package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values stored on User.Role
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User represents a registered account. Credentials live with the external
// auth provider; this table only mirrors identity and role.
type User struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);not null" json:"role"` // student, teacher, admin
	TokenVersion int            `gorm:"default:0" json:"-"`                    // Increment to invalidate all user tokens

	// Relationships
	Enrollments []Enrollment `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate assigns a UUID when the caller did not provide one
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin reports whether the user can see platform-wide data
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
