package database

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/VisionVII/smeducacional-sub001/model"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedResult holds the demo accounts so callers can issue tokens for them
type SeedResult struct {
	Admin   *model.User
	Teacher *model.User
	Student *model.User
	Course  *model.Course
}

// SeedAll runs all seed functions. Running it twice is a no-op.
func (s *Seeder) SeedAll() (*SeedResult, error) {
	log.Println("🌱 Starting database seeding...")

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@smeducacional.local"
	}

	admin, err := s.SeedUser(adminEmail, "System Administrator", model.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}
	teacher, err := s.SeedUser("professor@smeducacional.local", "Professora Demo", model.RoleTeacher)
	if err != nil {
		return nil, fmt.Errorf("failed to seed teacher: %w", err)
	}
	student, err := s.SeedUser("aluno@smeducacional.local", "Aluno Demo", model.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("failed to seed student: %w", err)
	}

	course, err := s.SeedCourse(teacher)
	if err != nil {
		return nil, fmt.Errorf("failed to seed course: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return &SeedResult{Admin: admin, Teacher: teacher, Student: student, Course: course}, nil
}

// SeedUser returns the user with email, creating it when missing
func (s *Seeder) SeedUser(email, name, role string) (*model.User, error) {
	user := &model.User{}
	err := s.db.Where("email = ?", email).First(user).Error
	if err == nil {
		log.Printf("⏭️  %s user %s already exists, skipping...\n", role, user.Email)
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = &model.User{Email: email, Name: name, Role: role}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}

	log.Printf("✅ Created %s user: %s\n", role, user.Email)
	return user, nil
}

// SeedCourse creates a published demo course owned by instructor
func (s *Seeder) SeedCourse(instructor *model.User) (*model.Course, error) {
	const slug = "introducao-a-programacao"

	course := &model.Course{}
	err := s.db.Where("slug = ?", slug).First(course).Error
	if err == nil {
		log.Println("⏭️  Demo course already exists, skipping...")
		return course, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	course = &model.Course{
		Title:        "Introdução à Programação",
		Slug:         slug,
		Description:  "Curso demonstrativo para testar o checkout.",
		Price:        97.00,
		InstructorID: &instructor.ID,
		IsPublished:  true,
	}
	if err := s.db.Create(course).Error; err != nil {
		return nil, err
	}

	log.Printf("✅ Created course: %s\n", course.Title)
	return course, nil
}
