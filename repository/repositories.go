// Package repository groups the billing ledger's data access by entity.
// Every write that must be idempotent is a single INSERT ... ON CONFLICT
// statement so concurrent deliveries merge into the same row.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by lookups that matched no row
var ErrNotFound = errors.New("record not found")

// Repositories bundles the entity repositories over one connection or transaction
type Repositories struct {
	db *gorm.DB

	Users            *UserRepository
	Courses          *CourseRepository
	Enrollments      *EnrollmentRepository
	Payments         *PaymentRepository
	CheckoutSessions *CheckoutSessionRepository
	Payouts          *PayoutRepository
	AuditLogs        *AuditLogRepository
	Subscriptions    *SubscriptionRepository
	WebhookEvents    *WebhookEventRepository
}

// New builds the repository set on top of db
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:               db,
		Users:            &UserRepository{db: db},
		Courses:          &CourseRepository{db: db},
		Enrollments:      &EnrollmentRepository{db: db},
		Payments:         &PaymentRepository{db: db},
		CheckoutSessions: &CheckoutSessionRepository{db: db},
		Payouts:          &PayoutRepository{db: db},
		AuditLogs:        &AuditLogRepository{db: db},
		Subscriptions:    &SubscriptionRepository{db: db},
		WebhookEvents:    &WebhookEventRepository{db: db},
	}
}

// Transaction runs fn with repositories bound to a single database transaction.
// Returning an error from fn rolls back every write made through tx.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// DB exposes the underlying handle for read-only reporting queries
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
