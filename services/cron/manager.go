package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/repository"
	"github.com/VisionVII/smeducacional-sub001/services/billing"
	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	// Cron job status values written to CronJobLog
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// CheckoutReconciler is the part of billing.CheckoutService the cron needs
type CheckoutReconciler interface {
	ReconcileStaleCheckouts(ctx context.Context, age time.Duration, limit int) (billing.ReconcileReport, error)
}

// NotificationCleaner prunes old in-app notifications
type NotificationCleaner interface {
	CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Options configures the scheduled jobs
type Options struct {
	// EventRetention is how long processed webhook keys are kept
	EventRetention time.Duration
	// NotificationRetention is how long read notifications are kept
	NotificationRetention time.Duration
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron          *cron.Cron
	db            *gorm.DB
	repos         *repository.Repositories
	reconciler    CheckoutReconciler
	notifications NotificationCleaner
	opts          Options
}

// NewCronManager creates a new cron manager. notifications may be nil.
func NewCronManager(db *gorm.DB, reconciler CheckoutReconciler, notifications NotificationCleaner, opts Options) *CronManager {
	if opts.EventRetention <= 0 {
		opts.EventRetention = 90 * 24 * time.Hour
	}
	if opts.NotificationRetention <= 0 {
		opts.NotificationRetention = 30 * 24 * time.Hour
	}

	// Seconds precision; a job still running when its next tick fires is skipped
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	return &CronManager{
		cron:          c,
		db:            db,
		repos:         repository.New(db),
		reconciler:    reconciler,
		notifications: notifications,
		opts:          opts,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Info("[CRON] Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Info("[CRON] Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones
func (m *CronManager) Stop() {
	log.Info("[CRON] Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Info("[CRON] Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	jobs := []struct {
		spec string
		name string
		run  func(ctx context.Context) (string, error)
	}{
		// Every 30 minutes: compare stale pending checkouts with the processor
		{"0 */30 * * * *", JobReconcileCheckoutSessions, m.ReconcileCheckoutSessions},
		// Daily at 3 AM: prune old idempotency keys
		{"0 0 3 * * *", JobCleanupProcessedEvents, m.CleanupProcessedEvents},
		// Daily at 4 AM: prune read notifications
		{"0 0 4 * * *", JobCleanupNotifications, m.CleanupNotifications},
	}

	for _, job := range jobs {
		job := job
		if _, err := m.cron.AddFunc(job.spec, func() { m.RunJob(job.name, job.run) }); err != nil {
			return fmt.Errorf("failed to register %s: %w", job.name, err)
		}
	}

	log.Infow("[CRON] All cron jobs registered successfully", "count", len(jobs))
	return nil
}

// RunJob executes one job with a timeout and records the run in CronJobLog
func (m *CronManager) RunJob(jobName string, run func(ctx context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	entry := m.logJobStart(jobName)

	message, err := run(ctx)
	if err != nil {
		m.logJobError(entry, err)
		return
	}
	m.logJobComplete(entry, message)
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	log.Infow("[CRON] Starting job", "job", jobName)

	entry := &model.CronJobLog{
		JobName:   jobName,
		Status:    JobStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := m.db.Create(entry).Error; err != nil {
		log.Warnw("[CRON] Failed to record job start", "job", jobName, "error", err)
	}
	return entry
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(entry *model.CronJobLog, message string) {
	log.Infow("[CRON] Completed job", "job", entry.JobName, "message", message)
	m.finishJob(entry, map[string]interface{}{
		"status":  JobStatusCompleted,
		"message": message,
	})
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	log.Errorw("[CRON] Error in job", "job", entry.JobName, "error", err)
	m.finishJob(entry, map[string]interface{}{
		"status":    JobStatusFailed,
		"error_msg": err.Error(),
	})
}

func (m *CronManager) finishJob(entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	now := time.Now().UTC()
	updates["completed_at"] = now
	updates["duration"] = now.Sub(entry.StartedAt).Milliseconds()

	if err := m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
		log.Warnw("[CRON] Failed to record job result", "job", entry.JobName, "error", err)
	}
}
