package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/VisionVII/smeducacional-sub001/services/billing"
	"github.com/gofiber/fiber/v2/log"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const QueueNotifications = "notifications"

// WelcomeEmailArgs is the river job carrying one purchase confirmation
type WelcomeEmailArgs struct {
	Message billing.WelcomeMessage `json:"message"`
}

func (WelcomeEmailArgs) Kind() string { return "welcome_email" }

func (WelcomeEmailArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueNotifications,
		MaxAttempts: 5,
		// one job per purchase even if the webhook handler runs twice
		UniqueOpts: river.UniqueOpts{ByArgs: true},
	}
}

// WelcomeDeliverer performs the actual delivery. *services.WelcomeDelivery implements it.
type WelcomeDeliverer interface {
	Deliver(ctx context.Context, msg billing.WelcomeMessage) error
}

// WelcomeEmailWorker delivers welcome_email jobs
type WelcomeEmailWorker struct {
	river.WorkerDefaults[WelcomeEmailArgs]
	deliverer WelcomeDeliverer
}

func NewWelcomeEmailWorker(deliverer WelcomeDeliverer) *WelcomeEmailWorker {
	return &WelcomeEmailWorker{deliverer: deliverer}
}

func (w *WelcomeEmailWorker) Work(ctx context.Context, job *river.Job[WelcomeEmailArgs]) error {
	startTime := time.Now()
	msg := job.Args.Message

	if err := w.deliverer.Deliver(ctx, msg); err != nil {
		log.Warnw("[Queue] welcome delivery failed",
			"job_id", job.ID, "attempt", job.Attempt, "max_attempts", job.MaxAttempts,
			"user_id", msg.UserID, "error", err)
		return fmt.Errorf("welcome delivery failed: %w", err)
	}

	log.Infow("[Queue] welcome delivered", "job_id", job.ID, "user_id", msg.UserID,
		"payment_id", msg.PaymentID, "duration", time.Since(startTime))
	return nil
}

// Timeout bounds one delivery attempt
func (w *WelcomeEmailWorker) Timeout(*river.Job[WelcomeEmailArgs]) time.Duration {
	return time.Minute
}

// JobInserter is the part of *river.Client the notifier needs
type JobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// RiverNotifier enqueues welcome notifications as durable jobs
type RiverNotifier struct {
	client JobInserter
}

func NewRiverNotifier(client JobInserter) *RiverNotifier {
	return &RiverNotifier{client: client}
}

func (n *RiverNotifier) NotifyCoursePurchase(ctx context.Context, msg billing.WelcomeMessage) error {
	result, err := n.client.Insert(ctx, WelcomeEmailArgs{Message: msg}, nil)
	if err != nil {
		return fmt.Errorf("enqueue welcome email: %w", err)
	}
	if result.UniqueSkippedAsDuplicate {
		log.Infow("[Queue] welcome email already queued", "payment_id", msg.PaymentID)
	}
	return nil
}

var _ billing.WelcomeNotifier = (*RiverNotifier)(nil)
