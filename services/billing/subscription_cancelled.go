package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/repository"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v81"
)

const cancellationCause = "stripe_subscription_deleted"

// SubscriptionCancelledHandler applies customer.subscription.deleted events
type SubscriptionCancelledHandler struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewSubscriptionCancelledHandler(repos *repository.Repositories) *SubscriptionCancelledHandler {
	return &SubscriptionCancelledHandler{
		repos: repos,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (h *SubscriptionCancelledHandler) Handle(ctx context.Context, event stripe.Event) (string, error) {
	var subscription stripe.Subscription
	if err := decodeObject(event, &subscription); err != nil {
		return "", err
	}

	meta, err := ParseSubscriptionMetadata(subscription.Metadata)
	if err != nil {
		log.Warnw("[Billing] subscription cancellation skipped",
			"event_id", event.ID, "subscription_id", subscription.ID, "reason", err.Error())
		return meta.UserID, nil
	}

	now := h.now()
	var subscriptions, enrollments int64

	err = h.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		switch meta.Kind {
		case PurchaseStudentSubscription:
			if subscriptions, err = tx.Subscriptions.CancelStudent(ctx, meta.UserID, now); err != nil {
				return err
			}
			if enrollments, err = tx.Enrollments.CancelActiveForStudent(ctx, meta.UserID, now); err != nil {
				return err
			}
		case PurchaseTeacherSubscription:
			if subscriptions, err = tx.Subscriptions.CancelTeacher(ctx, meta.UserID, now); err != nil {
				return err
			}
			if _, err = tx.Subscriptions.SetTeacherFinancialStatus(ctx, meta.UserID, model.FinancialStatusInactive); err != nil {
				return err
			}
		default:
			log.Warnw("[Billing] cancelled subscription has no known plan, recording audit only",
				"event_id", event.ID, "subscription_id", subscription.ID, "type", meta.Kind)
		}

		return LogAuditTrail(ctx, tx, AuditEntry{
			UserID:     meta.UserID,
			Action:     model.AuditActionSubscriptionCancelled,
			TargetID:   subscription.ID,
			TargetType: "subscription",
			Metadata: map[string]interface{}{
				"eventId":                event.ID,
				"cause":                  cancellationCause,
				"type":                   planLabel(meta.Kind),
				"subscriptionsCancelled": subscriptions,
				"enrollmentsCancelled":   enrollments,
			},
		})
	})
	if err != nil {
		return "", fmt.Errorf("cancel subscription %s: %w", subscription.ID, err)
	}

	log.Infow("[Billing] subscription cancelled",
		"event_id", event.ID, "user_id", meta.UserID, "type", meta.Kind,
		"subscriptions", subscriptions, "enrollments", enrollments)
	return meta.UserID, nil
}

func planLabel(kind PurchaseKind) string {
	if kind == "" {
		return "unknown"
	}
	return string(kind)
}
