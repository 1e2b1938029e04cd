package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VisionVII/smeducacional-sub001/config"
	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/repository"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v81"
	"gorm.io/datatypes"
)

// errUnresolved aborts a transaction whose user or course no longer exists.
// The event is acknowledged because a retry would fail the same way.
var errUnresolved = errors.New("checkout references unknown user or course")

// CheckoutCompletedHandler applies checkout.session.completed events
type CheckoutCompletedHandler struct {
	repos    *repository.Repositories
	notifier WelcomeNotifier
	now      func() time.Time
}

func NewCheckoutCompletedHandler(repos *repository.Repositories, notifier WelcomeNotifier) *CheckoutCompletedHandler {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &CheckoutCompletedHandler{
		repos:    repos,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle returns the acting user id for the processed marker
func (h *CheckoutCompletedHandler) Handle(ctx context.Context, event stripe.Event) (string, error) {
	var session stripe.CheckoutSession
	if err := decodeObject(event, &session); err != nil {
		return "", err
	}

	meta, err := ParseCheckoutMetadata(session.Metadata)
	if err != nil {
		log.Warnw("[Billing] checkout session skipped",
			"event_id", event.ID, "session_id", session.ID, "reason", err.Error())
		return "", nil
	}

	if meta.Kind.IsSubscription() {
		return h.activateSubscription(ctx, event, &session, meta)
	}
	return h.completeCoursePurchase(ctx, event, &session, meta)
}

func (h *CheckoutCompletedHandler) completeCoursePurchase(ctx context.Context, event stripe.Event, session *stripe.CheckoutSession, meta CheckoutMetadata) (string, error) {
	paymentIntentID := paymentReference(session)
	customerID := customerReference(session)
	now := h.now()

	var welcome *WelcomeMessage
	var refunded bool

	err := h.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		course, err := tx.Courses.FindByID(ctx, meta.CourseID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: course %s", errUnresolved, meta.CourseID)
			}
			return err
		}
		user, err := tx.Users.FindByID(ctx, meta.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: user %s", errUnresolved, meta.UserID)
			}
			return err
		}

		// the stored course price wins over whatever the session says was charged
		split := CalculateRevenueSplit(course.Price, config.PlatformFeeRate())
		currency := resolveCurrency(course.Currency, string(session.Currency))
		instructorID := ""
		if course.InstructorID != nil {
			instructorID = *course.InstructorID
		}

		metadata, err := json.Marshal(map[string]interface{}{
			"eventId":            event.ID,
			"sessionId":          session.ID,
			"livemode":           event.Livemode,
			"instructorId":       instructorID,
			"sessionAmountTotal": session.AmountTotal,
			"split":              split,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal payment metadata: %w", err)
		}

		courseID := course.ID
		payment, err := tx.Payments.Upsert(ctx, &model.Payment{
			UserID:            user.ID,
			CourseID:          &courseID,
			StripePaymentID:   paymentIntentID,
			CheckoutSessionID: session.ID,
			Amount:            split.TotalAmount,
			Currency:          currency,
			Status:            model.PaymentStatusCompleted,
			Type:              model.PaymentTypeCourse,
			IsTest:            !event.Livemode,
			Metadata:          datatypes.JSON(metadata),
		})
		if err != nil {
			return err
		}
		if payment.Status == model.PaymentStatusRefunded {
			refunded = true
			return nil
		}

		if err := tx.Enrollments.Activate(ctx, user.ID, course.ID); err != nil {
			return err
		}

		if _, err := tx.CheckoutSessions.MarkCompleted(ctx, session.ID, &paymentIntentID, customerID, now); err != nil {
			return err
		}

		if instructorID != "" && split.InstructorNet > 0 {
			if _, err := tx.Payouts.CreateOnce(ctx, &model.Payout{
				TeacherID:   instructorID,
				PaymentID:   payment.ID,
				Amount:      split.InstructorNet,
				Currency:    currency,
				PeriodStart: now,
				PeriodEnd:   now,
				Status:      model.PayoutStatusPending,
			}); err != nil {
				return err
			}
		}

		// a payment intent seen before keeps its original audit entry
		recorded, err := tx.AuditLogs.Exists(ctx, model.AuditActionPaymentCreated, payment.ID)
		if err != nil {
			return err
		}
		if recorded {
			return nil
		}

		if err := LogAuditTrail(ctx, tx, AuditEntry{
			UserID:     user.ID,
			Action:     model.AuditActionPaymentCreated,
			TargetID:   payment.ID,
			TargetType: "payment",
			Metadata: map[string]interface{}{
				"eventId":         event.ID,
				"courseId":        course.ID,
				"instructorId":    instructorID,
				"paymentIntentId": paymentIntentID,
				"currency":        currency,
				"totalAmount":     split.TotalAmount,
				"platformFee":     split.PlatformFee,
				"instructorNet":   split.InstructorNet,
				"feeRate":         split.FeeRate,
			},
		}); err != nil {
			return err
		}

		welcome = &WelcomeMessage{
			UserID:      user.ID,
			Email:       user.Email,
			Name:        user.Name,
			CourseID:    course.ID,
			CourseTitle: course.Title,
			CourseURL:   fmt.Sprintf("%s/courses/%s", config.AppURL(), course.Slug),
			PaymentID:   payment.ID,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errUnresolved) {
			log.Warnw("[Billing] checkout completion skipped",
				"event_id", event.ID, "session_id", session.ID, "reason", err.Error())
			return meta.UserID, nil
		}
		return "", fmt.Errorf("complete checkout %s: %w", session.ID, err)
	}
	if refunded {
		log.Warnw("[Billing] checkout completion ignored for refunded payment",
			"event_id", event.ID, "session_id", session.ID, "payment_intent", paymentIntentID)
		return meta.UserID, nil
	}

	log.Infow("[Billing] course purchase recorded",
		"event_id", event.ID, "user_id", meta.UserID, "course_id", meta.CourseID, "payment_intent", paymentIntentID)

	if welcome != nil {
		if err := h.notifier.NotifyCoursePurchase(ctx, *welcome); err != nil {
			log.Errorw("[Billing] welcome notification failed", "user_id", welcome.UserID, "error", err)
		}
	}
	return meta.UserID, nil
}

func (h *CheckoutCompletedHandler) activateSubscription(ctx context.Context, event stripe.Event, session *stripe.CheckoutSession, meta CheckoutMetadata) (string, error) {
	if session.Subscription == nil || session.Subscription.ID == "" {
		log.Warnw("[Billing] subscription checkout without subscription id",
			"event_id", event.ID, "session_id", session.ID)
		return meta.UserID, nil
	}

	subscriptionID := session.Subscription.ID
	paymentRef := paymentReference(session)
	customerID := customerReference(session)
	customer := ""
	if customerID != nil {
		customer = *customerID
	}
	now := h.now()

	err := h.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		user, err := tx.Users.FindByID(ctx, meta.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: user %s", errUnresolved, meta.UserID)
			}
			return err
		}

		switch meta.Kind {
		case PurchaseStudentSubscription:
			err = tx.Subscriptions.ActivateStudent(ctx, &model.StudentSubscription{
				UserID:               user.ID,
				StripeSubscriptionID: subscriptionID,
				StripeCustomerID:     customer,
			})
		case PurchaseTeacherSubscription:
			err = tx.Subscriptions.ActivateTeacher(ctx, &model.TeacherSubscription{
				UserID:               user.ID,
				StripeSubscriptionID: subscriptionID,
				StripeCustomerID:     customer,
			})
		}
		if err != nil {
			return err
		}

		metadata, err := json.Marshal(map[string]interface{}{
			"eventId":        event.ID,
			"sessionId":      session.ID,
			"livemode":       event.Livemode,
			"subscriptionId": subscriptionID,
			"plan":           meta.Kind,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal payment metadata: %w", err)
		}

		payment, err := tx.Payments.Upsert(ctx, &model.Payment{
			UserID:            user.ID,
			StripePaymentID:   paymentRef,
			CheckoutSessionID: session.ID,
			Amount:            FromMinorUnits(session.AmountTotal),
			Currency:          resolveCurrency(string(session.Currency), ""),
			Status:            model.PaymentStatusCompleted,
			Type:              model.PaymentTypeSubscription,
			IsTest:            !event.Livemode,
			Metadata:          datatypes.JSON(metadata),
		})
		if err != nil {
			return err
		}

		if _, err := tx.CheckoutSessions.MarkCompleted(ctx, session.ID, &paymentRef, customerID, now); err != nil {
			return err
		}

		return LogAuditTrail(ctx, tx, AuditEntry{
			UserID:     user.ID,
			Action:     model.AuditActionSubscriptionActivated,
			TargetID:   subscriptionID,
			TargetType: "subscription",
			Metadata: map[string]interface{}{
				"eventId":   event.ID,
				"type":      meta.Kind,
				"paymentId": payment.ID,
				"amount":    payment.Amount,
			},
		})
	})
	if err != nil {
		if errors.Is(err, errUnresolved) {
			log.Warnw("[Billing] subscription activation skipped",
				"event_id", event.ID, "session_id", session.ID, "reason", err.Error())
			return meta.UserID, nil
		}
		return "", fmt.Errorf("activate subscription %s: %w", subscriptionID, err)
	}

	log.Infow("[Billing] subscription activated",
		"event_id", event.ID, "user_id", meta.UserID, "subscription_id", subscriptionID, "type", meta.Kind)
	return meta.UserID, nil
}

// paymentReference is the payment intent id, or the session id when the
// session produced no intent
func paymentReference(session *stripe.CheckoutSession) string {
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		return session.PaymentIntent.ID
	}
	return session.ID
}

func customerReference(session *stripe.CheckoutSession) *string {
	if session.Customer != nil && session.Customer.ID != "" {
		id := session.Customer.ID
		return &id
	}
	return nil
}

// resolveCurrency returns the first non-empty currency, upper-cased
func resolveCurrency(preferred, fallback string) string {
	for _, c := range []string{preferred, fallback, config.PaymentCurrency()} {
		if c != "" {
			return strings.ToUpper(c)
		}
	}
	return strings.ToUpper(config.DefaultPaymentCurrency)
}
