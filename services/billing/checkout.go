package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VisionVII/smeducacional-sub001/config"
	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/repository"
	"github.com/VisionVII/smeducacional-sub001/services/stripeclient"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v81"
)

var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrAlreadyEnrolled      = errors.New("user is already enrolled in this course")
	ErrCourseNotPurchasable = errors.New("course has no price")
	ErrPlanNotConfigured    = errors.New("subscription plan has no configured price")
	ErrSubscriptionNotOwned = errors.New("subscription does not belong to user")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentNotRefundable = errors.New("only completed payments can be refunded")
)

// CheckoutResult is what the client needs to redirect to the hosted checkout
type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// ReconcileReport summarises one pass over stale checkout sessions
type ReconcileReport struct {
	Checked    int `json:"checked"`
	Expired    int `json:"expired"`
	Mismatched int `json:"mismatched"`
	Failed     int `json:"failed"`
}

// CheckoutService opens checkouts and performs the outbound processor calls
// whose results arrive later as webhooks
type CheckoutService struct {
	repos   *repository.Repositories
	gateway PaymentGateway
}

func NewCheckoutService(repos *repository.Repositories, gateway PaymentGateway) *CheckoutService {
	return &CheckoutService{repos: repos, gateway: gateway}
}

// OpenCourseCheckout creates a processor checkout for the course's current
// price and records it as pending
func (s *CheckoutService) OpenCourseCheckout(ctx context.Context, userID, courseID string) (*CheckoutResult, error) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	course, err := s.repos.Courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if course.Price <= 0 {
		return nil, ErrCourseNotPurchasable
	}

	enrollment, err := s.repos.Enrollments.Find(ctx, user.ID, course.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if enrollment != nil && enrollment.Status == model.EnrollmentStatusActive {
		return nil, ErrAlreadyEnrolled
	}

	currency := strings.ToLower(resolveCurrency("", course.Currency))
	appURL := config.AppURL()

	session, err := s.gateway.CreateCheckoutSession(ctx, stripeclient.CheckoutParams{
		CustomerEmail: user.Email,
		ProductName:   course.Title,
		AmountMinor:   ToMinorUnits(course.Price),
		Currency:      currency,
		SuccessURL:    fmt.Sprintf("%s/courses/%s?checkout=success&session_id={CHECKOUT_SESSION_ID}", appURL, course.Slug),
		CancelURL:     fmt.Sprintf("%s/courses/%s?checkout=cancelled", appURL, course.Slug),
		Metadata: map[string]string{
			"userId":   user.ID,
			"courseId": course.ID,
			"type":     string(PurchaseCourse),
		},
	})
	if err != nil {
		return nil, err
	}

	courseRef := course.ID
	if err := s.repos.CheckoutSessions.Create(ctx, &model.CheckoutSession{
		StripeSessionID: session.ID,
		UserID:          user.ID,
		CourseID:        &courseRef,
		Type:            model.PaymentTypeCourse,
		Amount:          course.Price,
		Currency:        strings.ToUpper(currency),
		Status:          model.CheckoutStatusPending,
		URL:             session.URL,
	}); err != nil {
		return nil, err
	}

	log.Infow("[Checkout] course checkout opened", "user_id", user.ID, "course_id", course.ID, "session_id", session.ID)
	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

// OpenSubscriptionCheckout starts a recurring plan purchase
func (s *CheckoutService) OpenSubscriptionCheckout(ctx context.Context, userID string, kind PurchaseKind) (*CheckoutResult, error) {
	if !kind.IsSubscription() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPurchaseKind, kind)
	}
	priceID := config.SubscriptionPriceID(string(kind))
	if priceID == "" {
		return nil, ErrPlanNotConfigured
	}

	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	appURL := config.AppURL()
	session, err := s.gateway.CreateSubscriptionSession(ctx, stripeclient.SubscriptionParams{
		CustomerEmail: user.Email,
		PriceID:       priceID,
		SuccessURL:    appURL + "/dashboard?subscription=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     appURL + "/dashboard?subscription=cancelled",
		Metadata: map[string]string{
			"userId": user.ID,
			"type":   string(kind),
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.repos.CheckoutSessions.Create(ctx, &model.CheckoutSession{
		StripeSessionID: session.ID,
		UserID:          user.ID,
		Type:            model.PaymentTypeSubscription,
		Currency:        strings.ToUpper(config.PaymentCurrency()),
		Status:          model.CheckoutStatusPending,
		URL:             session.URL,
	}); err != nil {
		return nil, err
	}

	log.Infow("[Checkout] subscription checkout opened", "user_id", user.ID, "type", kind, "session_id", session.ID)
	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

// CancelSubscription asks the processor to cancel. Local state changes when
// the resulting customer.subscription.deleted webhook arrives.
func (s *CheckoutService) CancelSubscription(ctx context.Context, userID, subscriptionID string) error {
	owns, err := s.repos.Subscriptions.Owns(ctx, userID, subscriptionID)
	if err != nil {
		return err
	}
	if !owns {
		return ErrSubscriptionNotOwned
	}

	if _, err := s.gateway.CancelSubscription(ctx, subscriptionID); err != nil {
		return err
	}

	log.Infow("[Checkout] subscription cancellation requested", "user_id", userID, "subscription_id", subscriptionID)
	return nil
}

// RefundPayment refunds a completed payment at the processor, then voids the
// pending payout and revokes the course enrollment in one transaction
func (s *CheckoutService) RefundPayment(ctx context.Context, adminID, paymentID string) (*model.Payment, error) {
	payment, err := s.repos.Payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.Status != model.PaymentStatusCompleted {
		return nil, ErrPaymentNotRefundable
	}

	refund, err := s.gateway.Refund(ctx, payment.StripePaymentID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Payments.MarkRefunded(ctx, payment.ID); err != nil {
			return err
		}
		voided, err := tx.Payouts.CancelPendingForPayment(ctx, payment.ID)
		if err != nil {
			return err
		}
		if payment.Type == model.PaymentTypeCourse && payment.CourseID != nil {
			if err := tx.Enrollments.Cancel(ctx, payment.UserID, *payment.CourseID, now); err != nil {
				return err
			}
		}

		return LogAuditTrail(ctx, tx, AuditEntry{
			UserID:     adminID,
			Action:     model.AuditActionPaymentRefunded,
			TargetID:   payment.ID,
			TargetType: "payment",
			Metadata: map[string]interface{}{
				"refundId":        refund.ID,
				"paymentIntentId": payment.StripePaymentID,
				"amount":          payment.Amount,
				"currency":        payment.Currency,
				"payoutsVoided":   voided,
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("record refund of %s: %w", payment.ID, err)
	}

	payment.Status = model.PaymentStatusRefunded
	return payment, nil
}

// ReconcileStaleCheckouts compares pending sessions older than age with the
// processor. Sessions paid at the processor but missing locally get a
// mismatch audit entry for manual follow-up.
func (s *CheckoutService) ReconcileStaleCheckouts(ctx context.Context, age time.Duration, limit int) (ReconcileReport, error) {
	var report ReconcileReport

	sessions, err := s.repos.CheckoutSessions.ListStalePending(ctx, time.Now().UTC().Add(-age), limit)
	if err != nil {
		return report, fmt.Errorf("list stale checkout sessions: %w", err)
	}

	for _, local := range sessions {
		report.Checked++

		remote, err := s.gateway.RetrieveCheckoutSession(ctx, local.StripeSessionID)
		if err != nil {
			log.Warnw("[Reconcile] failed to retrieve session", "session_id", local.StripeSessionID, "error", err)
			report.Failed++
			continue
		}

		switch {
		case remote.Status == stripe.CheckoutSessionStatusExpired:
			if err := s.repos.CheckoutSessions.MarkExpired(ctx, local.StripeSessionID); err != nil {
				report.Failed++
				continue
			}
			report.Expired++

		case remote.Status == stripe.CheckoutSessionStatusComplete && remote.PaymentStatus != stripe.CheckoutSessionPaymentStatusUnpaid:
			recorded, err := s.repos.Payments.ExistsForCheckoutSession(ctx, local.StripeSessionID)
			if err != nil {
				report.Failed++
				continue
			}
			if recorded {
				continue
			}

			flagged, err := s.repos.AuditLogs.Exists(ctx, model.AuditActionReconciliationMismatch, local.StripeSessionID)
			if err != nil {
				log.Warnw("[Reconcile] failed to check mismatch marker", "session_id", local.StripeSessionID, "error", err)
				report.Failed++
				continue
			}
			if flagged {
				continue
			}

			log.Errorw("[Reconcile] session paid but no payment recorded",
				"session_id", local.StripeSessionID, "user_id", local.UserID)
			if err := LogAuditTrail(ctx, s.repos, AuditEntry{
				Action:     model.AuditActionReconciliationMismatch,
				TargetID:   local.StripeSessionID,
				TargetType: "checkout_session",
				Metadata: map[string]interface{}{
					"userId":          local.UserID,
					"type":            local.Type,
					"paymentIntentId": paymentReference(remote),
					"amountTotal":     remote.AmountTotal,
				},
			}); err != nil {
				report.Failed++
				continue
			}
			report.Mismatched++
		}
	}

	return report, nil
}
