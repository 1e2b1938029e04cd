package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/services/billing"
	"github.com/gofiber/fiber/v2/log"
)

const welcomeDeliveryTimeout = 30 * time.Second

// welcomeMailer is satisfied by *EmailService
type welcomeMailer interface {
	IsConfigured() bool
	SendWelcomeEmail(toEmail, userName, courseTitle, courseURL string) error
}

// WelcomeDelivery records the in-app purchase notification and emails the
// buyer. Safe to repeat: the in-app notification is keyed by payment id.
type WelcomeDelivery struct {
	mailer        welcomeMailer
	notifications *NotificationService
}

func NewWelcomeDelivery(mailer *EmailService, notifications *NotificationService) *WelcomeDelivery {
	d := &WelcomeDelivery{notifications: notifications}
	if mailer != nil {
		d.mailer = mailer
	}
	return d
}

func (d *WelcomeDelivery) Deliver(ctx context.Context, msg billing.WelcomeMessage) error {
	exists, err := d.notifications.HasNotification(ctx, msg.UserID, msg.PaymentID)
	if err != nil {
		return err
	}
	if !exists {
		_, err := d.notifications.CreateNotification(ctx, CreateNotificationRequest{
			UserID:    msg.UserID,
			Type:      model.NotificationTypeSuccess,
			Category:  model.NotificationCategoryPurchase,
			Title:     "Compra confirmada",
			Message:   fmt.Sprintf("Você já tem acesso ao curso %s.", msg.CourseTitle),
			Link:      msg.CourseURL,
			Reference: msg.PaymentID,
			Metadata: &model.NotificationMetadata{
				CourseID:    msg.CourseID,
				CourseTitle: msg.CourseTitle,
				PaymentID:   msg.PaymentID,
			},
		})
		if err != nil {
			return err
		}
	}

	if d.mailer == nil || !d.mailer.IsConfigured() {
		return nil
	}
	if err := d.mailer.SendWelcomeEmail(msg.Email, msg.Name, msg.CourseTitle, msg.CourseURL); err != nil {
		if errors.Is(err, ErrSMTPNotConfigured) {
			return nil
		}
		return fmt.Errorf("send welcome email to %s: %w", msg.Email, err)
	}
	return nil
}

// AsyncWelcomeNotifier delivers on a detached goroutine. It is used when the
// job queue is disabled; failures are logged and not retried.
type AsyncWelcomeNotifier struct {
	delivery *WelcomeDelivery
}

func NewAsyncWelcomeNotifier(delivery *WelcomeDelivery) *AsyncWelcomeNotifier {
	return &AsyncWelcomeNotifier{delivery: delivery}
}

func (n *AsyncWelcomeNotifier) NotifyCoursePurchase(ctx context.Context, msg billing.WelcomeMessage) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), welcomeDeliveryTimeout)
		defer cancel()

		if err := n.delivery.Deliver(ctx, msg); err != nil {
			log.Errorw("[Notification] welcome delivery failed", "user_id", msg.UserID, "payment_id", msg.PaymentID, "error", err)
		}
	}()
	return nil
}
