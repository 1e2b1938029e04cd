package billing

import "context"

// WelcomeMessage is the post-purchase notification payload
type WelcomeMessage struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	CourseID    string `json:"course_id"`
	CourseTitle string `json:"course_title"`
	CourseURL   string `json:"course_url"`
	PaymentID   string `json:"payment_id"`
}

// WelcomeNotifier hands a purchase confirmation to the delivery layer.
// Implementations must not block on delivery.
type WelcomeNotifier interface {
	NotifyCoursePurchase(ctx context.Context, msg WelcomeMessage) error
}

// NoopNotifier discards notifications
type NoopNotifier struct{}

func (NoopNotifier) NotifyCoursePurchase(context.Context, WelcomeMessage) error { return nil }
