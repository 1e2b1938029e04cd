package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/VisionVII/smeducacional-sub001/utils/validation"
	"github.com/stripe/stripe-go/v81"
)

// EventType is the processor event tag this service dispatches on
type EventType string

const (
	EventCheckoutSessionCompleted    EventType = EventType(stripe.EventTypeCheckoutSessionCompleted)
	EventCustomerSubscriptionDeleted EventType = EventType(stripe.EventTypeCustomerSubscriptionDeleted)
)

// PurchaseKind is the closed set of values the "type" metadata key may carry
type PurchaseKind string

const (
	PurchaseCourse              PurchaseKind = "course"
	PurchaseStudentSubscription PurchaseKind = "student_subscription"
	PurchaseTeacherSubscription PurchaseKind = "teacher_subscription"
)

// IsSubscription reports whether the kind is one of the recurring plans
func (k PurchaseKind) IsSubscription() bool {
	return k == PurchaseStudentSubscription || k == PurchaseTeacherSubscription
}

var (
	// ErrMissingMetadata marks events whose metadata cannot drive any mutation.
	// Such events are acknowledged and marked processed; retrying cannot fix them.
	ErrMissingMetadata = errors.New("required webhook metadata missing")
	// ErrUnknownPurchaseKind marks a "type" metadata value outside PurchaseKind
	ErrUnknownPurchaseKind = errors.New("unknown purchase kind")
)

var metadataValidator = validation.NewValidator()

// CheckoutMetadata is the strict shape of checkout session metadata
type CheckoutMetadata struct {
	UserID   string       `validate:"required"`
	CourseID string       `validate:"required_if=Kind course"`
	Kind     PurchaseKind `validate:"required,oneof=course student_subscription teacher_subscription"`
}

// SubscriptionMetadata is the shape of subscription metadata. Kind is kept
// as received; only the plans in PurchaseKind drive mutations.
type SubscriptionMetadata struct {
	UserID string `validate:"required"`
	Kind   PurchaseKind
}

// metadataValue reads the first non-empty key, accepting camelCase and snake_case spellings
func metadataValue(metadata map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(metadata[key]); v != "" {
			return v
		}
	}
	return ""
}

// ParseCheckoutMetadata validates session metadata. A session without a type
// tag is a course purchase.
func ParseCheckoutMetadata(metadata map[string]string) (CheckoutMetadata, error) {
	parsed := CheckoutMetadata{
		UserID:   metadataValue(metadata, "userId", "user_id"),
		CourseID: metadataValue(metadata, "courseId", "course_id"),
		Kind:     PurchaseKind(metadataValue(metadata, "type")),
	}
	if parsed.Kind == "" {
		parsed.Kind = PurchaseCourse
	}

	if err := metadataValidator.ValidateStruct(parsed); err != nil {
		return parsed, metadataError(err)
	}
	return parsed, nil
}

// ParseSubscriptionMetadata requires the user id; the plan tag is optional
func ParseSubscriptionMetadata(metadata map[string]string) (SubscriptionMetadata, error) {
	parsed := SubscriptionMetadata{
		UserID: metadataValue(metadata, "userId", "user_id"),
		Kind:   PurchaseKind(metadataValue(metadata, "type")),
	}

	if err := metadataValidator.ValidateStruct(parsed); err != nil {
		return parsed, metadataError(err)
	}
	return parsed, nil
}

func metadataError(err error) error {
	fields := validation.FormatValidationErrors(err)
	if msg, ok := fields["kind"]; ok && !strings.Contains(msg, "required") {
		return fmt.Errorf("%w: %v", ErrUnknownPurchaseKind, fields)
	}
	return fmt.Errorf("%w: %v", ErrMissingMetadata, fields)
}

// decodeObject unmarshals the event's data.object into dst
func decodeObject(event stripe.Event, dst interface{}) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return fmt.Errorf("event %s has no data object", event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, dst); err != nil {
		return fmt.Errorf("decode %s object: %w", event.Type, err)
	}
	return nil
}
