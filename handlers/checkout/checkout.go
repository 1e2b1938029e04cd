package checkout

import (
	"context"
	"errors"

	"github.com/VisionVII/smeducacional-sub001/config"
	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/services/billing"
	"github.com/VisionVII/smeducacional-sub001/utils/middleware"
	"github.com/VisionVII/smeducacional-sub001/utils/response"
	"github.com/VisionVII/smeducacional-sub001/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// CheckoutService is the part of billing.CheckoutService used by these endpoints
type CheckoutService interface {
	OpenCourseCheckout(ctx context.Context, userID, courseID string) (*billing.CheckoutResult, error)
	OpenSubscriptionCheckout(ctx context.Context, userID string, kind billing.PurchaseKind) (*billing.CheckoutResult, error)
	CancelSubscription(ctx context.Context, userID, subscriptionID string) error
}

// CheckoutHandler handles checkout and subscription requests
type CheckoutHandler struct {
	service   CheckoutService
	validator *validation.Validator
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(service CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

// SubscriptionCheckoutRequest represents the request body for a plan checkout
type SubscriptionCheckoutRequest struct {
	Type string `json:"type" validate:"required,oneof=student_subscription teacher_subscription"`
}

// CreateCourseCheckout handles POST /api/v1/checkout/courses/:id
func (h *CheckoutHandler) CreateCourseCheckout(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID := validation.SanitizeString(c.Params("id"))
	if courseID == "" {
		return response.BadRequest(c, "Invalid course ID")
	}

	result, err := h.service.OpenCourseCheckout(c.UserContext(), userID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrCourseNotFound):
			return response.NotFound(c, "Course not found")
		case errors.Is(err, billing.ErrUserNotFound):
			return response.Unauthorized(c, "User not found")
		case errors.Is(err, billing.ErrAlreadyEnrolled):
			return response.Conflict(c, "Already enrolled in this course")
		case errors.Is(err, billing.ErrCourseNotPurchasable):
			return response.BadRequest(c, "Course is not available for purchase")
		}
		return gatewayError(c, "Failed to open checkout", err)
	}

	return response.Created(c, result)
}

// CreateSubscriptionCheckout handles POST /api/v1/checkout/subscriptions
func (h *CheckoutHandler) CreateSubscriptionCheckout(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req SubscriptionCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Type = validation.SanitizeString(req.Type)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	kind := billing.PurchaseKind(req.Type)
	role, _ := middleware.GetUserRole(c)
	if kind == billing.PurchaseTeacherSubscription && role != model.RoleTeacher {
		return response.Forbidden(c, "Only teachers can subscribe to the teacher plan")
	}

	result, err := h.service.OpenSubscriptionCheckout(c.UserContext(), userID, kind)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrUserNotFound):
			return response.Unauthorized(c, "User not found")
		case errors.Is(err, billing.ErrPlanNotConfigured):
			return response.ServiceUnavailable(c, "Subscription plan is not available")
		}
		return gatewayError(c, "Failed to open checkout", err)
	}

	return response.Created(c, result)
}

// CancelSubscription handles POST /api/v1/subscriptions/:id/cancel
// The subscription stays active until the processor confirms the cancellation.
func (h *CheckoutHandler) CancelSubscription(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	subscriptionID := validation.SanitizeString(c.Params("id"))
	if err := h.service.CancelSubscription(c.UserContext(), userID, subscriptionID); err != nil {
		if errors.Is(err, billing.ErrSubscriptionNotOwned) {
			return response.NotFound(c, "Subscription not found")
		}
		return gatewayError(c, "Failed to cancel subscription", err)
	}

	return response.SuccessWithMessage(c, "Cancellation requested", fiber.Map{
		"subscription_id": subscriptionID,
	})
}

// gatewayError maps processor failures; a missing API key is a deployment problem
func gatewayError(c *fiber.Ctx, message string, err error) error {
	if errors.Is(err, config.ErrMissingSecretKey) {
		log.Errorw("[Checkout] payment processor not configured", "error", err)
		return response.ServiceUnavailable(c, "Payments are not configured")
	}
	log.Errorw("[Checkout] "+message, "error", err)
	return response.PaymentProviderError(c, message)
}
