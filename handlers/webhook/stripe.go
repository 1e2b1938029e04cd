package webhook

import (
	"context"

	"github.com/VisionVII/smeducacional-sub001/services/billing"
	"github.com/gofiber/fiber/v2"
)

// WebhookProcessor is implemented by billing.WebhookService
type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) billing.WebhookResult
}

// StripeWebhookHandler receives payment processor deliveries
type StripeWebhookHandler struct {
	processor WebhookProcessor
}

// NewStripeWebhookHandler creates a new webhook handler
func NewStripeWebhookHandler(processor WebhookProcessor) *StripeWebhookHandler {
	return &StripeWebhookHandler{processor: processor}
}

// HandleStripe handles POST /api/v1/webhooks/stripe
// The body is passed through untouched; the signature covers the exact bytes.
func (h *StripeWebhookHandler) HandleStripe(c *fiber.Ctx) error {
	// fasthttp reuses the request buffer once the handler returns
	payload := append([]byte(nil), c.Body()...)

	result := h.processor.HandleWebhook(c.UserContext(), payload, c.Get("Stripe-Signature"))
	return c.Status(result.Status).JSON(result.Body)
}
