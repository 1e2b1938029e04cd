package admin

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/VisionVII/smeducacional-sub001/config"
	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/repository"
	"github.com/VisionVII/smeducacional-sub001/services/billing"
	"github.com/VisionVII/smeducacional-sub001/utils/middleware"
	"github.com/VisionVII/smeducacional-sub001/utils/response"
	"github.com/VisionVII/smeducacional-sub001/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Refunder is implemented by billing.CheckoutService
type Refunder interface {
	RefundPayment(ctx context.Context, adminID, paymentID string) (*model.Payment, error)
}

// AdminHandler serves the audit trail and payment operations
type AdminHandler struct {
	repos    *repository.Repositories
	refunder Refunder
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(repos *repository.Repositories, refunder Refunder) *AdminHandler {
	return &AdminHandler{repos: repos, refunder: refunder}
}

// ListAuditLogs retrieves audit entries with pagination
// GET /api/v1/admin/audit
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := repository.AuditFilter{
		Action:   model.AuditAction(validation.SanitizeString(c.Query("action"))),
		UserID:   validation.SanitizeString(c.Query("user_id")),
		TargetID: validation.SanitizeString(c.Query("target_id")),
		Page:     page,
		PageSize: limit,
	}
	if since := c.Query("since"); since != "" {
		parsed, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return response.BadRequest(c, "since must be an RFC3339 timestamp")
		}
		filter.Since = parsed
	}

	entries, total, err := h.repos.AuditLogs.List(c.UserContext(), filter)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.Paginated(c, entries, response.CalculatePagination(page, limit, total))
}

// GetAuditLog retrieves a specific audit entry
// GET /api/v1/admin/audit/:id
func (h *AdminHandler) GetAuditLog(c *fiber.Ctx) error {
	entry, err := h.repos.AuditLogs.FindByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "Audit log not found")
		}
		return response.InternalServerError(c, "Failed to fetch audit log")
	}

	return response.SuccessWithMessage(c, "Audit log retrieved successfully", entry)
}

// RefundPayment refunds a completed payment
// POST /api/v1/admin/payments/:id/refund
func (h *AdminHandler) RefundPayment(c *fiber.Ctx) error {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	payment, err := h.refunder.RefundPayment(c.UserContext(), adminID, c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.Is(err, billing.ErrPaymentNotRefundable):
			return response.Conflict(c, "Only completed payments can be refunded")
		case errors.Is(err, config.ErrMissingSecretKey):
			return response.ServiceUnavailable(c, "Payments are not configured")
		}
		log.Errorw("[Admin] refund failed", "payment_id", c.Params("id"), "error", err)
		return response.PaymentProviderError(c, "Failed to refund payment")
	}

	return response.SuccessWithMessage(c, "Payment refunded", payment)
}
