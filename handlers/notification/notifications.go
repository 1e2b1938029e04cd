package notification

import (
	"strconv"

	"github.com/VisionVII/smeducacional-sub001/services"
	"github.com/VisionVII/smeducacional-sub001/utils/middleware"
	"github.com/VisionVII/smeducacional-sub001/utils/response"
	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles notification-related API endpoints
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GetNotifications handles GET /api/v1/notifications
// Returns the authenticated user's notifications, newest first
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	unreadOnly := c.Query("unread_only") == "true"
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	notifications, err := h.notificationService.ListNotifications(c.UserContext(), userID, unreadOnly, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch notifications")
	}

	return response.Success(c, fiber.Map{
		"notifications": notifications,
		"count":         len(notifications),
	})
}
