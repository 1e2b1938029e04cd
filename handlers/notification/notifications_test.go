package notification

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/VisionVII/smeducacional-sub001/database/dbtest"
	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNotifications(t *testing.T) {
	svc := services.NewNotificationService(dbtest.Open(t))
	ctx := context.Background()

	for _, userID := range []string{"user-1", "user-1", "user-2"} {
		_, err := svc.CreateNotification(ctx, services.CreateNotificationRequest{
			UserID:   userID,
			Type:     model.NotificationTypeSuccess,
			Category: model.NotificationCategoryPurchase,
			Title:    "Compra confirmada",
		})
		require.NoError(t, err)
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	})
	app.Get("/notifications", NewNotificationHandler(svc).GetNotifications)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/notifications?unread_only=true", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Notifications []model.UserNotification `json:"notifications"`
			Count         int                      `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Data.Count)
	for _, n := range body.Data.Notifications {
		assert.Equal(t, "user-1", n.UserID)
	}
}
