package handlers

import (
	"github.com/VisionVII/smeducacional-sub001/database"
	"github.com/VisionVII/smeducacional-sub001/utils/response"
	"github.com/gofiber/fiber/v2"
)

func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Database unavailable")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
