package financial

import (
	"strconv"

	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/services/billing"
	"github.com/VisionVII/smeducacional-sub001/utils/middleware"
	"github.com/VisionVII/smeducacional-sub001/utils/response"
	"github.com/VisionVII/smeducacional-sub001/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// StatsHandler serves the financial dashboard rollups
type StatsHandler struct {
	stats *billing.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats *billing.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GetFinancialStats handles GET /api/v1/financial/stats
// Teachers always see their own numbers; admins see the platform or pass instructor_id.
func (h *StatsHandler) GetFinancialStats(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	role, _ := middleware.GetUserRole(c)

	windowDays := billing.DefaultStatsWindowDays
	if raw := c.Query("window_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			return response.BadRequest(c, "window_days must be a positive integer")
		}
		windowDays = days
	}

	instructorID := validation.SanitizeString(c.Query("instructor_id"))
	switch role {
	case model.RoleAdmin:
	case model.RoleTeacher:
		if instructorID != "" && instructorID != userID {
			return response.Forbidden(c, "Teachers can only view their own stats")
		}
		instructorID = userID
	default:
		return response.Forbidden(c, "Insufficient permissions")
	}

	stats, err := h.stats.FinancialStats(c.UserContext(), billing.StatsQuery{
		InstructorID: instructorID,
		WindowDays:   windowDays,
	})
	if err != nil {
		log.Errorw("[Stats] failed to compute financial stats", "instructor_id", instructorID, "error", err)
		return response.InternalServerError(c, "Failed to compute financial stats")
	}

	return response.Success(c, stats)
}
