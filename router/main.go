package router

import (
	"os"
	"time"

	"github.com/VisionVII/smeducacional-sub001/config"
	"github.com/VisionVII/smeducacional-sub001/database"
	"github.com/VisionVII/smeducacional-sub001/handlers"
	admin_handlers "github.com/VisionVII/smeducacional-sub001/handlers/admin"
	checkout_handlers "github.com/VisionVII/smeducacional-sub001/handlers/checkout"
	financial_handlers "github.com/VisionVII/smeducacional-sub001/handlers/financial"
	notification_handlers "github.com/VisionVII/smeducacional-sub001/handlers/notification"
	webhook_handlers "github.com/VisionVII/smeducacional-sub001/handlers/webhook"
	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/repository"
	"github.com/VisionVII/smeducacional-sub001/services"
	"github.com/VisionVII/smeducacional-sub001/services/billing"
	"github.com/VisionVII/smeducacional-sub001/utils"
	"github.com/VisionVII/smeducacional-sub001/utils/auth"
	"github.com/VisionVII/smeducacional-sub001/utils/middleware"
	"github.com/gofiber/fiber/v2"
)

// Services are the long-lived components behind the HTTP routes
type Services struct {
	Store         database.Storage
	JWTManager    *auth.JWTManager
	Webhooks      *billing.WebhookService
	Checkout      *billing.CheckoutService
	Stats         *billing.StatsService
	Notifications *services.NotificationService
}

func SetupRoutes(app *fiber.App, svc Services) {
	db := svc.Store.DB()

	// Initialize auth middleware with DB for token version checks
	authMiddleware := middleware.NewAuthMiddleware(svc.JWTManager, db)

	webhookHandler := webhook_handlers.NewStripeWebhookHandler(svc.Webhooks)
	checkoutHandler := checkout_handlers.NewCheckoutHandler(svc.Checkout)
	statsHandler := financial_handlers.NewStatsHandler(svc.Stats)
	adminHandler := admin_handlers.NewAdminHandler(repository.New(db), svc.Checkout)
	notificationHandler := notification_handlers.NewNotificationHandler(svc.Notifications)

	// Setup security middleware (CORS, rate limiting, security headers, etc.)
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = config.AppURL()
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, svc.Store))

	api := app.Group("/api/v1")

	// ========================================
	// Webhook routes (signature authenticated)
	// ========================================
	webhooks := api.Group("/webhooks")
	webhooks.Post("/stripe", webhookHandler.HandleStripe)

	// ========================================
	// Checkout & subscription routes
	// ========================================
	checkout := api.Group("/checkout", authMiddleware.Required())
	checkout.Post("/courses/:id", authMiddleware.RequireRole(model.RoleStudent), checkoutHandler.CreateCourseCheckout) // Student: buy a course
	checkout.Post("/subscriptions", checkoutHandler.CreateSubscriptionCheckout)                                        // Protected: subscribe to a plan

	subscriptions := api.Group("/subscriptions", authMiddleware.Required())
	subscriptions.Post("/:id/cancel", checkoutHandler.CancelSubscription) // Owner: request cancellation

	// ========================================
	// Financial dashboard
	// ========================================
	financial := api.Group("/financial", authMiddleware.Required(), authMiddleware.RequireRole(model.RoleTeacher, model.RoleAdmin))
	financial.Get("/stats", statsHandler.GetFinancialStats)

	// ========================================
	// Notification routes
	// ========================================
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.GetNotifications)

	// ========================================
	// Admin routes
	// ========================================
	admin := api.Group("/admin", authMiddleware.Required(), authMiddleware.RequireAdmin())
	admin.Get("/audit", adminHandler.ListAuditLogs)
	admin.Get("/audit/:id", adminHandler.GetAuditLog)
	admin.Post("/payments/:id/refund", adminHandler.RefundPayment)
}
