package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VisionVII/smeducacional-sub001/api"
	"github.com/VisionVII/smeducacional-sub001/config"
	"github.com/VisionVII/smeducacional-sub001/database"
	"github.com/VisionVII/smeducacional-sub001/repository"
	"github.com/VisionVII/smeducacional-sub001/router"
	"github.com/VisionVII/smeducacional-sub001/services"
	"github.com/VisionVII/smeducacional-sub001/services/billing"
	"github.com/VisionVII/smeducacional-sub001/services/cron"
	"github.com/VisionVII/smeducacional-sub001/services/queue"
	"github.com/VisionVII/smeducacional-sub001/services/storage"
	"github.com/VisionVII/smeducacional-sub001/services/stripeclient"
	"github.com/VisionVII/smeducacional-sub001/utils/auth"
	"github.com/VisionVII/smeducacional-sub001/utils/cache"
	"github.com/gofiber/fiber/v2/log"
)

func SetupAndRunServer() error {
	ctx := context.Background()

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	if getEnv.JWT_SECRET == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}
	if _, err := config.StripeWebhookSecret(); err != nil {
		// webhooks answer 500 until the secret is configured
		log.Warnw("[Setup] webhook signature verification unavailable", "error", err)
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	db := store.DB()
	repos := repository.New(db)

	// Redis backs the in-flight webhook lock and the stats cache; both are optional
	var redisCache *cache.RedisCache
	if getEnv.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(getEnv.REDIS_URL, cache.WithKeyPrefix("smeducacional:"))
		if err != nil {
			log.Warnw("[Setup] Redis unavailable, webhook lock and stats cache disabled", "error", err)
			redisCache = nil
		}
	}

	notificationService := services.NewNotificationService(db)
	delivery := services.NewWelcomeDelivery(services.NewEmailService(), notificationService)

	// Welcome notifications go through the job queue when it is enabled
	var notifier billing.WelcomeNotifier = services.NewAsyncWelcomeNotifier(delivery)
	var jobQueue *queue.Queue
	if getEnv.RIVER_ENABLED {
		jobQueue, err = queue.New(ctx, queue.Config{DSN: getEnv.DSN(), MaxWorkers: getEnv.RIVER_WORKER_COUNT}, delivery)
		if err != nil {
			return err
		}
		if err := jobQueue.Start(ctx); err != nil {
			return err
		}
		notifier = jobQueue.Notifier()
	}

	stripeClient := stripeclient.New()

	var webhookOpts []billing.WebhookOption
	var statsCache billing.StatsCache
	if redisCache != nil {
		webhookOpts = append(webhookOpts, billing.WithEventLocker(redisCache))
		statsCache = redisCache
	}
	if getEnv.SPACES_BUCKET != "" {
		archive, err := storage.NewSpacesArchive(storage.SpacesConfig{
			AccessKey: getEnv.SPACES_ACCESS_KEY,
			SecretKey: getEnv.SPACES_SECRET_KEY,
			Bucket:    getEnv.SPACES_BUCKET,
			Region:    getEnv.SPACES_REGION,
			Endpoint:  getEnv.SPACES_ENDPOINT,
		})
		if err != nil {
			log.Warnw("[Setup] webhook archive disabled", "error", err)
		} else {
			webhookOpts = append(webhookOpts, billing.WithEventArchiver(archive))
		}
	}

	webhookService := billing.NewWebhookService(repos, stripeClient, notifier, webhookOpts...)
	checkoutService := billing.NewCheckoutService(repos, stripeClient)
	statsService := billing.NewStatsService(db, statsCache)

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		cronManager = cron.NewCronManager(db, checkoutService, notificationService, cron.Options{
			EventRetention: time.Duration(getEnv.WEBHOOK_EVENT_RETENTION_DAYS) * 24 * time.Hour,
		})
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warnw("[Setup] failed to start cron jobs", "error", err)
			cronManager = nil
		}
	}

	// Defer closing DB and stopping background work
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if jobQueue != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := jobQueue.Stop(stopCtx); err != nil {
				log.Warnw("[Setup] job queue did not stop cleanly", "error", err)
			}
			cancel()
		}
		if redisCache != nil {
			redisCache.Close()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes
	router.SetupRoutes(app, router.Services{
		Store: store,
		JWTManager: auth.NewJWTManager(auth.JWTConfig{
			Secret: getEnv.JWT_SECRET,
			Issuer: getEnv.JWT_ISSUER,
		}),
		Webhooks:      webhookService,
		Checkout:      checkoutService,
		Stats:         statsService,
		Notifications: notificationService,
	})

	// Stop accepting requests on SIGINT/SIGTERM so deferred cleanup runs
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("[Setup] shutting down")
		if err := server.Shutdown(); err != nil {
			log.Errorw("[Setup] shutdown failed", "error", err)
		}
	}()

	// Get the PORT & Start the Server
	return server.Run()
}
