// Command migrate creates the application tables (GORM AutoMigrate) and the
// job queue tables (river migrations) on the configured database.
package main

import (
	"context"
	"log"

	"github.com/VisionVII/smeducacional-sub001/config"
	"github.com/VisionVII/smeducacional-sub001/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

func main() {
	log.Println("=== Database Migration ===")

	// Load environment variables
	if err := config.LoadENV(); err != nil {
		log.Fatal("Failed to load environment variables:", err)
	}
	getEnv, err := config.Get()
	if err != nil {
		log.Fatal("Failed to read configuration:", err)
	}

	// Initialize GORM connection
	store, err := database.StartGORM()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	// Run migrations
	if err := store.Init(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Health check
	if err := store.HealthCheck(); err != nil {
		log.Fatal("Database health check failed:", err)
	}
	log.Println("✅ Application tables migrated")

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, getEnv.DSN())
	if err != nil {
		log.Fatal("Failed to open queue pool:", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		log.Fatal("Failed to create queue migrator:", err)
	}
	result, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		log.Fatal("Failed to migrate queue tables:", err)
	}
	for _, version := range result.Versions {
		log.Printf("  applied river migration %03d (%s)", version.Version, version.Name)
	}

	log.Println("✅ All migrations completed successfully!")
}
