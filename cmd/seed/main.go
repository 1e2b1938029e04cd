package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/VisionVII/smeducacional-sub001/config"
	"github.com/VisionVII/smeducacional-sub001/database"
	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/utils/auth"
)

func main() {
	// Load environment variables
	if err := config.LoadENV(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	getEnv, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	// Initialize database connection using GORM
	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Run seeds
	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("SM Educacional - Database Seeding")
	fmt.Println(separator)
	fmt.Println()

	result, err := database.NewSeeder(store.DB()).SeedAll()
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	fmt.Println()
	fmt.Println(separator)
	fmt.Println("🎉 Seeding completed successfully!")
	fmt.Println(separator)
	fmt.Println()
	fmt.Printf("Demo course: %s (id %s, price %.2f)\n", result.Course.Title, result.Course.ID, result.Course.Price)
	fmt.Println()

	if getEnv.JWT_SECRET == "" {
		fmt.Println("JWT_SECRET is not set, skipping development tokens.")
		return
	}

	// Development tokens; production tokens come from the identity provider
	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: getEnv.JWT_SECRET,
		Expiry: 24 * time.Hour,
		Issuer: getEnv.JWT_ISSUER,
	})
	for _, user := range []*model.User{result.Admin, result.Teacher, result.Student} {
		token, err := jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
		if err != nil {
			log.Fatalf("Failed to issue token for %s: %v", user.Email, err)
		}
		fmt.Printf("%-8s %s\n         %s\n", user.Role, user.Email, token)
	}
}
