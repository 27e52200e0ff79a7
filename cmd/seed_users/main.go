package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
)

// seedUsers are demo accounts; the admin account is promoted to staff.
var seedUsers = []service.Registration{
	{Email: "admin@example.com", Username: "admin", FirstName: "Admin", LastName: "User"},
	{Email: "vasya.pupkin@example.com", Username: "vasya.pupkin", FirstName: "Вася", LastName: "Пупкин"},
	{Email: "jane.smith@example.com", Username: "janesmith", FirstName: "Jane", LastName: "Smith"},
}

func main() {
	password := flag.String("password", "testpassword123", "Password for every seeded account")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	db, err := database.Open(cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(db, cfg.DatabaseURL()); err != nil {
		appLog.Fatal("Failed to migrate database", "error", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepo(db, appLog)
	auth := service.NewAuthService(users, service.NewMemoryTokenStore(), cfg.JWTSecret, cfg.TokenTTL, appLog)

	for i, reg := range seedUsers {
		reg.Password = *password
		user, err := auth.Register(ctx, reg)
		switch {
		case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUsernameTaken):
			appLog.Info("User already exists", "email", reg.Email)
			continue
		case err != nil:
			appLog.Fatal("Failed to create user", "email", reg.Email, "error", err)
		}

		if i == 0 {
			if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_staff", true).Error; err != nil {
				appLog.Fatal("Failed to promote admin", "error", err)
			}
		}
		appLog.Info("Created user", "email", user.Email, "staff", i == 0)
	}
}
