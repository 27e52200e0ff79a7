package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	path := flag.String("file", "data/ingredients.csv", "CSV file with name,measurement_unit rows")
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

	f, err := os.Open(*path)
	if err != nil {
		appLog.Fatal("Failed to open ingredient file", "path", *path, "error", err)
	}
	defer f.Close()

	rows, err := service.ReadIngredientsCSV(f)
	if err != nil {
		appLog.Fatal("Failed to parse ingredient file", "path", *path, "error", err)
	}

	catalog := service.NewCatalogService(repository.NewTagRepo(db, appLog), repository.NewIngredientRepo(db, appLog), appLog)
	created, err := catalog.ImportIngredients(context.Background(), rows)
	if err != nil {
		appLog.Fatal("Ingredient import failed", "error", err)
	}
	appLog.Info("Ingredient import finished", "read", len(rows), "created", created)
}
