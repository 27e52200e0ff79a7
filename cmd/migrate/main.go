package main

import (
	"flag"
	"log"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
)

func main() {
	rollback := flag.Bool("rollback", false, "Rollback migrations instead of applying them")
	steps := flag.Int("steps", 1, "Number of migrations to roll back")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("DATABASE_URL is not set and configuration failed to load: %v", err)
		}
		dsn = cfg.DatabaseURL()
	}

	if *rollback {
		if err := database.RollbackMigrations(dsn, *steps); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Printf("Rolled back %d migration(s)", *steps)
		return
	}

	if err := database.RunMigrations(dsn); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("All migrations applied successfully.")
}
