package main

import (
	"flag"
	"os"

	"github.com/Capstone-E1/aquahealth_backend/config"
	"github.com/Capstone-E1/aquahealth_backend/internal/database"
	"github.com/Capstone-E1/aquahealth_backend/internal/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	var (
		drop   = flag.Bool("drop", false, "Drop all tables before creating")
		create = flag.Bool("create", true, "Create tables")
		check  = flag.Bool("check", false, "Check if tables exist")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, "console", "aquahealth-migrate")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.Database.URL == "" && cfg.Database.Host == "" {
		log.Error("Database not configured. Set DATABASE_URL or DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME and DB_SSLMODE")
		os.Exit(1)
	}

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if *drop {
		if err := database.DropTables(db.DB, log); err != nil {
			log.Fatal("Failed to drop tables", zap.Error(err))
		}
	}

	if *create {
		if err := database.CreateTables(db.DB, log); err != nil {
			log.Fatal("Failed to create tables", zap.Error(err))
		}
	}

	if *check {
		if err := database.CheckTablesExist(db.DB); err != nil {
			log.Fatal("Table check failed", zap.Error(err))
		}
		log.Info("All required tables exist")
	}

	log.Info("Database migration completed successfully")
}
