package database

import (
	"database/sql"
	"fmt"

	"github.com/Capstone-E1/aquahealth_backend/config"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// DB holds the database connection
type DB struct {
	*sql.DB
}

// Connect establishes connection to PostgreSQL database
func Connect(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	var connStr string

	// DATABASE_URL (e.g. from a hosting provider) wins over the individual settings
	if cfg.URL != "" {
		logger.Info("Using DATABASE_URL from environment")
		connStr = cfg.URL
	} else {
		connStr = BuildConnectionString(cfg)
		logger.Info("Connecting to database",
			zap.String("host", cfg.Host),
			zap.String("port", cfg.Port),
			zap.String("dbname", cfg.DBName))
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)

	logger.Info("Successfully connected to PostgreSQL database")

	return &DB{db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}

// BuildConnectionString builds a PostgreSQL connection string
func BuildConnectionString(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}
