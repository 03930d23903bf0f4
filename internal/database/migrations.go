package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// CreateTables creates the documents table backing every collection
func CreateTables(db *sql.DB, logger *zap.Logger) error {
	logger.Info("Creating database tables...")

	// Every entity collection lives in one table; body holds the entity's JSON form
	documentsTable := `
	CREATE TABLE IF NOT EXISTS documents (
		seq BIGSERIAL,
		collection VARCHAR(100) NOT NULL,
		id VARCHAR(100) NOT NULL,
		body JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (collection, id)
	);`

	if _, err := db.Exec(documentsTable); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_documents_collection_seq ON documents(collection, seq);",
		"CREATE INDEX IF NOT EXISTS idx_documents_body ON documents USING GIN (body);",
		"CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(collection, (body->>'name') COLLATE \"C\");",
		"CREATE INDEX IF NOT EXISTS idx_documents_timestamp ON documents(collection, (body->>'timestamp'));",
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			logger.Warn("Failed to create index", zap.String("sql", indexSQL), zap.Error(err))
		}
	}

	logger.Info("Database tables created successfully")
	return nil
}

// DropTables drops all tables (useful for testing)
func DropTables(db *sql.DB, logger *zap.Logger) error {
	logger.Info("Dropping database tables...")

	for _, table := range requiredTables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	logger.Info("Database tables dropped successfully")
	return nil
}

var requiredTables = []string{"documents"}

// CheckTablesExist checks if all required tables exist
func CheckTablesExist(db *sql.DB) error {
	for _, table := range requiredTables {
		var exists bool
		query := `SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		);`

		if err := db.QueryRow(query, table).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}

		if !exists {
			return fmt.Errorf("table %s does not exist", table)
		}
	}

	return nil
}
