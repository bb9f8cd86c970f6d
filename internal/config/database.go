package config

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	driver := cfg.Database.Driver
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	if driver == DriverSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	// Create tables if they don't exist
	if err := CreateTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// CreateTables creates the necessary tables in the database.
// The statements are valid for both PostgreSQL and SQLite.
func CreateTables(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS parents (
			id VARCHAR(36) PRIMARY KEY,
			mobile_number VARCHAR(20) UNIQUE NOT NULL,
			national_id VARCHAR(10) NOT NULL,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,

		// One keyspace per parent, mirroring a browser's local storage.
		`CREATE TABLE IF NOT EXISTS documents (
			owner_id VARCHAR(36) NOT NULL,
			doc_key VARCHAR(128) NOT NULL,
			value TEXT NOT NULL,
			schema_version INTEGER NOT NULL DEFAULT 1,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (owner_id, doc_key)
		)`,

		`CREATE TABLE IF NOT EXISTS otp_codes (
			mobile_number VARCHAR(20) PRIMARY KEY,
			code_hash VARCHAR(255) NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			expires_at BIGINT NOT NULL,
			created_at BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			token_hash VARCHAR(64) PRIMARY KEY,
			parent_id VARCHAR(36) NOT NULL REFERENCES parents(id) ON DELETE CASCADE,
			expires_at BIGINT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_refresh_tokens_parent_id ON refresh_tokens(parent_id)",
		"CREATE INDEX IF NOT EXISTS idx_documents_owner_id ON documents(owner_id)",
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			// Indexes are not critical
			continue
		}
	}

	return nil
}
