// Package db provides PostgreSQL persistence for the tracker: altitude
// estimate history and user accounts.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/ben-berube/plane-tracker/pkg/config"
)

//go:embed schema.sql
var schemaSQL embed.FS

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// Connect establishes a connection to the PostgreSQL database.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB, config: cfg}, nil
}

// InitSchema creates or updates the database schema.
// This should be called once at application startup.
func (db *DB) InitSchema(ctx context.Context) error {
	schemaBytes, err := schemaSQL.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// CleanupOldEstimates deletes estimate history older than maxAge.
// Should be called periodically to prevent unbounded growth.
func (db *DB) CleanupOldEstimates(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge)

	if _, err := db.ExecContext(ctx,
		`DELETE FROM altitude_estimates WHERE estimated_at < $1`,
		cutoff,
	); err != nil {
		return fmt.Errorf("failed to delete old estimates: %w", err)
	}

	return nil
}

// GetStats returns database statistics.
func (db *DB) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var estimateCount int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM altitude_estimates`,
	).Scan(&estimateCount)
	if err != nil {
		return nil, err
	}
	stats["estimate_records"] = estimateCount

	var trackedCount int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT icao24) FROM altitude_estimates`,
	).Scan(&trackedCount)
	if err != nil {
		return nil, err
	}
	stats["tracked_aircraft"] = trackedCount

	var userCount int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users`,
	).Scan(&userCount)
	if err != nil {
		return nil, err
	}
	stats["users"] = userCount

	return stats, nil
}
