package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a
// fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Active transaction ledger",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					user_id TEXT NOT NULL,
					segment TEXT NOT NULL,
					date DATETIME NOT NULL,
					name TEXT NOT NULL,
					merchant_name TEXT,
					description TEXT,
					category TEXT,
					account_id TEXT,
					amount REAL NOT NULL,
					is_expense INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_user_segment_date
					ON transactions(user_id, segment, date)`,
				`CREATE INDEX idx_transactions_hash ON transactions(hash)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Risk model store",
		Up: func(tx *sql.Tx) error {
			query := `CREATE TABLE IF NOT EXISTS risk_models (
				user_id TEXT NOT NULL,
				segment TEXT NOT NULL,
				artifact BLOB NOT NULL,
				trained_at DATETIME NOT NULL,
				sample_count INTEGER NOT NULL,
				contamination REAL NOT NULL,
				ensemble_size INTEGER NOT NULL,
				cluster_radius REAL NOT NULL,
				cluster_min_samples INTEGER NOT NULL,
				PRIMARY KEY (user_id, segment)
			)`
			if _, err := tx.Exec(query); err != nil {
				return fmt.Errorf("failed to create risk_models: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Quarantine store",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS quarantined_transactions (
					id TEXT PRIMARY KEY,
					transaction_id TEXT UNIQUE NOT NULL,
					user_id TEXT NOT NULL,
					segment TEXT NOT NULL,
					date DATETIME NOT NULL,
					name TEXT NOT NULL,
					category TEXT,
					account_id TEXT,
					description TEXT,
					amount REAL NOT NULL,
					is_expense INTEGER NOT NULL DEFAULT 0,
					score REAL NOT NULL,
					severity TEXT NOT NULL,
					reasons TEXT,
					status TEXT NOT NULL DEFAULT 'blocked',
					detected_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_quarantine_user_segment_detected
					ON quarantined_transactions(user_id, segment, detected_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate runs all pending migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if currentVersion >= ExpectedSchemaVersion {
		slog.Debug("Database schema is up to date", "version", currentVersion)
		return nil
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
