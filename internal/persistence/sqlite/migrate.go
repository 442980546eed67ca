package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrationStep is one versioned schema change applied inside a transaction.
type migrationStep struct {
	version    int
	name       string
	statements []string
}

var migrationSteps = []migrationStep{
	{
		version: 1,
		name:    "create users and sessions",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				display_name TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				is_admin INTEGER NOT NULL DEFAULT 0,
				disabled INTEGER NOT NULL DEFAULT 0,
				failed_attempts INTEGER NOT NULL DEFAULT 0,
				last_failed_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				token TEXT NOT NULL UNIQUE,
				fingerprint TEXT NOT NULL DEFAULT '',
				expires_at TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				revoked_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (user_id)`,
		},
	},
	{
		version: 2,
		name:    "create resource catalog",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS resources (
				id TEXT PRIMARY KEY,
				code TEXT NOT NULL,
				kind TEXT NOT NULL,
				capacity INTEGER NOT NULL CHECK (capacity > 0),
				attributes TEXT,
				state TEXT NOT NULL DEFAULT 'active',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_resources_kind_code ON resources (kind, code)`,
		},
	},
	{
		version: 3,
		name:    "create reservations",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS reservations (
				id TEXT PRIMARY KEY,
				resource_id TEXT NOT NULL REFERENCES resources(id),
				requester_id TEXT NOT NULL REFERENCES users(id),
				start_date TEXT NOT NULL,
				end_date TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				reason TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reservations_resource_status ON reservations (resource_id, status)`,
			`CREATE INDEX IF NOT EXISTS idx_reservations_window ON reservations (end_date, end_time)`,
		},
	},
}

// Migrate applies all pending schema versions, recording each applied
// version in schema_migrations.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to ensure schema_migrations: %w", err)
	}

	for _, step := range migrationSteps {
		applied, err := cp.migrationApplied(ctx, step.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, statement := range step.statements {
				if _, err := tx.Exec(statement); err != nil {
					return fmt.Errorf("migration %d (%s): %w", step.version, step.name, err)
				}
			}
			_, err := tx.Exec(
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, datetime('now'))`,
				step.version, step.name,
			)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (cp *ConnectionPool) migrationApplied(ctx context.Context, version int) (bool, error) {
	var count int
	err := cp.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	return count > 0, nil
}
