package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hostel-backend/internal/db"

	"github.com/rs/zerolog"
)

// Migration is one versioned schema step.
//
// Apply must be safe to run against a database where the change is already
// partly or fully present, because databases created by older builds were
// upgraded in place without a version table.
type Migration struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, tx *sql.Tx, d db.Dialect) error
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt string
}

// Migrator handles database schema migrations
type Migrator struct {
	db         *db.DB
	migrations []Migration
	log        zerolog.Logger
}

// NewMigrator creates a new migration runner for an ordered migration list
//
// Parameters:
//   - database: Open database handle
//   - migrations: Migrations in ascending version order
//   - log: Logger for progress output
//
// Returns:
//   - *Migrator: New migrator instance
func NewMigrator(database *db.DB, migrations []Migration, log zerolog.Logger) *Migrator {
	return &Migrator{
		db:         database,
		migrations: migrations,
		log:        log.With().Str("component", "migrator").Logger(),
	}
}

// RunMigrations executes all pending database migrations
//
// This function:
//  1. Validates that versions are unique and ascending
//  2. Creates the schema_migrations tracking table if it doesn't exist
//  3. Skips migrations that have already been recorded
//  4. Applies each new migration in its own transaction and records it there
//
// Returns:
//   - []int: Versions applied by this call
//   - error: If any migration fails
func (m *Migrator) RunMigrations(ctx context.Context) ([]int, error) {
	if err := validateMigrations(m.migrations); err != nil {
		return nil, err
	}

	m.log.Info().Msg("starting database migrations")

	if err := m.createMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.getAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	var ran []int
	for _, mig := range m.migrations {
		if applied[mig.Version] {
			m.log.Debug().Int("version", mig.Version).Str("name", mig.Name).Msg("already applied")
			continue
		}

		m.log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("applying migration")
		if err := m.apply(ctx, mig); err != nil {
			return ran, fmt.Errorf("failed to run migration %03d_%s: %w", mig.Version, mig.Name, err)
		}
		ran = append(ran, mig.Version)
	}

	if len(ran) > 0 {
		m.log.Info().Int("count", len(ran)).Msg("migrations applied")
	} else {
		m.log.Info().Msg("all migrations already applied, database is up to date")
	}
	return ran, nil
}

// Applied lists recorded migrations in version order.
func (m *Migrator) Applied(ctx context.Context) ([]AppliedMigration, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, `SELECT version, name, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []AppliedMigration
	for rows.Next() {
		var a AppliedMigration
		if err := rows.Scan(&a.Version, &a.Name, &a.AppliedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := mig.Apply(ctx, tx, m.db.Dialect); err != nil {
		return err
	}
	if err := m.recordMigration(ctx, tx, mig); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return tx.Commit()
}

// createMigrationsTable creates the schema_migrations table if it doesn't exist
//
// Schema:
//   - version: Migration version (primary key)
//   - name: Migration name
//   - applied_at: UTC timestamp when the migration was applied
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`

	_, err := m.db.ExecContext(ctx, query)
	return err
}

func (m *Migrator) getAppliedVersions(ctx context.Context) (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}

	return applied, rows.Err()
}

func (m *Migrator) recordMigration(ctx context.Context, tx *sql.Tx, mig Migration) error {
	query := m.db.Dialect.Rebind(`
		INSERT INTO schema_migrations (version, name, applied_at)
		VALUES (?, ?, ?)
		ON CONFLICT (version) DO NOTHING
	`)

	_, err := tx.ExecContext(ctx, query, mig.Version, mig.Name, time.Now().UTC().Format(time.RFC3339))
	return err
}

func validateMigrations(list []Migration) error {
	prev := 0
	for _, mig := range list {
		if mig.Apply == nil {
			return fmt.Errorf("migration %d (%s) has no Apply func", mig.Version, mig.Name)
		}
		if mig.Version <= prev {
			return fmt.Errorf("migration %d (%s) is out of order or duplicated", mig.Version, mig.Name)
		}
		prev = mig.Version
	}
	return nil
}

// AddColumnIfMissing appends a column unless an earlier build already added it.
func AddColumnIfMissing(ctx context.Context, tx *sql.Tx, d db.Dialect, table, column, definition string) error {
	exists, err := d.ColumnExists(ctx, tx, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
