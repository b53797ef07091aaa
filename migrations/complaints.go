// Package migrations lists the schema history of the complaints store.
// Versions are append-only; never edit or reorder a released entry.
package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"hostel-backend/internal/database"
	"hostel-backend/internal/db"
)

// All is the complete, ordered migration list.
var All = []database.Migration{
	{Version: 1, Name: "create_complaints", Apply: createComplaints},
	{Version: 2, Name: "add_access_code", Apply: addColumn("access_code", "TEXT")},
	{Version: 3, Name: "add_address", Apply: addColumn("address", "TEXT")},
	{Version: 4, Name: "add_phone", Apply: addColumn("phone", "TEXT")},
	{Version: 5, Name: "add_video", Apply: addColumn("video", "TEXT")},
	{Version: 6, Name: "index_complaints", Apply: indexComplaints},
}

// createComplaints creates the oldest known shape of the table. Later
// columns arrive through their own migrations so old files and new files
// converge on the same schema.
func createComplaints(ctx context.Context, tx *sql.Tx, d db.Dialect) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS complaints (
			id %s,
			name TEXT,
			room TEXT,
			title TEXT,
			description TEXT,
			image TEXT,
			status TEXT DEFAULT 'open',
			created_at TEXT
		)`, d.PrimaryKey()))
	return err
}

func addColumn(column, definition string) func(context.Context, *sql.Tx, db.Dialect) error {
	return func(ctx context.Context, tx *sql.Tx, d db.Dialect) error {
		return database.AddColumnIfMissing(ctx, tx, d, "complaints", column, definition)
	}
}

// indexComplaints adds the lookup indexes. Older builds never enforced
// unique access codes, so blank codes and every repeat of a code after its
// oldest row are cleared first; those rows stay trackable by id.
func indexComplaints(ctx context.Context, tx *sql.Tx, _ db.Dialect) error {
	stmts := []string{
		`UPDATE complaints SET access_code = NULL WHERE access_code = ''`,
		`UPDATE complaints SET access_code = NULL
			WHERE access_code IS NOT NULL AND id NOT IN (
				SELECT MIN(id) FROM complaints WHERE access_code IS NOT NULL GROUP BY access_code
			)`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_created_at ON complaints (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints (status)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_complaints_access_code ON complaints (access_code)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
