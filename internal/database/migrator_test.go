package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"hostel-backend/internal/config"
	"hostel-backend/internal/db"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Connect(context.Background(), config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func execMigration(version int, name, stmt string) Migration {
	return Migration{Version: version, Name: name, Apply: func(ctx context.Context, tx *sql.Tx, _ db.Dialect) error {
		_, err := tx.ExecContext(ctx, stmt)
		return err
	}}
}

func TestValidateMigrations(t *testing.T) {
	noop := func(context.Context, *sql.Tx, db.Dialect) error { return nil }

	tests := []struct {
		name    string
		list    []Migration
		wantErr bool
	}{
		{name: "empty", list: nil},
		{name: "ordered", list: []Migration{{1, "a", noop}, {2, "b", noop}, {5, "c", noop}}},
		{name: "duplicate", list: []Migration{{1, "a", noop}, {1, "b", noop}}, wantErr: true},
		{name: "descending", list: []Migration{{2, "a", noop}, {1, "b", noop}}, wantErr: true},
		{name: "zero version", list: []Migration{{0, "a", noop}}, wantErr: true},
		{name: "nil apply", list: []Migration{{1, "a", nil}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateMigrations(tt.list)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunMigrations_FailureRollsBack(t *testing.T) {
	d := openDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	list := []Migration{
		execMigration(1, "create_t", `CREATE TABLE t (id INTEGER)`),
		{Version: 2, Name: "half_done", Apply: func(ctx context.Context, tx *sql.Tx, _ db.Dialect) error {
			if _, err := tx.ExecContext(ctx, `CREATE TABLE u (id INTEGER)`); err != nil {
				return err
			}
			return boom
		}},
	}

	ran, err := NewMigrator(d, list, zerolog.Nop()).RunMigrations(ctx)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1}, ran)

	applied, err := NewMigrator(d, list, zerolog.Nop()).Applied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, 1, applied[0].Version)

	var n int
	require.NoError(t, d.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE name = 'u'`).Scan(&n))
	assert.Zero(t, n)
}

func TestAddColumnIfMissing(t *testing.T) {
	d := openDB(t)
	ctx := context.Background()
	_, err := d.ExecContext(ctx, `CREATE TABLE t (id INTEGER)`)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		tx, err := d.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, AddColumnIfMissing(ctx, tx, d.Dialect, "t", "note", "TEXT"))
		require.NoError(t, tx.Commit())
	}

	ok, err := d.Dialect.ColumnExists(ctx, d, "t", "note")
	require.NoError(t, err)
	assert.True(t, ok)
}
