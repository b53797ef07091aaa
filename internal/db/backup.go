package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"hostel-backend/internal/config"
)

var ErrBackupUnsupported = errors.New("online backup is only supported for sqlite; use pg_dump for postgres")

// BackupTo writes a consistent copy of a sqlite database to dest using
// VACUUM INTO. dest must not exist yet.
func (d *DB) BackupTo(ctx context.Context, dest string) error {
	if d.Dialect.Name != config.DriverSQLite {
		return ErrBackupUnsupported
	}
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("backup target %s already exists", dest)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	if _, err := d.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	return nil
}
