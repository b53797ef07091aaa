package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hostel-backend/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DB is a database/sql pool bound to the dialect of the driver that opened it.
type DB struct {
	*sql.DB
	Dialect Dialect
	dsn     string
}

// Connect opens and pings the configured database.
//
// sqlite DSNs are plain file paths; the parent directory is created and the
// connection is opened in WAL mode with a busy timeout so concurrent request
// handlers queue instead of failing. postgres DSNs are passed to pgx as is.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if dialect.Name == config.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(sqlitePath(dsn)), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = sqliteDSN(dsn)
	}

	sqlDB, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}

	return &DB{DB: sqlDB, Dialect: dialect, dsn: cfg.DSN}, nil
}

func (d *DB) Driver() string { return d.Dialect.Name }

// FilePath returns the database file for sqlite and "" for server databases.
func (d *DB) FilePath() string {
	if d.Dialect.Name != config.DriverSQLite {
		return ""
	}
	return sqlitePath(d.dsn)
}

// Location describes where the data lives without leaking credentials.
func (d *DB) Location() string {
	if p := d.FilePath(); p != "" {
		return p
	}
	u, err := url.Parse(d.dsn)
	if err != nil || u.Host == "" {
		return d.Dialect.Name
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	u.RawQuery = ""
	return u.String()
}

func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}
