package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hostel-backend/internal/config"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect captures the few places where sqlite and postgres SQL differ.
// Queries are written with ? placeholders and passed through Rebind.
type Dialect struct {
	Name       string
	DriverName string
}

var (
	SQLite   = Dialect{Name: config.DriverSQLite, DriverName: "sqlite"}
	Postgres = Dialect{Name: config.DriverPostgres, DriverName: "pgx"}
)

func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverSQLite:
		return SQLite, nil
	case config.DriverPostgres:
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Rebind rewrites ? placeholders into $1..$n for postgres.
// Question marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d.Name != config.DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LikeOperator is the case-insensitive pattern match operator.
// sqlite LIKE already folds ASCII case.
func (d Dialect) LikeOperator() string {
	if d.Name == config.DriverPostgres {
		return "ILIKE"
	}
	return "LIKE"
}

// PrimaryKey is the column definition for an auto-assigned integer id.
func (d Dialect) PrimaryKey() string {
	if d.Name == config.DriverPostgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// ColumnExists reports whether table already has column.
func (d Dialect) ColumnExists(ctx context.Context, q Querier, table, column string) (bool, error) {
	var query string
	if d.Name == config.DriverPostgres {
		query = `SELECT COUNT(*) FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?`
	} else {
		query = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
	}

	var n int
	if err := q.QueryRowContext(ctx, d.Rebind(query), table, column).Scan(&n); err != nil {
		return false, fmt.Errorf("inspect %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
func (d Dialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		// primary result code only, when extended codes are off
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}
