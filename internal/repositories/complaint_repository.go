package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hostel-backend/internal/db"
	"hostel-backend/internal/models"
)

const complaintColumns = `id, COALESCE(name, ''), COALESCE(room, ''), COALESCE(title, ''),
	COALESCE(description, ''), image, video, address, phone, access_code,
	COALESCE(status, 'open'), COALESCE(created_at, '')`

type ComplaintRepository struct {
	db  *db.DB
	now func() time.Time
}

func NewComplaintRepository(database *db.DB) *ComplaintRepository {
	return &ComplaintRepository{db: database, now: time.Now}
}

// WithClock replaces the time source used for created_at.
func (r *ComplaintRepository) WithClock(now func() time.Time) *ComplaintRepository {
	r.now = now
	return r
}

// IsDuplicate reports whether err is a unique constraint violation, which
// for inserts means the access code is already taken.
func (r *ComplaintRepository) IsDuplicate(err error) bool {
	return r.db.Dialect.IsUniqueViolation(err)
}

// Create inserts a new complaint in the open state and fills in ID, Status
// and CreatedAt.
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) error {
	c.Status = models.StatusOpen
	c.CreatedAt = r.now().UTC().Format(models.TimestampLayout)

	query := r.db.Dialect.Rebind(`
		INSERT INTO complaints (name, room, title, description, image, video, address, phone, access_code, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	return r.db.QueryRowContext(ctx, query,
		c.Name, c.Room, c.Title, c.Description,
		nullIfEmpty(c.Image), nullIfEmpty(c.Video),
		nullIfEmpty(c.Address), nullIfEmpty(c.Phone),
		nullIfEmpty(c.AccessCode),
		string(c.Status), c.CreatedAt,
	).Scan(&c.ID)
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id int64) (*models.Complaint, error) {
	return r.getOne(ctx, "WHERE id = ?", id)
}

func (r *ComplaintRepository) GetByAccessCode(ctx context.Context, code string) (*models.Complaint, error) {
	if code == "" {
		return nil, models.ErrNotFound
	}
	return r.getOne(ctx, "WHERE access_code = ?", code)
}

// GetByIDAndAccessCode only matches when both values belong to the same row.
func (r *ComplaintRepository) GetByIDAndAccessCode(ctx context.Context, id int64, code string) (*models.Complaint, error) {
	if code == "" {
		return nil, models.ErrNotFound
	}
	return r.getOne(ctx, "WHERE id = ? AND access_code = ?", id, code)
}

func (r *ComplaintRepository) getOne(ctx context.Context, where string, args ...any) (*models.Complaint, error) {
	query := r.db.Dialect.Rebind("SELECT " + complaintColumns + " FROM complaints " + where)

	c, err := scanComplaint(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns matching complaints, newest first.
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	where, args := buildComplaintWhere(filter, r.db.Dialect)
	query := r.db.Dialect.Rebind(fmt.Sprintf(`
		SELECT %s FROM complaints
		%s
		ORDER BY created_at DESC, id DESC
	`, complaintColumns, where))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// UpdateStatus overwrites only the status column.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	if !status.Valid() {
		return models.ErrInvalidStatus
	}

	res, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(`UPDATE complaints SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *ComplaintRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(`DELETE FROM complaints WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *ComplaintRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM complaints`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *ComplaintRepository) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(status, 'open'), COUNT(*) FROM complaints
		GROUP BY COALESCE(status, 'open')
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Status]int, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[models.Status(s)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var c models.Complaint
	var status string
	err := row.Scan(
		&c.ID, &c.Name, &c.Room, &c.Title, &c.Description,
		&c.Image, &c.Video, &c.Address, &c.Phone, &c.AccessCode,
		&status, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = models.Status(status)
	return &c, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
