package models

import (
	"io"
	"time"
)

// TimestampLayout is the stored created_at format. It is fixed width so
// string comparison orders rows chronologically.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Status is the lifecycle state of a complaint.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusClosed     Status = "closed"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusClosed}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// ParseStatus accepts exactly the stored spelling of a status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

type Complaint struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Room        string  `json:"room"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
	Video       *string `json:"video"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	AccessCode  *string `json:"access_code,omitempty"`
	Status      Status  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

// CreatedTime parses CreatedAt, accepting the shorter forms older rows used.
func (c *Complaint) CreatedTime() (time.Time, bool) {
	for _, layout := range []string{TimestampLayout, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, c.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExportRow is the flat projection written by CSV and JSON exports.
// Field order matches the CSV header.
type ExportRow struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Room        string  `json:"room"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	Status      Status  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

// ExportColumns is the CSV header.
var ExportColumns = []string{"id", "name", "room", "title", "description", "image", "address", "phone", "status", "created_at"}

func (c *Complaint) ExportRow() ExportRow {
	return ExportRow{
		ID:          c.ID,
		Name:        c.Name,
		Room:        c.Room,
		Title:       c.Title,
		Description: c.Description,
		Image:       c.Image,
		Address:     c.Address,
		Phone:       c.Phone,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
	}
}

// Upload is a file received with a submission.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// SubmitComplaintRequest is the resident-facing form. String fields are
// trimmed before validation.
type SubmitComplaintRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Room        string `json:"room" validate:"required,max=100"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	Address     string `json:"address" validate:"max=500"`
	Phone       string `json:"phone" validate:"max=100"`

	Image *Upload `json:"-"`
	Video *Upload `json:"-"`
}

type SubmitResult struct {
	ID         int64  `json:"id"`
	AccessCode string `json:"access_code"`
}

// TrackingQuery identifies a complaint by id, access code, or both.
type TrackingQuery struct {
	ID         *int64
	AccessCode string
}

// TrackingResult is what a resident may see about their complaint. The
// JSON form carries only id, title, status and created_at; the description
// and media are shown on the HTML page alone.
type TrackingResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"-"`
	Status      Status  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	Image       *string `json:"-"`
	Video       *string `json:"-"`
}

// SystemStatus backs the admin status page.
type SystemStatus struct {
	Driver         string         `json:"driver"`
	Location       string         `json:"location"`
	FileExists     bool           `json:"file_exists"`
	SizeBytes      *int64         `json:"size_bytes"`
	ComplaintCount int            `json:"complaint_count"`
	ByStatus       map[Status]int `json:"by_status"`
	MediaBackend   string         `json:"media_backend"`
	Disk           *DiskUsage     `json:"disk,omitempty"`
	Memory         *MemoryUsage   `json:"memory,omitempty"`
}

type DiskUsage struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"total_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

type MemoryUsage struct {
	TotalBytes  uint64  `json:"total_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	UsedPercent float64 `json:"used_percent"`
}
