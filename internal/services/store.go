package services

import (
	"context"

	"hostel-backend/internal/models"
)

// ComplaintStore is the persistence the workflows need.
// *repositories.ComplaintRepository implements it.
type ComplaintStore interface {
	Create(ctx context.Context, c *models.Complaint) error
	GetByID(ctx context.Context, id int64) (*models.Complaint, error)
	GetByAccessCode(ctx context.Context, code string) (*models.Complaint, error)
	GetByIDAndAccessCode(ctx context.Context, id int64, code string) (*models.Complaint, error)
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)

	// IsDuplicate reports whether a Create error was a unique violation.
	IsDuplicate(err error) bool
}
