package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/config"
	"hostel-backend/internal/database"
	"hostel-backend/internal/db"
	"hostel-backend/internal/media"
	"hostel-backend/internal/models"
	"hostel-backend/internal/repositories"
	"hostel-backend/migrations"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var admin = auth.Admin{Authenticated: true, Subject: "admin"}

type testEnv struct {
	db         *db.DB
	repo       *repositories.ComplaintRepository
	media      *media.LocalBackend
	uploadDir  string
	complaints *ComplaintService
	admin      *AdminService
}

func newTestEnv(t *testing.T, opts ComplaintOptions) *testEnv {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()

	d, err := db.Connect(ctx, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(root, "instance", "complaints.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	_, err = database.NewMigrator(d, migrations.All, zerolog.Nop()).RunMigrations(ctx)
	require.NoError(t, err)

	uploadDir := filepath.Join(root, "uploads")
	lb, err := media.NewLocalBackend(uploadDir)
	require.NoError(t, err)

	repo := repositories.NewComplaintRepository(d)
	return &testEnv{
		db:         d,
		repo:       repo,
		media:      lb,
		uploadDir:  lb.Dir(),
		complaints: NewComplaintService(repo, lb, opts, zerolog.Nop()),
		admin:      NewAdminService(repo, lb, d, nil, zerolog.Nop()),
	}
}

func validRequest() models.SubmitComplaintRequest {
	return models.SubmitComplaintRequest{
		Name:        "Asha",
		Room:        "12B",
		Title:       "Leaking tap",
		Description: "The bathroom tap drips all night",
		Address:     "Block C, Girls Hostel",
		Phone:       "555-0101",
	}
}

func upload(name, body string) *models.Upload {
	return &models.Upload{Filename: name, Size: int64(len(body)), Body: bytes.NewReader([]byte(body))}
}

func uploadedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// flakyStore fails the first n inserts with a duplicate error.
type flakyStore struct {
	ComplaintStore
	duplicates int
	fail       error
	codes      []string
}

var errDuplicate = errors.New("duplicate access code")

func (f *flakyStore) Create(ctx context.Context, c *models.Complaint) error {
	f.codes = append(f.codes, *c.AccessCode)
	if f.fail != nil {
		return f.fail
	}
	if f.duplicates > 0 {
		f.duplicates--
		return errDuplicate
	}
	return f.ComplaintStore.Create(ctx, c)
}

func (f *flakyStore) IsDuplicate(err error) bool { return errors.Is(err, errDuplicate) }

func sequenceCodes(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

func fixedNow() time.Time { return time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC) }

func hasSuffix(list []string, suffix string) bool {
	for _, s := range list {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
