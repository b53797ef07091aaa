package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hostel-backend/internal/config"
	"hostel-backend/internal/database"
	"hostel-backend/internal/db"
	"hostel-backend/internal/models"
	"hostel-backend/migrations"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*ComplaintRepository, *fakeClock) {
	t.Helper()
	ctx := context.Background()

	d, err := db.Connect(ctx, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "complaints.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	_, err = database.NewMigrator(d, migrations.All, zerolog.Nop()).RunMigrations(ctx)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	return NewComplaintRepository(d).WithClock(clock.Now), clock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Set(s string) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	c.t = t
}

func strPtr(s string) *string { return &s }

func create(t *testing.T, r *ComplaintRepository, c models.Complaint) models.Complaint {
	t.Helper()
	require.NoError(t, r.Create(context.Background(), &c))
	return c
}

func TestCreateAndGet(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	c := create(t, r, models.Complaint{
		Name: "Asha", Room: "12B", Title: "Leaking tap", Description: "Bathroom tap drips",
		Address: strPtr("Block C"), Phone: strPtr("555-0101"), AccessCode: strPtr("a1b2c3d4e5"),
	})
	require.NotZero(t, c.ID)
	assert.Equal(t, models.StatusOpen, c.Status)
	assert.Equal(t, "2024-05-01T09:00:00.000000", c.CreatedAt)

	got, err := r.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
	assert.Equal(t, models.StatusOpen, got.Status)
	assert.Nil(t, got.Image)
	assert.Nil(t, got.Video)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "555-0101", *got.Phone)

	byCode, err := r.GetByAccessCode(ctx, "a1b2c3d4e5")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byCode.ID)

	both, err := r.GetByIDAndAccessCode(ctx, c.ID, "a1b2c3d4e5")
	require.NoError(t, err)
	assert.Equal(t, c.ID, both.ID)
}

func TestLookupsNotFound(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	c := create(t, r, models.Complaint{Name: "A", Room: "1", Title: "T", Description: "D", AccessCode: strPtr("0000000001")})

	_, err := r.GetByID(ctx, c.ID+100)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = r.GetByAccessCode(ctx, "ffffffffff")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = r.GetByAccessCode(ctx, "")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = r.GetByIDAndAccessCode(ctx, c.ID, "ffffffffff")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = r.GetByIDAndAccessCode(ctx, c.ID+1, "0000000001")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	c := create(t, r, models.Complaint{Name: "A", Room: "1", Title: "T", Description: "D"})

	require.NoError(t, r.UpdateStatus(ctx, c.ID, models.StatusClosed))
	got, err := r.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, got.Status)
	assert.Equal(t, c.CreatedAt, got.CreatedAt)

	// any state can move to any other
	require.NoError(t, r.UpdateStatus(ctx, c.ID, models.StatusOpen))

	err = r.UpdateStatus(ctx, c.ID, models.Status("bogus"))
	assert.ErrorIs(t, err, models.ErrInvalidStatus)
	got, err = r.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, got.Status)

	assert.ErrorIs(t, r.UpdateStatus(ctx, c.ID+1, models.StatusClosed), models.ErrNotFound)
}

func TestDelete(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	c := create(t, r, models.Complaint{Name: "A", Room: "1", Title: "T", Description: "D"})

	require.NoError(t, r.Delete(ctx, c.ID))
	_, err := r.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, c.ID), models.ErrNotFound)
}

func TestList_FiltersAndOrdering(t *testing.T) {
	r, clock := newTestRepo(t)
	ctx := context.Background()

	clock.Set("2024-04-30T23:30:00Z")
	early := create(t, r, models.Complaint{Name: "Ravi", Room: "3A", Title: "Broken fan", Description: "Fan stopped", Address: strPtr("Block A")})
	clock.Set("2024-05-01T08:00:00Z")
	tap := create(t, r, models.Complaint{Name: "Asha", Room: "12B", Title: "Leaking tap", Description: "Drips all night", Address: strPtr("Block C")})
	clock.Set("2024-05-01T23:59:59Z")
	late := create(t, r, models.Complaint{Name: "Meera", Room: "7C", Title: "Wifi down", Description: "No signal 100%", Address: strPtr("Annex")})
	clock.Set("2024-05-02T00:00:01Z")
	next := create(t, r, models.Complaint{Name: "Joe", Room: "2D", Title: "Door", Description: "Lock jammed"})

	require.NoError(t, r.UpdateStatus(ctx, tap.ID, models.StatusClosed))
	require.NoError(t, r.UpdateStatus(ctx, early.ID, models.StatusClosed))

	ids := func(list []models.Complaint) []int64 {
		out := make([]int64, 0, len(list))
		for _, c := range list {
			out = append(out, c.ID)
		}
		return out
	}
	date := func(s string) *time.Time {
		tm, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return &tm
	}
	closed := models.StatusClosed

	tests := []struct {
		name   string
		filter models.ComplaintFilter
		want   []int64
	}{
		{name: "no filter newest first", filter: models.ComplaintFilter{}, want: []int64{next.ID, late.ID, tap.ID, early.ID}},
		{name: "status", filter: models.ComplaintFilter{Status: &closed}, want: []int64{tap.ID, early.ID}},
		{name: "search title", filter: models.ComplaintFilter{Search: "tap"}, want: []int64{tap.ID}},
		{name: "search is case insensitive", filter: models.ComplaintFilter{Search: "LEAKING"}, want: []int64{tap.ID}},
		{name: "search room", filter: models.ComplaintFilter{Search: "12B"}, want: []int64{tap.ID}},
		{name: "search address", filter: models.ComplaintFilter{Search: "annex"}, want: []int64{late.ID}},
		{name: "percent is literal", filter: models.ComplaintFilter{Search: "100%"}, want: []int64{late.ID}},
		{name: "underscore is literal", filter: models.ComplaintFilter{Search: "_"}, want: []int64{}},
		{name: "date_to includes whole day", filter: models.ComplaintFilter{DateFrom: date("2024-05-01"), DateTo: date("2024-05-01")}, want: []int64{late.ID, tap.ID}},
		{name: "date_from only", filter: models.ComplaintFilter{DateFrom: date("2024-05-02")}, want: []int64{next.ID}},
		{name: "combined with AND", filter: models.ComplaintFilter{Status: &closed, DateFrom: date("2024-05-01")}, want: []int64{tap.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := r.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(list))
		})
	}
}

func TestCounts(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	a := create(t, r, models.Complaint{Name: "A", Room: "1", Title: "T", Description: "D"})
	create(t, r, models.Complaint{Name: "B", Room: "2", Title: "T", Description: "D"})
	require.NoError(t, r.UpdateStatus(ctx, a.ID, models.StatusInProgress))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	byStatus, err := r.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.Status]int{
		models.StatusOpen:       1,
		models.StatusInProgress: 1,
		models.StatusClosed:     0,
	}, byStatus)
}

func TestCreate_DuplicateAccessCode(t *testing.T) {
	r, _ := newTestRepo(t)
	create(t, r, models.Complaint{Name: "A", Room: "1", Title: "T", Description: "D", AccessCode: strPtr("dupdupdup0")})

	c := models.Complaint{Name: "B", Room: "2", Title: "T", Description: "D", AccessCode: strPtr("dupdupdup0")}
	err := r.Create(context.Background(), &c)
	require.Error(t, err)
	assert.True(t, r.IsDuplicate(err))
}

func TestBuildComplaintWhere_Postgres(t *testing.T) {
	st := models.StatusOpen
	where, args := buildComplaintWhere(models.ComplaintFilter{Search: "a_b", Status: &st}, db.Postgres)

	assert.Contains(t, where, "title ILIKE ? ESCAPE '\\'")
	assert.Contains(t, where, "AND status = ?")
	require.Len(t, args, 6)
	assert.Equal(t, `%a\_b%`, args[0])
	assert.Equal(t, "open", args[5])

	rebound := db.Postgres.Rebind(where)
	assert.Contains(t, rebound, "status = $6")
}

func TestBuildComplaintWhere_Empty(t *testing.T) {
	where, args := buildComplaintWhere(models.ComplaintFilter{}, db.SQLite)
	assert.Empty(t, where)
	assert.Empty(t, args)
}
