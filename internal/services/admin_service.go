package services

import (
	"context"
	"errors"
	"os"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/media"
	"hostel-backend/internal/metrics"
	"hostel-backend/internal/models"

	"github.com/rs/zerolog"
)

// DatabaseInfo describes the storage behind the complaint store.
// *db.DB implements it.
type DatabaseInfo interface {
	Driver() string
	Location() string
	FilePath() string
}

// HostMonitor samples host resources. *monitoring.Service implements it.
type HostMonitor interface {
	Disk(ctx context.Context) (*models.DiskUsage, error)
	Memory(ctx context.Context) (*models.MemoryUsage, error)
}

// AdminService runs the administrator workflows. Every method takes the
// caller's auth.Admin and refuses anonymous callers.
type AdminService struct {
	store   ComplaintStore
	media   media.Backend
	dbInfo  DatabaseInfo
	monitor HostMonitor
	log     zerolog.Logger
}

func NewAdminService(store ComplaintStore, mediaBackend media.Backend, dbInfo DatabaseInfo, monitor HostMonitor, log zerolog.Logger) *AdminService {
	return &AdminService{
		store:   store,
		media:   mediaBackend,
		dbInfo:  dbInfo,
		monitor: monitor,
		log:     log.With().Str("component", "admin").Logger(),
	}
}

func (s *AdminService) List(ctx context.Context, admin auth.Admin, filter models.ComplaintFilter) ([]models.Complaint, error) {
	if err := admin.Require(); err != nil {
		return nil, err
	}
	return s.store.List(ctx, filter)
}

func (s *AdminService) Get(ctx context.Context, admin auth.Admin, id int64) (*models.Complaint, error) {
	if err := admin.Require(); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

// UpdateStatus moves a complaint to any valid status. Invalid values are
// rejected before storage is touched.
func (s *AdminService) UpdateStatus(ctx context.Context, admin auth.Admin, id int64, status string) error {
	if err := admin.Require(); err != nil {
		return err
	}
	st, err := models.ParseStatus(status)
	if err != nil {
		return err
	}
	if err := s.store.UpdateStatus(ctx, id, st); err != nil {
		return err
	}

	metrics.StatusUpdates.WithLabelValues(string(st)).Inc()
	s.log.Info().Int64("complaint_id", id).Str("status", string(st)).Msg("status updated")
	return nil
}

// Delete removes a complaint's media and then the complaint. Media removal
// is best effort: failures are logged and the row is deleted regardless.
func (s *AdminService) Delete(ctx context.Context, admin auth.Admin, id int64) error {
	if err := admin.Require(); err != nil {
		return err
	}

	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, key := range []*string{c.Image, c.Video} {
		if key == nil || *key == "" {
			continue
		}
		if err := s.media.Delete(ctx, *key); err != nil {
			s.log.Warn().Err(err).Int64("complaint_id", id).Str("file", *key).Msg("failed to delete media file")
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	metrics.ComplaintsDeleted.Inc()
	s.log.Info().Int64("complaint_id", id).Msg("complaint deleted")
	return nil
}

// Export returns the export projection of the filtered listing.
func (s *AdminService) Export(ctx context.Context, admin auth.Admin, filter models.ComplaintFilter) ([]models.ExportRow, error) {
	list, err := s.List(ctx, admin, filter)
	if err != nil {
		return nil, err
	}
	rows := make([]models.ExportRow, 0, len(list))
	for i := range list {
		rows = append(rows, list[i].ExportRow())
	}
	return rows, nil
}

// Stats gathers the admin status page. Only a failing complaint count is an
// error; every other probe degrades to an empty field.
func (s *AdminService) Stats(ctx context.Context, admin auth.Admin) (*models.SystemStatus, error) {
	if err := admin.Require(); err != nil {
		return nil, err
	}

	st := &models.SystemStatus{MediaBackend: s.media.Name()}

	if s.dbInfo != nil {
		st.Driver = s.dbInfo.Driver()
		st.Location = s.dbInfo.Location()
		if path := s.dbInfo.FilePath(); path != "" {
			if info, err := os.Stat(path); err == nil {
				size := info.Size()
				st.FileExists = true
				st.SizeBytes = &size
			} else if !errors.Is(err, os.ErrNotExist) {
				s.log.Warn().Err(err).Str("path", path).Msg("stat database file")
			}
		} else {
			st.FileExists = true
		}
	}

	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	st.ComplaintCount = n

	if st.ByStatus, err = s.store.CountByStatus(ctx); err != nil {
		s.log.Warn().Err(err).Msg("count by status")
	}

	if s.monitor != nil {
		if st.Disk, err = s.monitor.Disk(ctx); err != nil {
			s.log.Warn().Err(err).Msg("disk usage")
		}
		if st.Memory, err = s.monitor.Memory(ctx); err != nil {
			s.log.Warn().Err(err).Msg("memory usage")
		}
	}
	return st, nil
}
