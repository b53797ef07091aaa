package monitoring

import (
	"context"

	"hostel-backend/internal/models"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Service samples host resources for the admin status page. Samples are
// taken on demand; nothing runs in the background.
type Service struct {
	diskPath string
}

// NewService watches the volume holding diskPath, usually the upload
// directory. An empty path disables disk sampling.
func NewService(diskPath string) *Service {
	return &Service{diskPath: diskPath}
}

func (s *Service) Disk(ctx context.Context) (*models.DiskUsage, error) {
	if s.diskPath == "" {
		return nil, nil
	}
	u, err := disk.UsageWithContext(ctx, s.diskPath)
	if err != nil {
		return nil, err
	}
	return &models.DiskUsage{
		Path:        s.diskPath,
		TotalBytes:  u.Total,
		UsedBytes:   u.Used,
		FreeBytes:   u.Free,
		UsedPercent: u.UsedPercent,
	}, nil
}

func (s *Service) Memory(ctx context.Context) (*models.MemoryUsage, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return &models.MemoryUsage{
		TotalBytes:  v.Total,
		UsedBytes:   v.Used,
		UsedPercent: v.UsedPercent,
	}, nil
}
