package health

import (
	"context"
	"runtime"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Probe checks one dependency and returns nil when it is usable.
type Probe func(ctx context.Context) error

type HealthChecker struct {
	db      Pinger
	storage Probe
}

type HealthStatus struct {
	Status     string          `json:"status"`
	Database   ComponentHealth `json:"database"`
	Storage    ComponentHealth `json:"storage"`
	Goroutines int             `json:"goroutines"`
	Memory     MemoryStats     `json:"memory"`
}

type MemoryStats struct {
	AllocMB      float64 `json:"alloc_mb"`
	TotalAllocMB float64 `json:"total_alloc_mb"`
	SysMB        float64 `json:"sys_mb"`
	NumGC        uint32  `json:"num_gc"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

// NewHealthChecker checks the database and, when storage is non-nil, the
// media store.
func NewHealthChecker(db Pinger, storage Probe) *HealthChecker {
	return &HealthChecker{db: db, storage: storage}
}

func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	dbHealth := h.check(ctx, h.db.PingContext)
	storageHealth := ComponentHealth{Status: "skipped"}
	if h.storage != nil {
		storageHealth = h.check(ctx, h.storage)
	}

	status := "healthy"
	if dbHealth.Status != "healthy" || storageHealth.Status == "unhealthy" {
		status = "unhealthy"
	}

	// Get runtime stats for goroutine leak detection
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return HealthStatus{
		Status:     status,
		Database:   dbHealth,
		Storage:    storageHealth,
		Goroutines: runtime.NumGoroutine(),
		Memory: MemoryStats{
			AllocMB:      float64(memStats.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(memStats.Sys) / 1024 / 1024,
			NumGC:        memStats.NumGC,
		},
	}
}

func (h *HealthChecker) check(ctx context.Context, probe Probe) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := probe(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}
