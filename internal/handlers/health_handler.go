package handlers

import (
	"context"
	"net/http"
	"time"

	"hostel-backend/internal/health"
)

type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Health reports database and storage reachability. Unhealthy answers 503 so
// load balancers take the instance out of rotation.
// GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	st := h.checker.CheckBasic(ctx)
	status := http.StatusOK
	if st.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}
