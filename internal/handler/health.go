package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// HealthHandler serves the health check endpoint.
type HealthHandler struct {
	db        *sql.DB
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// Health reports process and database status.
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	statusCode := http.StatusOK
	dbStatus := "ok"
	if err := h.db.PingContext(ctx); err != nil {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
		dbStatus = "unreachable"
	}

	WriteJSON(w, statusCode, map[string]any{
		"status":   status,
		"database": dbStatus,
		"uptime":   time.Since(h.startTime).Round(time.Second).String(),
	})
}
