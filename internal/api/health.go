package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const readyPingTimeout = 2 * time.Second

// healthHandler serves liveness and readiness probes.
type healthHandler struct {
	pool   *pgxpool.Pool // optional: nil skips the database check
	logger *slog.Logger
}

// health is the liveness probe. Returns 200 OK with {"status":"ok"}.
func (h *healthHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// ready is the readiness probe. Verifies the database is reachable when a
// pool is configured.
func (h *healthHandler) ready(w http.ResponseWriter, r *http.Request) {
	if h.pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyPingTimeout)
		defer cancel()
		if err := h.pool.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "not_ready", "database unreachable", h.logger)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, h.logger)
}
