package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"jackpot-alerts/internal/service"
	"jackpot-alerts/internal/version"
)

// Checker is the slice of the service the HTTP surface needs.
type Checker interface {
	Snapshot(ctx context.Context) (service.Snapshot, error)
	Run(ctx context.Context) (*service.Report, error)
}

// Handler holds shared dependencies for the endpoint handlers.
type Handler struct {
	checker Checker
	adopt   func(report *service.Report)
	logger  zerolog.Logger
}

type runResponse struct {
	*service.Report
	PendingTasks []string `json:"pendingTasks"`
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "jackpotwatch",
		"version": version.Version,
		"status":  "running",
		"endpoints": []string{
			"GET /api/v1/jackpots",
			"POST /api/v1/runs",
			"GET /health",
		},
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetJackpots answers the on-demand query: current jackpots annotated against
// the threshold. Nothing is persisted or sent.
func (h *Handler) GetJackpots(w http.ResponseWriter, r *http.Request) {
	snap, err := h.checker.Snapshot(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("jackpot query failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	writeJSON(w, http.StatusOK, snap)
}

// TriggerRun performs a full check. Notification and persistence keep running
// after the response is written; the server drains them on shutdown.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	report, err := h.checker.Run(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("triggered run failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pending := report.Background.Names()
	if pending == nil {
		pending = []string{}
	}
	h.adopt(report)
	writeJSON(w, http.StatusAccepted, runResponse{Report: report, PendingTasks: pending})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	writeJSON(w, status, map[string]string{"error": message})
}
