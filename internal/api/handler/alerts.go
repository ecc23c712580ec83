package handler

import (
	"net/http"
	"time"

	"github.com/forecheck/engine/internal/alert"
	"github.com/forecheck/engine/internal/api/respond"
)

// AlertFeed returns alerts detected within the trailing horizon.
// @Summary Alert feed
// @Description Returns newly detected scan matches on alert-enabled scans within the trailing horizon, newest first.
// @Tags alerts
// @Produce json
// @Param horizon_hours query int false "Trailing horizon in hours (1-168, default from config)"
// @Success 200 {array} alert.Entry
// @Router /api/v1/alerts [get]
func (h *Handler) AlertFeed(w http.ResponseWriter, r *http.Request) {
	horizon := h.cfg.AlertHorizon
	if hours := queryInt(r, "horizon_hours", 0, 1, 168); hours > 0 {
		horizon = time.Duration(hours) * time.Hour
	}

	entries, err := alert.Feed(r.Context(), h.pool.Pool, horizon, time.Now().UTC())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LOAD_FAILED", "Failed to load alert feed")
		return
	}
	if entries == nil {
		entries = []alert.Entry{}
	}
	respond.WriteJSONObject(w, http.StatusOK, entries)
}
