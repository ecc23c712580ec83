package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/forecheck/engine/internal/api/respond"
	"github.com/forecheck/engine/internal/cache"
	"github.com/forecheck/engine/internal/stats"
)

// ListRollingStats returns every player's computed row for one window.
// @Summary List rolling stats
// @Description Returns the computed rolling aggregates for all players in one window.
// @Tags players
// @Produce json
// @Param window query string false "Window label: L5, L10, L20, Season (default L5)"
// @Success 200 {array} stats.Rolling
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/players/rolling-stats [get]
func (h *Handler) ListRollingStats(w http.ResponseWriter, r *http.Request) {
	window := stats.Window(r.URL.Query().Get("window"))
	if window == "" {
		window = stats.L5
	}
	if !window.Valid() {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_WINDOW", "Unknown window label")
		return
	}

	key := "rolling:" + string(window)
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLRollingStats, true)
		return
	}

	rows, err := stats.LoadWindow(r.Context(), h.pool.Pool, h.cfg.SeasonID, h.cfg.GameType, window)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LOAD_FAILED", "Failed to load rolling stats")
		return
	}
	if rows == nil {
		rows = []stats.Rolling{}
	}

	data, err := json.Marshal(rows)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_FAILED", "Failed to encode rolling stats")
		return
	}
	etag := h.cache.Set(key, data, cache.TTLRollingStats)

	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, cache.TTLRollingStats, false)
}

// ScoreBreakdown returns the component-by-component score explanation for one
// player window.
// @Summary Player score breakdown
// @Description Recomputes one player's window under the current config and returns every component contribution.
// @Tags players
// @Produce json
// @Param playerID path string true "Player ID"
// @Param window path string true "Window label: L5, L10, L20, Season"
// @Success 200 {object} engine.Breakdown
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/players/{playerID}/score/{window} [get]
func (h *Handler) ScoreBreakdown(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	window := stats.Window(chi.URLParam(r, "window"))
	if !window.Valid() {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_WINDOW", "Unknown window label")
		return
	}

	key := "breakdown:" + playerID + ":" + string(window)
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLBreakdown, true)
		return
	}

	b, err := h.eng.ScoreBreakdown(r.Context(), playerID, window)
	if errors.Is(err, pgx.ErrNoRows) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Player not found")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "SCORE_FAILED", "Failed to compute score breakdown")
		return
	}

	data, err := json.Marshal(b)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_FAILED", "Failed to encode breakdown")
		return
	}
	etag := h.cache.Set(key, data, cache.TTLBreakdown)
	respond.WriteJSON(w, data, etag, cache.TTLBreakdown, false)
}
