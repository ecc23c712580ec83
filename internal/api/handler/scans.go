package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forecheck/engine/internal/api/respond"
	"github.com/forecheck/engine/internal/scan"
)

// scanPayload is the request body for creating, updating, or previewing a
// scan.
type scanPayload struct {
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	PositionFilter string      `json:"position_filter"`
	AlertsEnabled  bool        `json:"alerts_enabled"`
	IsHidden       bool        `json:"is_hidden"`
	IsFavorite     bool        `json:"is_favorite"`
	Rules          []scan.Rule `json:"rules"`
}

func (p *scanPayload) toScan() *scan.Scan {
	return &scan.Scan{
		Name:           p.Name,
		Description:    p.Description,
		PositionFilter: p.PositionFilter,
		AlertsEnabled:  p.AlertsEnabled,
		IsHidden:       p.IsHidden,
		IsFavorite:     p.IsFavorite,
		Rules:          p.Rules,
	}
}

func decodeScanPayload(w http.ResponseWriter, r *http.Request) (*scanPayload, bool) {
	var p scanPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&p); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "BAD_REQUEST",
			"Failed to parse scan definition", err.Error())
		return nil, false
	}
	return &p, true
}

func queryBool(r *http.Request, name string, def bool) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func queryInt(r *http.Request, name string, def, min, max int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return def
	}
	return n
}

// ListScans returns all scans, presets included by default.
// @Summary List scans
// @Description Returns preset and custom scans, optionally refreshing stale cached match counts.
// @Tags scans
// @Produce json
// @Param include_presets query bool false "Include preset scans (default true)"
// @Param include_hidden query bool false "Include hidden scans (default false)"
// @Param favorites_only query bool false "Only favorited scans"
// @Param refresh_counts query bool false "Refresh stale match counts"
// @Param stale_minutes query int false "Staleness threshold in minutes (1-1440)"
// @Param force_refresh query bool false "Refresh regardless of staleness"
// @Success 200 {array} scan.Scan
// @Router /api/v1/scans [get]
func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := scan.EnsurePresets(ctx, h.pool.Pool); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "PRESET_SYNC_FAILED", "Failed to ensure preset scans")
		return
	}

	includePresets := queryBool(r, "include_presets", true)
	scans, err := scan.List(ctx, h.pool.Pool, includePresets, "")
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LIST_FAILED", "Failed to list scans")
		return
	}

	includeHidden := queryBool(r, "include_hidden", false)
	favoritesOnly := queryBool(r, "favorites_only", false)
	if !includeHidden || favoritesOnly {
		filtered := scans[:0]
		for _, s := range scans {
			if s.IsHidden && !includeHidden {
				continue
			}
			if favoritesOnly && !s.IsFavorite {
				continue
			}
			filtered = append(filtered, s)
		}
		scans = filtered
	}

	if queryBool(r, "refresh_counts", false) {
		staleAfter := time.Duration(queryInt(r, "stale_minutes",
			int(h.cfg.ScanStaleAfter.Minutes()), 1, 1440)) * time.Minute
		force := queryBool(r, "force_refresh", false)
		if _, err := h.eng.RefreshScans(ctx, scans, staleAfter, force); err != nil {
			respond.WriteError(w, http.StatusInternalServerError, "REFRESH_FAILED", "Failed to refresh match counts")
			return
		}
	}

	respond.WriteJSONObject(w, http.StatusOK, scans)
}

// CreateScan saves a new custom scan.
// @Summary Create scan
// @Description Validates and persists a custom scan with its rules.
// @Tags scans
// @Accept json
// @Produce json
// @Success 201 {object} scan.Scan
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/scans [post]
func (h *Handler) CreateScan(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeScanPayload(w, r)
	if !ok {
		return
	}
	s := p.toScan()
	if err := scan.Create(r.Context(), h.pool.Pool, s); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_SCAN",
			"Scan definition rejected", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, s)
}

// GetScan returns one scan with its rules.
// @Summary Get scan
// @Tags scans
// @Produce json
// @Param scanID path string true "Scan ID"
// @Success 200 {object} scan.Scan
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/scans/{scanID} [get]
func (h *Handler) GetScan(w http.ResponseWriter, r *http.Request) {
	s, err := scan.ByID(r.Context(), h.pool.Pool, chi.URLParam(r, "scanID"))
	if errors.Is(err, scan.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Scan not found")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LOAD_FAILED", "Failed to load scan")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, s)
}

// UpdateScan rewrites a custom scan's definition.
// @Summary Update scan
// @Tags scans
// @Accept json
// @Produce json
// @Param scanID path string true "Scan ID"
// @Success 200 {object} scan.Scan
// @Failure 400 {object} respond.ErrorResponse
// @Failure 403 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/scans/{scanID} [put]
func (h *Handler) UpdateScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "scanID")

	existing, err := scan.ByID(ctx, h.pool.Pool, id)
	if errors.Is(err, scan.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Scan not found")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LOAD_FAILED", "Failed to load scan")
		return
	}

	p, ok := decodeScanPayload(w, r)
	if !ok {
		return
	}

	if existing.IsPreset {
		// Presets only allow toggling flags; their definitions are managed
		// in code.
		existing.AlertsEnabled = p.AlertsEnabled
		existing.IsHidden = p.IsHidden
		existing.IsFavorite = p.IsFavorite
		if err := scan.Update(ctx, h.pool.Pool, existing); err != nil {
			respond.WriteError(w, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update scan")
			return
		}
		respond.WriteJSONObject(w, http.StatusOK, existing)
		return
	}

	s := p.toScan()
	s.ID = id
	s.UserID = existing.UserID
	if err := scan.Update(ctx, h.pool.Pool, s); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_SCAN",
			"Scan definition rejected", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, s)
}

// DeleteScan removes a custom scan. Presets cannot be deleted.
// @Summary Delete scan
// @Tags scans
// @Produce json
// @Param scanID path string true "Scan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/scans/{scanID} [delete]
func (h *Handler) DeleteScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "scanID")

	s, err := scan.ByID(ctx, h.pool.Pool, id)
	if errors.Is(err, scan.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Scan not found")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LOAD_FAILED", "Failed to load scan")
		return
	}
	if s.IsPreset {
		respond.WriteError(w, http.StatusForbidden, "FORBIDDEN", "Preset scans cannot be deleted")
		return
	}

	if err := scan.Delete(ctx, h.pool.Pool, id); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete scan")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// EvaluateScan runs a saved scan and records results.
// @Summary Evaluate scan
// @Description Evaluates a saved scan against the current pool, records match count and alert state, and returns ranked matches.
// @Tags scans
// @Produce json
// @Param scanID path string true "Scan ID"
// @Param limit query int false "Max results (default 50, max 100)"
// @Success 200 {array} roster.Player
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/scans/{scanID}/evaluate [post]
func (h *Handler) EvaluateScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, err := scan.ByID(ctx, h.pool.Pool, chi.URLParam(r, "scanID"))
	if errors.Is(err, scan.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Scan not found")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LOAD_FAILED", "Failed to load scan")
		return
	}

	matches, err := h.eng.EvaluateScan(ctx, s, true)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "EVALUATE_FAILED", "Scan evaluation failed")
		return
	}

	limit := queryInt(r, "limit", 50, 1, 100)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	respond.WriteJSONObject(w, http.StatusOK, matches)
}

// PreviewScan evaluates an unsaved definition without persisting anything.
// @Summary Preview scan
// @Tags scans
// @Accept json
// @Produce json
// @Param limit query int false "Max results (default 10, max 50)"
// @Success 200 {array} roster.Player
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/scans/preview [post]
func (h *Handler) PreviewScan(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeScanPayload(w, r)
	if !ok {
		return
	}
	s := p.toScan()
	if s.Name == "" {
		s.Name = "Preview"
	}

	matches, err := h.eng.PreviewScan(r.Context(), s)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_SCAN",
			"Scan definition rejected", err.Error())
		return
	}

	limit := queryInt(r, "limit", 10, 1, 50)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	respond.WriteJSONObject(w, http.StatusOK, matches)
}

// RefreshScanCounts re-evaluates stale scans and returns the refreshed list.
// @Summary Refresh scan match counts
// @Tags scans
// @Produce json
// @Param stale_minutes query int false "Staleness threshold in minutes (1-1440)"
// @Param force query bool false "Refresh regardless of staleness"
// @Success 200 {array} scan.Scan
// @Router /api/v1/scans/refresh-counts [post]
func (h *Handler) RefreshScanCounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := scan.EnsurePresets(ctx, h.pool.Pool); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "PRESET_SYNC_FAILED", "Failed to ensure preset scans")
		return
	}

	scans, err := scan.List(ctx, h.pool.Pool, true, "")
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LIST_FAILED", "Failed to list scans")
		return
	}

	staleAfter := time.Duration(queryInt(r, "stale_minutes",
		int(h.cfg.ScanStaleAfter.Minutes()), 1, 1440)) * time.Minute
	force := queryBool(r, "force", false)
	if _, err := h.eng.RefreshScans(ctx, scans, staleAfter, force); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "REFRESH_FAILED", "Failed to refresh match counts")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, scans)
}
