package handler

import (
	"errors"
	"net/http"

	"github.com/forecheck/engine/internal/api/respond"
	"github.com/forecheck/engine/internal/recalc"
)

// TriggerRecalculation starts a full-pool recalculation run.
// @Summary Trigger recalculation
// @Description Starts a background recomputation of every player's windows and scores. Rejected when one is already running.
// @Tags recalculation
// @Produce json
// @Success 202 {object} recalc.Status
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/v1/recalculate [post]
func (h *Handler) TriggerRecalculation(w http.ResponseWriter, r *http.Request) {
	err := h.job.Start(r.Context())
	if errors.Is(err, recalc.ErrAlreadyRunning) {
		respond.WriteError(w, http.StatusConflict, "ALREADY_RUNNING", "A recalculation is already in progress")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "TRIGGER_FAILED", "Failed to start recalculation")
		return
	}
	respond.WriteJSONObject(w, http.StatusAccepted, h.job.Status())
}

// RecalculationStatus returns the latest job status snapshot.
// @Summary Recalculation status
// @Description Returns the current recalculation job state and progress.
// @Tags recalculation
// @Produce json
// @Success 200 {object} recalc.Status
// @Router /api/v1/recalculate/status [get]
func (h *Handler) RecalculationStatus(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, h.job.Status())
}
