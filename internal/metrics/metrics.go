// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecalcRuns counts completed recalculation runs by result.
	RecalcRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forecheck_recalc_runs_total",
		Help: "Completed recalculation runs by result.",
	}, []string{"result"})

	// RecalcProgress tracks players processed so far in the current
	// recalculation run. Resets to zero when a new run starts.
	RecalcProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "forecheck_recalc_progress_players",
		Help: "Players processed so far in the current recalculation run.",
	})

	// PlayersRecalculated counts per-player recomputations, including skips.
	PlayersRecalculated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forecheck_players_recalculated_total",
		Help: "Per-player window recomputations by result.",
	}, []string{"result"})

	// ScanEvaluations counts scan evaluations, preview included.
	ScanEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forecheck_scan_evaluations_total",
		Help: "Scan evaluations by kind (saved, preview, refresh).",
	}, []string{"kind"})

	// AlertsEmitted counts newly detected scan matches.
	AlertsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forecheck_alerts_emitted_total",
		Help: "Newly detected scan matches.",
	})

	// HTTPRequests counts API requests by route pattern and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forecheck_http_requests_total",
		Help: "API requests by route pattern and status class.",
	}, []string{"pattern", "status"})
)
