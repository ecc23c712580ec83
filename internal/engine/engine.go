// Package engine wires the computation pipeline together: game logs in,
// rolling windows, trend labels, and streamer scores out, plus scan
// evaluation and alert recording over the computed pool.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forecheck/engine/internal/alert"
	"github.com/forecheck/engine/internal/config"
	"github.com/forecheck/engine/internal/db"
	"github.com/forecheck/engine/internal/metrics"
	"github.com/forecheck/engine/internal/recalc"
	"github.com/forecheck/engine/internal/roster"
	"github.com/forecheck/engine/internal/scan"
	"github.com/forecheck/engine/internal/score"
	"github.com/forecheck/engine/internal/stats"
	"github.com/forecheck/engine/internal/trend"
)

// Engine binds the stores and the pure computation packages under one season
// scope.
type Engine struct {
	cfg      *config.Config
	pool     *db.Pool
	registry *score.Registry
	logger   *slog.Logger
}

// New returns an engine over the given pool and config registry.
func New(cfg *config.Config, pool *db.Pool, registry *score.Registry, logger *slog.Logger) *Engine {
	return &Engine{cfg: cfg, pool: pool, registry: registry, logger: logger}
}

// Registry exposes the score config registry for the API layer.
func (e *Engine) Registry() *score.Registry { return e.registry }

func (e *Engine) classifier() *trend.Classifier {
	return trend.NewClassifier(e.cfg.TrendHotThreshold, e.cfg.TrendColdThreshold)
}

// --------------------------------------------------------------------------
// Recalculation
// --------------------------------------------------------------------------

// BeginRun prepares a full-pool recomputation. The config snapshot and league
// profile are captured here, once, so every player in the pass is scored
// under the same version.
func (e *Engine) BeginRun(ctx context.Context) (recalc.Run, error) {
	players, err := roster.ListActive(ctx, e.pool.Pool)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	league, err := score.ActiveLeague(ctx, e.pool.Pool)
	if err != nil {
		return nil, fmt.Errorf("load league: %w", err)
	}
	return &run{
		e:          e,
		players:    players,
		calc:       e.registry.Calculator(),
		league:     league,
		classifier: e.classifier(),
	}, nil
}

type run struct {
	e          *Engine
	players    []roster.Player
	calc       *score.Calculator
	league     *score.LeagueProfile
	classifier *trend.Classifier
}

func (r *run) Players() []roster.Player { return r.players }

// Process recomputes one player: every window aggregated, labeled, scored,
// and upserted, then the denormalized current score refreshed.
func (r *run) Process(ctx context.Context, p roster.Player) error {
	e := r.e
	logs, err := roster.GameLog(ctx, e.pool.Pool, p.ID, e.cfg.SeasonID, e.cfg.GameType)
	if err != nil {
		metrics.PlayersRecalculated.WithLabelValues("error").Inc()
		return err
	}

	direction := r.classifier.Classify(p.Position, logs)

	var current stats.Rolling
	for _, w := range stats.Windows {
		agg := stats.Aggregate(p.ID, p.Position, logs, w, time.Time{})
		agg.TrendDirection = string(direction)
		agg.TemperatureTag = string(trend.Temperature(p.Position, w, agg))

		res := r.calc.Score(score.Input{
			Position:  p.Position,
			Rolling:   agg,
			Trend:     direction,
			Ownership: p.OwnershipPercentage,
			League:    r.league,
		})
		agg.StreamerScore = res.Final

		if err := stats.Upsert(ctx, e.pool.Pool, e.cfg.SeasonID, e.cfg.GameType, agg); err != nil {
			metrics.PlayersRecalculated.WithLabelValues("error").Inc()
			return err
		}

		switch {
		case w == stats.L5 && agg.GamesPlayed > 0:
			current = agg
		case w == stats.Season && current.GamesPlayed == 0:
			current = agg
		}
	}

	if err := roster.SetCurrentScore(ctx, e.pool.Pool, p.ID, current.StreamerScore); err != nil {
		metrics.PlayersRecalculated.WithLabelValues("error").Inc()
		return err
	}
	metrics.PlayersRecalculated.WithLabelValues("ok").Inc()
	return nil
}

// --------------------------------------------------------------------------
// Score breakdown
// --------------------------------------------------------------------------

// Breakdown is the per-component score explanation for one player window.
type Breakdown struct {
	Player  roster.Player `json:"player"`
	Window  stats.Window  `json:"window"`
	Rolling stats.Rolling `json:"rolling"`
	Trend   string        `json:"trend"`
	Result  score.Result  `json:"result"`
}

// ScoreBreakdown recomputes one player window from the game log and returns
// the full component-by-component result under the current config snapshot.
func (e *Engine) ScoreBreakdown(ctx context.Context, playerID string, w stats.Window) (*Breakdown, error) {
	player, err := roster.ByID(ctx, e.pool.Pool, playerID)
	if err != nil {
		return nil, err
	}
	logs, err := roster.GameLog(ctx, e.pool.Pool, playerID, e.cfg.SeasonID, e.cfg.GameType)
	if err != nil {
		return nil, err
	}
	league, err := score.ActiveLeague(ctx, e.pool.Pool)
	if err != nil {
		return nil, err
	}

	direction := e.classifier().Classify(player.Position, logs)
	agg := stats.Aggregate(playerID, player.Position, logs, w, time.Time{})
	agg.TrendDirection = string(direction)
	agg.TemperatureTag = string(trend.Temperature(player.Position, w, agg))

	res := e.registry.Calculator().Score(score.Input{
		Position:  player.Position,
		Rolling:   agg,
		Trend:     direction,
		Ownership: player.OwnershipPercentage,
		League:    league,
	})
	agg.StreamerScore = res.Final

	return &Breakdown{
		Player:  *player,
		Window:  w,
		Rolling: agg,
		Trend:   string(direction),
		Result:  res,
	}, nil
}

// --------------------------------------------------------------------------
// Scan evaluation
// --------------------------------------------------------------------------

// BuildScanPool snapshots everything scan evaluation needs: the active
// roster, all computed windows, and teams with an upcoming back-to-back.
func (e *Engine) BuildScanPool(ctx context.Context, now time.Time) (*scan.Pool, error) {
	players, err := roster.ListActive(ctx, e.pool.Pool)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	set, err := stats.LoadSet(ctx, e.pool.Pool, e.cfg.SeasonID, e.cfg.GameType)
	if err != nil {
		return nil, err
	}

	from, to := scan.B2BQueryRange(now)
	games, err := roster.GamesInRange(ctx, e.pool.Pool, e.cfg.SeasonID, e.cfg.GameType, from, to)
	if err != nil {
		return nil, err
	}

	return &scan.Pool{
		Players:  players,
		Stats:    set,
		B2BTeams: scan.BackToBackTeams(games),
	}, nil
}

// EvaluateScan runs a saved scan against a fresh pool snapshot. When record is
// true the cached match count, run history, and alert state are updated.
func (e *Engine) EvaluateScan(ctx context.Context, s *scan.Scan, record bool) ([]roster.Player, error) {
	pool, err := e.BuildScanPool(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return e.evaluateOnPool(ctx, pool, s, record, "saved")
}

// PreviewScan evaluates an unsaved definition without persisting anything.
func (e *Engine) PreviewScan(ctx context.Context, s *scan.Scan) ([]roster.Player, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	pool, err := e.BuildScanPool(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	metrics.ScanEvaluations.WithLabelValues("preview").Inc()
	return pool.Evaluate(s), nil
}

// RefreshScans re-evaluates scans whose cached match count is older than
// staleAfter (all of them when force is set), recording results and alert
// state. Returns the number of scans recomputed.
func (e *Engine) RefreshScans(ctx context.Context, scans []scan.Scan, staleAfter time.Duration, force bool) (int, error) {
	now := time.Now().UTC()
	var stale []*scan.Scan
	for i := range scans {
		s := &scans[i]
		if force || s.LastEvaluated == nil || now.Sub(*s.LastEvaluated) > staleAfter {
			stale = append(stale, s)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	pool, err := e.BuildScanPool(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, s := range stale {
		if _, err := e.evaluateOnPool(ctx, pool, s, true, "refresh"); err != nil {
			return 0, fmt.Errorf("refresh scan %q: %w", s.Name, err)
		}
	}
	return len(stale), nil
}

func (e *Engine) evaluateOnPool(ctx context.Context, pool *scan.Pool, s *scan.Scan, record bool, kind string) ([]roster.Player, error) {
	matches := pool.Evaluate(s)
	metrics.ScanEvaluations.WithLabelValues(kind).Inc()
	if !record {
		return matches, nil
	}

	now := time.Now().UTC()
	ids := make([]string, len(matches))
	for i, p := range matches {
		ids[i] = p.ID
	}

	t, err := alert.Record(ctx, e.pool.Pool, s.ID, ids, now)
	if err != nil {
		return nil, err
	}
	metrics.AlertsEmitted.Add(float64(len(t.New)))

	if err := scan.MarkEvaluated(ctx, e.pool.Pool, s.ID, len(matches), now, ""); err != nil {
		return nil, err
	}
	s.MatchCount = len(matches)
	s.LastEvaluated = &now

	e.logger.Debug("Scan evaluated",
		"scan", s.Name, "matches", len(matches),
		"new", len(t.New), "dropped", len(t.Dropped))
	return matches, nil
}
