// Package recalc runs the full-pool recomputation job: every active player's
// rolling windows, trend labels, and streamer scores rebuilt under one config
// snapshot. At most one run is in flight at a time; progress is published as
// immutable status snapshots for polling.
package recalc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/forecheck/engine/internal/metrics"
	"github.com/forecheck/engine/internal/roster"
)

// ErrAlreadyRunning is returned when a trigger arrives while a run is in
// flight. Concurrent runs are rejected, never interleaved.
var ErrAlreadyRunning = errors.New("recalculation already running")

// Run states.
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

// Status is an immutable progress snapshot. A new value is published on every
// state change; readers never observe partial updates.
type Status struct {
	State            string     `json:"state"`
	ProcessedPlayers int        `json:"processed_players"`
	TotalPlayers     int        `json:"total_players"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	Error            string     `json:"error,omitempty"`
	SkippedPlayers   []string   `json:"skipped_players,omitempty"`
}

// Source prepares one recalculation run. BeginRun captures everything the run
// needs up front, in particular the config snapshot, so the whole pool is
// scored under a single version.
type Source interface {
	BeginRun(ctx context.Context) (Run, error)
}

// Run is one prepared pass over the pool.
type Run interface {
	Players() []roster.Player
	Process(ctx context.Context, p roster.Player) error
}

// Job enforces single-flight execution and owns the published status.
type Job struct {
	source  Source
	workers int
	logger  *slog.Logger

	running atomic.Bool
	status  atomic.Pointer[Status]

	mu   sync.Mutex
	cur  Status
	done chan struct{}
}

// New returns an idle job. workers below 1 is treated as 1.
func New(source Source, workers int, logger *slog.Logger) *Job {
	if workers < 1 {
		workers = 1
	}
	j := &Job{source: source, workers: workers, logger: logger}
	j.status.Store(&Status{State: StateIdle})
	return j
}

// Status returns the latest published snapshot. The skip list is cloned so
// callers can never mutate the published state.
func (j *Job) Status() Status {
	snap := *j.status.Load()
	snap.SkippedPlayers = append([]string(nil), snap.SkippedPlayers...)
	return snap
}

// Start triggers a run in the background. The run outlives the caller's
// context cancellation; ErrAlreadyRunning is returned when one is in flight.
func (j *Job) Start(ctx context.Context) error {
	if !j.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	j.mu.Lock()
	now := time.Now().UTC()
	j.cur = Status{State: StateRunning, StartedAt: &now}
	j.done = make(chan struct{})
	j.publishLocked()
	j.mu.Unlock()

	go j.run(context.WithoutCancel(ctx))
	return nil
}

// Wait blocks until the current run finishes. A no-op when idle.
func (j *Job) Wait() {
	j.mu.Lock()
	done := j.done
	j.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (j *Job) run(ctx context.Context) {
	defer func() {
		j.mu.Lock()
		close(j.done)
		j.mu.Unlock()
		j.running.Store(false)
	}()

	run, err := j.source.BeginRun(ctx)
	if err != nil {
		j.logger.Error("Recalculation failed to start", "error", err)
		j.finish(StateFailed, err.Error())
		return
	}

	players := run.Players()
	j.mu.Lock()
	j.cur.TotalPlayers = len(players)
	j.publishLocked()
	j.mu.Unlock()

	j.logger.Info("Recalculation started", "players", len(players), "workers", j.workers)

	workers := j.workers
	if workers > len(players) && len(players) > 0 {
		workers = len(players)
	}

	ch := make(chan roster.Player, len(players))
	for _, p := range players {
		ch <- p
	}
	close(ch)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range ch {
				err := run.Process(ctx, p)

				j.mu.Lock()
				j.cur.ProcessedPlayers++
				if err != nil {
					// One bad player never aborts the pass.
					j.cur.SkippedPlayers = append(j.cur.SkippedPlayers, p.ID)
					j.logger.Warn("Player recalculation skipped",
						"player_id", p.ID, "name", p.Name, "error", err)
				}
				j.publishLocked()
				j.mu.Unlock()
			}
		}()
	}
	wg.Wait()

	j.mu.Lock()
	skipped := len(j.cur.SkippedPlayers)
	j.mu.Unlock()

	j.logger.Info("Recalculation complete",
		"players", len(players), "skipped", skipped)
	j.finish(StateSucceeded, "")
}

func (j *Job) finish(state, errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now().UTC()
	j.cur.State = state
	j.cur.FinishedAt = &now
	j.cur.Error = errMsg
	j.publishLocked()
	metrics.RecalcRuns.WithLabelValues(state).Inc()
}

// publishLocked stores a defensive copy of the working status. Callers hold
// j.mu.
func (j *Job) publishLocked() {
	snap := j.cur
	snap.SkippedPlayers = append([]string(nil), j.cur.SkippedPlayers...)
	j.status.Store(&snap)
	metrics.RecalcProgress.Set(float64(j.cur.ProcessedPlayers))
}
