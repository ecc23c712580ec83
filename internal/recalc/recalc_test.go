package recalc_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/forecheck/engine/internal/metrics"
	"github.com/forecheck/engine/internal/recalc"
	"github.com/forecheck/engine/internal/roster"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeRun struct {
	players []roster.Player
	fail    map[string]bool

	mu        sync.Mutex
	processed []string
}

func (f *fakeRun) Players() []roster.Player { return f.players }

func (f *fakeRun) Process(_ context.Context, p roster.Player) error {
	f.mu.Lock()
	f.processed = append(f.processed, p.ID)
	f.mu.Unlock()
	if f.fail[p.ID] {
		return errors.New("bad game log")
	}
	return nil
}

type fakeSource struct {
	run  *fakeRun
	err  error
	gate chan struct{} // when set, BeginRun blocks until the gate closes
}

func (s *fakeSource) BeginRun(context.Context) (recalc.Run, error) {
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.run, nil
}

func playerPool(ids ...string) []roster.Player {
	players := make([]roster.Player, len(ids))
	for i, id := range ids {
		players[i] = roster.Player{ID: id, Name: id, IsActive: true}
	}
	return players
}

func TestJobRun(t *testing.T) {
	Convey("Given a pool of three players", t, func() {
		run := &fakeRun{players: playerPool("p1", "p2", "p3")}
		job := recalc.New(&fakeSource{run: run}, 2, testLogger)

		Convey("When the job runs to completion", func() {
			So(job.Start(context.Background()), ShouldBeNil)
			job.Wait()
			status := job.Status()

			Convey("Then every player was processed exactly once", func() {
				So(status.State, ShouldEqual, recalc.StateSucceeded)
				So(status.ProcessedPlayers, ShouldEqual, 3)
				So(status.TotalPlayers, ShouldEqual, 3)
				So(run.processed, ShouldHaveLength, 3)
			})

			Convey("And the run is timestamped", func() {
				So(status.StartedAt, ShouldNotBeNil)
				So(status.FinishedAt, ShouldNotBeNil)
				So(status.SkippedPlayers, ShouldBeEmpty)
			})
		})
	})

	Convey("Given one player whose processing fails", t, func() {
		run := &fakeRun{
			players: playerPool("p1", "p2", "p3"),
			fail:    map[string]bool{"p2": true},
		}
		job := recalc.New(&fakeSource{run: run}, 2, testLogger)

		Convey("When the job runs", func() {
			So(job.Start(context.Background()), ShouldBeNil)
			job.Wait()
			status := job.Status()

			Convey("Then the run still succeeds with the player skipped", func() {
				So(status.State, ShouldEqual, recalc.StateSucceeded)
				So(status.ProcessedPlayers, ShouldEqual, 3)
				So(status.SkippedPlayers, ShouldResemble, []string{"p2"})
			})
		})
	})

	Convey("Given a source that cannot begin a run", t, func() {
		job := recalc.New(&fakeSource{err: errors.New("no database")}, 2, testLogger)

		Convey("When the job runs", func() {
			So(job.Start(context.Background()), ShouldBeNil)
			job.Wait()
			status := job.Status()

			Convey("Then the job reports failure with the cause", func() {
				So(status.State, ShouldEqual, recalc.StateFailed)
				So(status.Error, ShouldContainSubstring, "no database")
				So(status.FinishedAt, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a fresh job", t, func() {
		job := recalc.New(&fakeSource{run: &fakeRun{}}, 2, testLogger)

		Convey("Then its initial status is idle", func() {
			So(job.Status().State, ShouldEqual, recalc.StateIdle)
		})
	})
}

func TestJobSingleFlight(t *testing.T) {
	Convey("Given a run held in flight", t, func() {
		gate := make(chan struct{})
		source := &fakeSource{run: &fakeRun{players: playerPool("p1")}, gate: gate}
		job := recalc.New(source, 1, testLogger)
		So(job.Start(context.Background()), ShouldBeNil)

		Convey("When a second trigger arrives", func() {
			err := job.Start(context.Background())

			Convey("Then it is rejected, not queued", func() {
				So(err, ShouldEqual, recalc.ErrAlreadyRunning)
				close(gate)
				job.Wait()
			})
		})

		Convey("When the run finishes", func() {
			close(gate)
			job.Wait()

			Convey("Then a new run can start", func() {
				source.gate = nil
				So(job.Start(context.Background()), ShouldBeNil)
				job.Wait()
				So(job.Status().State, ShouldEqual, recalc.StateSucceeded)
			})
		})
	})
}

func TestJobMetrics(t *testing.T) {
	Convey("Given the run counters before a job executes", t, func() {
		succeeded := testutil.ToFloat64(metrics.RecalcRuns.WithLabelValues(recalc.StateSucceeded))
		failed := testutil.ToFloat64(metrics.RecalcRuns.WithLabelValues(recalc.StateFailed))

		Convey("When a run completes", func() {
			run := &fakeRun{players: playerPool("p1", "p2", "p3")}
			job := recalc.New(&fakeSource{run: run}, 2, testLogger)
			So(job.Start(context.Background()), ShouldBeNil)
			job.Wait()

			Convey("Then the succeeded counter advances and progress shows the full pool", func() {
				So(testutil.ToFloat64(metrics.RecalcRuns.WithLabelValues(recalc.StateSucceeded)), ShouldEqual, succeeded+1)
				So(testutil.ToFloat64(metrics.RecalcProgress), ShouldEqual, 3)
			})
		})

		Convey("When a run cannot begin", func() {
			job := recalc.New(&fakeSource{err: errors.New("no database")}, 2, testLogger)
			So(job.Start(context.Background()), ShouldBeNil)
			job.Wait()

			Convey("Then the failed counter advances", func() {
				So(testutil.ToFloat64(metrics.RecalcRuns.WithLabelValues(recalc.StateFailed)), ShouldEqual, failed+1)
			})
		})
	})
}

func TestStatusImmutability(t *testing.T) {
	Convey("Given a completed run with skipped players", t, func() {
		run := &fakeRun{
			players: playerPool("p1", "p2"),
			fail:    map[string]bool{"p1": true, "p2": true},
		}
		job := recalc.New(&fakeSource{run: run}, 1, testLogger)
		So(job.Start(context.Background()), ShouldBeNil)
		job.Wait()

		Convey("When a caller mutates a returned snapshot", func() {
			snap := job.Status()
			snap.SkippedPlayers[0] = "tampered"
			snap.State = "tampered"

			Convey("Then later reads are unaffected", func() {
				fresh := job.Status()
				So(fresh.State, ShouldEqual, recalc.StateSucceeded)
				So(fresh.SkippedPlayers, ShouldNotContain, "tampered")
			})
		})
	})
}
