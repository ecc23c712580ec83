// Package listener provides a Postgres LISTEN/NOTIFY consumer for game-log
// changes. It holds a dedicated pgx connection (not from the pool) listening
// on the configured channel; when the upstream sync job lands new game rows
// it fires pg_notify and this consumer schedules a recalculation.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/forecheck/engine/internal/recalc"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second

	// debounce coalesces the burst of notifications a sync pass produces
	// into a single recalculation trigger.
	debounce = 15 * time.Second
)

// GameLogEvent is the JSON payload from pg_notify on the game-log channel.
type GameLogEvent struct {
	PlayerID  string `json:"player_id"`
	SeasonID  string `json:"season_id"`
	Timestamp int64  `json:"ts"`
}

// Start opens a dedicated connection and listens for game-log changes,
// triggering the recalculation job after each quiet period. It reconnects
// automatically on connection loss. Blocks until ctx is cancelled. Intended
// to be called with `go`.
func Start(ctx context.Context, dbURL, channel string, job *recalc.Job, logger *slog.Logger) {
	events := make(chan GameLogEvent, 64)
	go scheduleLoop(ctx, events, job, logger)

	backoff := reconnectBackoff
	for {
		err := listenLoop(ctx, dbURL, channel, events, logger)
		if ctx.Err() != nil {
			logger.Info("Game-log listener stopped (context cancelled)")
			return
		}

		logger.Error("Game-log listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL, channel string, events chan<- GameLogEvent, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("Game-log listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var event GameLogEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			logger.Warn("Failed to parse game-log event",
				"payload", notification.Payload, "error", err)
			continue
		}

		select {
		case events <- event:
		default:
			// A full buffer means a trigger is already pending.
		}
	}
}

// scheduleLoop debounces incoming events and triggers the recalculation job
// once per quiet period. A run already in flight is left alone; the next
// event after it finishes starts a fresh one.
func scheduleLoop(ctx context.Context, events <-chan GameLogEvent, job *recalc.Job, logger *slog.Logger) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event := <-events:
			logger.Debug("Game-log change received", "player_id", event.PlayerID)
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			err := job.Start(ctx)
			switch {
			case errors.Is(err, recalc.ErrAlreadyRunning):
				logger.Debug("Recalculation already in flight, skipping trigger")
			case err != nil:
				logger.Warn("Failed to trigger recalculation", "error", err)
			default:
				logger.Info("Recalculation triggered by game-log change")
			}

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
