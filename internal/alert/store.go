package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Record applies one evaluation's matched player set to the scan's alert
// state. New matches get both last_matched_at and last_notified_at stamped;
// staying matches only refresh last_matched_at, so detection time survives
// re-evaluation; dropped players keep their row with is_current_match false.
func Record(ctx context.Context, pool *pgxpool.Pool, scanID string, matched []string, now time.Time) (Transition, error) {
	prior, err := currentFlags(ctx, pool, scanID)
	if err != nil {
		return Transition{}, err
	}
	t := Diff(prior, matched)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return Transition{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, playerID := range t.New {
		_, err := tx.Exec(ctx, `
			INSERT INTO scan_alert_state (scan_id, player_id, is_current_match,
				last_matched_at, last_notified_at, created_at, updated_at)
			VALUES ($1, $2, true, $3, $3, $3, $3)
			ON CONFLICT (scan_id, player_id) DO UPDATE SET
				is_current_match = true,
				last_matched_at = EXCLUDED.last_matched_at,
				last_notified_at = EXCLUDED.last_notified_at,
				updated_at = EXCLUDED.updated_at`,
			scanID, playerID, now,
		)
		if err != nil {
			return Transition{}, fmt.Errorf("record new match: %w", err)
		}
	}
	for _, playerID := range t.Staying {
		_, err := tx.Exec(ctx, `
			UPDATE scan_alert_state
			SET is_current_match = true, last_matched_at = $3, updated_at = $3
			WHERE scan_id = $1 AND player_id = $2`,
			scanID, playerID, now,
		)
		if err != nil {
			return Transition{}, fmt.Errorf("refresh match: %w", err)
		}
	}
	for _, playerID := range t.Dropped {
		_, err := tx.Exec(ctx, `
			UPDATE scan_alert_state
			SET is_current_match = false, updated_at = $3
			WHERE scan_id = $1 AND player_id = $2`,
			scanID, playerID, now,
		)
		if err != nil {
			return Transition{}, fmt.Errorf("drop match: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Transition{}, fmt.Errorf("commit alert state: %w", err)
	}
	return t, nil
}

// StatesForScan loads every state row for a scan.
func StatesForScan(ctx context.Context, pool *pgxpool.Pool, scanID string) ([]State, error) {
	rows, err := pool.Query(ctx, "alert_states_for_scan", scanID)
	if err != nil {
		return nil, fmt.Errorf("load alert states: %w", err)
	}
	defer rows.Close()

	var states []State
	for rows.Next() {
		var s State
		if err := rows.Scan(&s.ScanID, &s.PlayerID, &s.IsCurrentMatch, &s.LastMatchedAt, &s.LastNotifiedAt); err != nil {
			return nil, fmt.Errorf("scan alert state: %w", err)
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

// Feed returns alert entries whose detection time falls within the trailing
// horizon, newest first. Only alert-enabled scans and currently-matching
// players participate.
func Feed(ctx context.Context, pool *pgxpool.Pool, horizon time.Duration, now time.Time) ([]Entry, error) {
	rows, err := pool.Query(ctx, `
		SELECT st.scan_id, sc.name, st.player_id, p.name, p.team, p.position,
		       st.last_notified_at
		FROM scan_alert_state st
		JOIN scans sc ON sc.id = st.scan_id
		JOIN players p ON p.id = st.player_id
		WHERE sc.alerts_enabled = true
		  AND st.is_current_match = true
		  AND st.last_notified_at >= $1
		ORDER BY st.last_notified_at DESC, p.name`,
		FeedCutoff(horizon, now),
	)
	if err != nil {
		return nil, fmt.Errorf("load alert feed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ScanID, &e.ScanName, &e.PlayerID, &e.PlayerName, &e.Team, &e.Position, &e.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan alert entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Cleanup removes state rows that stopped matching before the retention
// cutoff. Returns the number of rows removed.
func Cleanup(ctx context.Context, pool *pgxpool.Pool, retention time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-retention)
	tag, err := pool.Exec(ctx, `
		DELETE FROM scan_alert_state
		WHERE is_current_match = false
		  AND (last_matched_at IS NULL OR last_matched_at < $1)`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup alert states: %w", err)
	}
	return tag.RowsAffected(), nil
}

func currentFlags(ctx context.Context, pool *pgxpool.Pool, scanID string) (map[string]bool, error) {
	states, err := StatesForScan(ctx, pool, scanID)
	if err != nil {
		return nil, err
	}
	flags := make(map[string]bool, len(states))
	for _, s := range states {
		flags[s.PlayerID] = s.IsCurrentMatch
	}
	return flags, nil
}
