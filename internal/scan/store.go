package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a scan id does not exist.
var ErrNotFound = errors.New("scan not found")

const scanColumns = `id, user_id, name, description, position_filter, is_preset,
	alerts_enabled, is_hidden, is_favorite, last_evaluated, match_count, created_at`

// List returns scans with their rules. Preset scans are included when
// includePresets is true; userID scopes custom scans when non-empty.
func List(ctx context.Context, pool *pgxpool.Pool, includePresets bool, userID string) ([]Scan, error) {
	query := "SELECT " + scanColumns + " FROM scans"
	var args []any
	switch {
	case includePresets && userID != "":
		query += " WHERE is_preset = true OR user_id = $1"
		args = append(args, userID)
	case !includePresets && userID != "":
		query += " WHERE is_preset = false AND user_id = $1"
		args = append(args, userID)
	case !includePresets:
		query += " WHERE is_preset = false"
	}
	query += " ORDER BY is_preset DESC, name"

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		s, err := scanScanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range scans {
		if err := loadRules(ctx, pool, &scans[i]); err != nil {
			return nil, err
		}
	}
	return scans, nil
}

// ByID loads one scan and its rules.
func ByID(ctx context.Context, pool *pgxpool.Pool, id string) (*Scan, error) {
	row := pool.QueryRow(ctx, "scan_by_id", id)
	s, err := scanScanRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := loadRules(ctx, pool, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create validates and persists a new scan with its rules.
func Create(ctx context.Context, pool *pgxpool.Pool, s *Scan) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = NewID()
	}
	s.CreatedAt = time.Now().UTC()

	return inTx(ctx, pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO scans (id, user_id, name, description, position_filter,
				is_preset, alerts_enabled, is_hidden, is_favorite, match_count,
				created_at, updated_at)
			VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6, $7, $8, $9, 0, $10, $10)`,
			s.ID, s.UserID, s.Name, s.Description, s.PositionFilter,
			s.IsPreset, s.AlertsEnabled, s.IsHidden, s.IsFavorite, s.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert scan: %w", err)
		}
		return insertRules(ctx, tx, s)
	})
}

// Update rewrites a scan's fields and replaces its rule list.
func Update(ctx context.Context, pool *pgxpool.Pool, s *Scan) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return inTx(ctx, pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE scans
			SET name = $2, description = $3, position_filter = NULLIF($4, ''),
			    alerts_enabled = $5, is_hidden = $6, is_favorite = $7,
			    updated_at = NOW()
			WHERE id = $1`,
			s.ID, s.Name, s.Description, s.PositionFilter, s.AlertsEnabled,
			s.IsHidden, s.IsFavorite,
		)
		if err != nil {
			return fmt.Errorf("update scan: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, "DELETE FROM scan_rules WHERE scan_id = $1", s.ID); err != nil {
			return fmt.Errorf("clear scan rules: %w", err)
		}
		return insertRules(ctx, tx, s)
	})
}

// Delete removes a scan along with its rules, run history, and alert state.
func Delete(ctx context.Context, pool *pgxpool.Pool, id string) error {
	return inTx(ctx, pool, func(tx pgx.Tx) error {
		for _, q := range []string{
			"DELETE FROM scan_rules WHERE scan_id = $1",
			"DELETE FROM scan_runs WHERE scan_id = $1",
			"DELETE FROM scan_alert_state WHERE scan_id = $1",
		} {
			if _, err := tx.Exec(ctx, q, id); err != nil {
				return fmt.Errorf("delete scan dependents: %w", err)
			}
		}
		tag, err := tx.Exec(ctx, "DELETE FROM scans WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete scan: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// MarkEvaluated refreshes the cached match count, stamps last_evaluated, and
// appends a run history row.
func MarkEvaluated(ctx context.Context, pool *pgxpool.Pool, scanID string, matchCount int, runAt time.Time, runErr string) error {
	return inTx(ctx, pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE scans SET match_count = $2, last_evaluated = $3, updated_at = NOW()
			WHERE id = $1`,
			scanID, matchCount, runAt,
		)
		if err != nil {
			return fmt.Errorf("mark scan evaluated: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO scan_runs (scan_id, run_at, match_count, error)
			VALUES ($1, $2, $3, NULLIF($4, ''))`,
			scanID, runAt, matchCount, runErr,
		)
		if err != nil {
			return fmt.Errorf("record scan run: %w", err)
		}
		return nil
	})
}

// EnsurePresets reconciles stored preset scans against Presets: inserts new
// ones, rewrites descriptions and rules of existing ones, removes retired
// ones. Custom scans are untouched.
func EnsurePresets(ctx context.Context, pool *pgxpool.Pool) error {
	return inTx(ctx, pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, "SELECT id, name FROM scans WHERE is_preset = true")
		if err != nil {
			return fmt.Errorf("load preset scans: %w", err)
		}
		existing := make(map[string]string)
		for rows.Next() {
			var id, name string
			if err := rows.Scan(&id, &name); err != nil {
				rows.Close()
				return err
			}
			existing[name] = id
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		desired := make(map[string]bool, len(Presets))
		for i := range Presets {
			desired[Presets[i].Name] = true
		}

		for name, id := range existing {
			if desired[name] {
				continue
			}
			for _, q := range []string{
				"DELETE FROM scan_rules WHERE scan_id = $1",
				"DELETE FROM scan_runs WHERE scan_id = $1",
				"DELETE FROM scan_alert_state WHERE scan_id = $1",
				"DELETE FROM scans WHERE id = $1",
			} {
				if _, err := tx.Exec(ctx, q, id); err != nil {
					return fmt.Errorf("remove retired preset %q: %w", name, err)
				}
			}
		}

		for i := range Presets {
			preset := Presets[i]
			id, ok := existing[preset.Name]
			if !ok {
				id = NewID()
				_, err := tx.Exec(ctx, `
					INSERT INTO scans (id, name, description, position_filter,
						is_preset, alerts_enabled, match_count, created_at, updated_at)
					VALUES ($1, $2, $3, NULLIF($4, ''), true, $5, 0, NOW(), NOW())`,
					id, preset.Name, preset.Description, preset.PositionFilter,
					preset.AlertsEnabled,
				)
				if err != nil {
					return fmt.Errorf("insert preset %q: %w", preset.Name, err)
				}
			} else {
				_, err := tx.Exec(ctx, `
					UPDATE scans
					SET description = $2, position_filter = NULLIF($3, ''),
					    updated_at = NOW()
					WHERE id = $1`,
					id, preset.Description, preset.PositionFilter,
				)
				if err != nil {
					return fmt.Errorf("update preset %q: %w", preset.Name, err)
				}
				if _, err := tx.Exec(ctx, "DELETE FROM scan_rules WHERE scan_id = $1", id); err != nil {
					return fmt.Errorf("clear preset rules %q: %w", preset.Name, err)
				}
			}
			preset.ID = id
			if err := insertRules(ctx, tx, &preset); err != nil {
				return err
			}
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertRules(ctx context.Context, tx pgx.Tx, s *Scan) error {
	for i := range s.Rules {
		r := &s.Rules[i]
		if r.ID == "" {
			r.ID = NewID()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO scan_rules (id, scan_id, stat, comparator, value, window,
				compare_window, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NOW())`,
			r.ID, s.ID, r.Stat, r.Comparator, r.Value, r.Window, r.CompareWindow,
		)
		if err != nil {
			return fmt.Errorf("insert scan rule: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScanRow(row rowScanner) (Scan, error) {
	var s Scan
	var userID, positionFilter *string
	err := row.Scan(
		&s.ID, &userID, &s.Name, &s.Description, &positionFilter, &s.IsPreset,
		&s.AlertsEnabled, &s.IsHidden, &s.IsFavorite, &s.LastEvaluated,
		&s.MatchCount, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Scan{}, err
		}
		return Scan{}, fmt.Errorf("scan scan row: %w", err)
	}
	if userID != nil {
		s.UserID = *userID
	}
	if positionFilter != nil {
		s.PositionFilter = *positionFilter
	}
	return s, nil
}

func loadRules(ctx context.Context, pool *pgxpool.Pool, s *Scan) error {
	rows, err := pool.Query(ctx, "scan_rules_for_scan", s.ID)
	if err != nil {
		return fmt.Errorf("load rules for scan %s: %w", s.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Rule
		var compareWindow *string
		if err := rows.Scan(&r.ID, &r.Stat, &r.Comparator, &r.Value, &r.Window, &compareWindow); err != nil {
			return fmt.Errorf("scan rule row: %w", err)
		}
		if compareWindow != nil {
			r.CompareWindow = *compareWindow
		}
		s.Rules = append(s.Rules, r)
	}
	return rows.Err()
}
