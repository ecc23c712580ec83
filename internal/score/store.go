package score

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// configSettingKey is the app_settings row holding the score config.
const configSettingKey = "streamer_score_config"

// LoadConfig reads the persisted score config, seeding the defaults row on
// first run.
func LoadConfig(ctx context.Context, pool *pgxpool.Pool) (*Config, error) {
	var raw []byte
	err := pool.QueryRow(ctx, "app_setting_by_key", configSettingKey).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		cfg := Default()
		if err := SaveConfig(ctx, pool, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load score config: %w", err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		// A row written by an older schema should not brick scoring.
		return Default(), nil
	}
	return cfg, nil
}

// SaveConfig persists cfg as the singleton config row.
func SaveConfig(ctx context.Context, pool *pgxpool.Pool, cfg *Config) error {
	raw, err := cfg.Encode()
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO app_settings (key, value_json, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value_json = EXCLUDED.value_json, updated_at = NOW()`,
		configSettingKey, raw,
	)
	if err != nil {
		return fmt.Errorf("save score config: %w", err)
	}
	return nil
}

// ActiveLeague loads the single active league profile, or nil when none is
// configured.
func ActiveLeague(ctx context.Context, pool *pgxpool.Pool) (*LeagueProfile, error) {
	var p LeagueProfile
	err := pool.QueryRow(ctx, "active_league").Scan(&p.ID, &p.Name, &p.Mode, &p.Weights)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active league: %w", err)
	}
	if len(p.Weights) == 0 {
		return nil, nil
	}
	return &p, nil
}
